package models

import "time"

// Instructor represents a teaching staff member.
type Instructor struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	Title        string    `db:"title" json:"title"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorFilter captures filtering criteria for listing instructors.
type InstructorFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// InstructorUnavailability marks a time slot an instructor cannot teach in
// during a term. One row per (term, instructor, slot).
type InstructorUnavailability struct {
	ID           string    `db:"id" json:"id"`
	TermID       string    `db:"term_id" json:"term_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	TimeSlotID   string    `db:"time_slot_id" json:"time_slot_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
