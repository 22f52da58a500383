package models

import "time"

// CourseOffering represents a course taught in a given term by one instructor
// for a known cohort size.
type CourseOffering struct {
	ID            string    `db:"id" json:"id"`
	TermID        string    `db:"term_id" json:"term_id"`
	DepartmentID  string    `db:"department_id" json:"department_id"`
	CourseCode    string    `db:"course_code" json:"course_code"`
	Title         string    `db:"title" json:"title"`
	InstructorID  string    `db:"instructor_id" json:"instructor_id"`
	StudentCount  int       `db:"student_count" json:"student_count"`
	DurationSlots int       `db:"duration_slots" json:"duration_slots"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseOfferingFilter captures filtering criteria for listing offerings.
type CourseOfferingFilter struct {
	TermID       string
	DepartmentID string
	InstructorID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
