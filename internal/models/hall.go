package models

import "time"

// HallType classifies teaching rooms.
type HallType string

const (
	HallTypeClassroom    HallType = "CLASSROOM"
	HallTypeAmphitheatre HallType = "AMPHITHEATRE"
	HallTypeLab          HallType = "LAB"
)

// Hall represents a teaching room with a seat capacity.
type Hall struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Capacity           int       `db:"capacity" json:"capacity"`
	Type               HallType  `db:"hall_type" json:"hall_type"`
	IsShared           bool      `db:"is_shared" json:"is_shared"`
	DepartmentID       *string   `db:"department_id" json:"department_id,omitempty"`
	SeatingArrangement string    `db:"seating_arrangement" json:"seating_arrangement"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// HallFilter captures filtering criteria for listing halls.
type HallFilter struct {
	Type         HallType
	DepartmentID string
	IsShared     *bool
	MinCapacity  int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
