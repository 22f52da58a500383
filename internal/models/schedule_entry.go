package models

import "time"

// WeekPattern indicates which weeks of the term an entry occupies.
type WeekPattern string

const (
	WeekPatternEvery WeekPattern = "EVERY_WEEK"
	WeekPatternOdd   WeekPattern = "ODD_WEEKS"
	WeekPatternEven  WeekPattern = "EVEN_WEEKS"
)

// Overlaps reports whether two week patterns share at least one week.
func (p WeekPattern) Overlaps(other WeekPattern) bool {
	if p == WeekPatternEvery || other == WeekPatternEvery {
		return true
	}
	return p == other
}

// ScheduleEntry places a course offering into a hall at a time slot for a term.
type ScheduleEntry struct {
	ID          string      `db:"id" json:"id"`
	TermID      string      `db:"term_id" json:"term_id"`
	OfferingID  string      `db:"offering_id" json:"offering_id"`
	TimeSlotID  string      `db:"time_slot_id" json:"time_slot_id"`
	HallID      string      `db:"hall_id" json:"hall_id"`
	WeekPattern WeekPattern `db:"week_pattern" json:"week_pattern"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// ScheduleEntryFilter captures filtering criteria for listing entries.
type ScheduleEntryFilter struct {
	TermID       string
	OfferingID   string
	HallID       string
	InstructorID string
	DayOfWeek    int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ScheduleEntryDetail joins an entry with its display fields for listings
// and exports.
type ScheduleEntryDetail struct {
	ScheduleEntry
	CourseCode     string `db:"course_code" json:"course_code"`
	CourseTitle    string `db:"course_title" json:"course_title"`
	DepartmentID   string `db:"department_id" json:"department_id"`
	InstructorID   string `db:"instructor_id" json:"instructor_id"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	HallName       string `db:"hall_name" json:"hall_name"`
	DayOfWeek      int    `db:"day_of_week" json:"day_of_week"`
	StartTime      string `db:"start_time" json:"start_time"`
	EndTime        string `db:"end_time" json:"end_time"`
	StudentCount   int    `db:"student_count" json:"student_count"`
	HallCapacity   int    `db:"hall_capacity" json:"hall_capacity"`
}
