package models

import "time"

// Teaching days run Monday through Friday, encoded 1..5.
const (
	DayMonday    = 1
	DayTuesday   = 2
	DayWednesday = 3
	DayThursday  = 4
	DayFriday    = 5
)

// TeachingDays lists the schedulable days in institutional order.
var TeachingDays = []int{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

// DayNames maps day codes to display names.
var DayNames = map[int]string{
	DayMonday:    "Monday",
	DayTuesday:   "Tuesday",
	DayWednesday: "Wednesday",
	DayThursday:  "Thursday",
	DayFriday:    "Friday",
}

// CanonicalStartTimes lists lecture start times in chronological order.
// The midday gap between 11:30 and 13:30 is the lunch break.
var CanonicalStartTimes = []string{
	"08:30", "09:30", "10:30", "11:30",
	"13:30", "14:30", "15:30", "16:30",
}

// TimeSlot represents one cell of the weekly teaching grid. Start and end
// times are stored as wall clock strings with seconds, e.g. "08:30:00".
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DayName returns the display name for the slot's day.
func (t TimeSlot) DayName() string {
	if name, ok := DayNames[t.DayOfWeek]; ok {
		return name
	}
	return "Unknown"
}

// TimeSlotFilter captures filtering criteria for listing time slots.
type TimeSlotFilter struct {
	DayOfWeek int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
