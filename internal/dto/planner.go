package dto

import (
	"time"

	"github.com/campusplan/timetable-api/internal/models"
)

// ConflictSeverity grades how serious a placement conflict is.
type ConflictSeverity string

const (
	SeverityOK       ConflictSeverity = "OK"
	SeverityWarning  ConflictSeverity = "WARNING"
	SeverityBlocking ConflictSeverity = "BLOCKING"
)

// Conflict reason codes.
const (
	ReasonCapacityExceeded      = "CAPACITY_EXCEEDED"
	ReasonRoomOccupied          = "ROOM_OCCUPIED"
	ReasonInstructorUnavailable = "INSTRUCTOR_UNAVAILABLE"
	ReasonInstructorConflict    = "INSTRUCTOR_CONFLICT"
)

// ConflictReason describes one rule violation found during evaluation.
type ConflictReason struct {
	Code        string           `json:"code"`
	Severity    ConflictSeverity `json:"severity"`
	Overridable bool             `json:"overridable"`
	Message     string           `json:"message"`
	Meta        map[string]any   `json:"meta,omitempty"`
}

// ConflictReport aggregates all reasons for a candidate placement.
type ConflictReport struct {
	Severity ConflictSeverity `json:"severity"`
	Reasons  []ConflictReason `json:"reasons"`
}

// Overridable reports whether every collected reason can be confirmed away.
func (r ConflictReport) Overridable() bool {
	if len(r.Reasons) == 0 {
		return true
	}
	for _, reason := range r.Reasons {
		if !reason.Overridable {
			return false
		}
	}
	return true
}

// OpenSessionRequest starts a planner session scoped to a term and department.
type OpenSessionRequest struct {
	TermID       string `json:"termId" validate:"required"`
	DepartmentID string `json:"departmentId" validate:"required"`
}

// PlannerSession describes an open planning session.
type PlannerSession struct {
	SessionID    string    `json:"sessionId"`
	TermID       string    `json:"termId"`
	DepartmentID string    `json:"departmentId"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// PlannerOptions returns everything the planning UI needs to render the grid.
type PlannerOptions struct {
	Session        PlannerSession                    `json:"session"`
	Days           []int                             `json:"days"`
	StartTimes     []string                          `json:"startTimes"`
	TimeSlots      []models.TimeSlot                 `json:"timeSlots"`
	Halls          []models.Hall                     `json:"halls"`
	Unplaced       []models.CourseOffering           `json:"unplacedOfferings"`
	Entries        []models.ScheduleEntryDetail      `json:"entries"`
	Unavailability []models.InstructorUnavailability `json:"instructorUnavailability"`
}

// RoomOption pairs one hall with its conflict classification for a candidate
// grid cell, letting the client render a room picker in a single call.
type RoomOption struct {
	Hall   models.Hall    `json:"hall"`
	Report ConflictReport `json:"report"`
}

// PlacementRequest asks to place an offering into a hall at a grid cell.
type PlacementRequest struct {
	OfferingID  string             `json:"offeringId" validate:"required"`
	HallID      string             `json:"hallId" validate:"required"`
	DayOfWeek   int                `json:"dayOfWeek" validate:"required,min=1,max=5"`
	StartTime   string             `json:"startTime" validate:"required"`
	WeekPattern models.WeekPattern `json:"weekPattern" validate:"omitempty,oneof=EVERY_WEEK ODD_WEEKS EVEN_WEEKS"`
	Confirm     bool               `json:"confirm"`
}

// Placement result statuses.
const (
	PlacementStatusPlaced               = "placed"
	PlacementStatusConfirmationRequired = "confirmation_required"
)

// PlacementResult reports the outcome of a placement attempt.
type PlacementResult struct {
	Status    string                `json:"status"`
	Entry     *models.ScheduleEntry `json:"entry,omitempty"`
	Conflicts []ConflictReason      `json:"conflicts,omitempty"`
}

// AutoScheduleFailure names an offering the greedy pass could not place.
type AutoScheduleFailure struct {
	OfferingID string `json:"offeringId"`
	CourseCode string `json:"courseCode"`
	Reason     string `json:"reason"`
}

// AutoScheduleSummary reports a completed greedy scheduling pass.
type AutoScheduleSummary struct {
	Placed    int                    `json:"placed"`
	Failures  []AutoScheduleFailure  `json:"failures"`
	Entries   []models.ScheduleEntry `json:"entries"`
	Cancelled bool                   `json:"cancelled,omitempty"`
}

// UnavailabilityGridRequest replaces an instructor's unavailability set for a term.
type UnavailabilityGridRequest struct {
	TermID      string   `json:"termId" validate:"required"`
	TimeSlotIDs []string `json:"timeSlotIds" validate:"required"`
}
