package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
)

func TestEvaluateConflictsCleanCell(t *testing.T) {
	world := newPlannerWorld()
	snap := buildSnapshot(world.term.ID, world.dept.ID, world.slots, world.halls, world.unplaced, nil, nil)
	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)

	report := evaluateConflicts(snap, world.unplaced[0], world.halls[0], *slot, models.WeekPatternEvery)

	assert.Equal(t, dto.SeverityOK, report.Severity)
	assert.Empty(t, report.Reasons)
	assert.True(t, report.Overridable())
}

func TestEvaluateConflictsCapacityIsOverridableAndNeverRoomOccupied(t *testing.T) {
	world := newPlannerWorld()
	snap := buildSnapshot(world.term.ID, world.dept.ID, world.slots, world.halls, world.unplaced, nil, nil)
	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)

	// 40 students into the 30-seat hall.
	report := evaluateConflicts(snap, world.unplaced[1], world.halls[0], *slot, models.WeekPatternEvery)

	assert.Equal(t, dto.SeverityBlocking, report.Severity)
	require.Len(t, report.Reasons, 1)
	assert.Equal(t, dto.ReasonCapacityExceeded, report.Reasons[0].Code)
	assert.True(t, report.Reasons[0].Overridable)
	assert.True(t, report.Overridable())
	for _, reason := range report.Reasons {
		assert.NotEqual(t, dto.ReasonRoomOccupied, reason.Code)
	}
}

func TestEvaluateConflictsRoomOccupiedSuppressesOtherReasons(t *testing.T) {
	world := newPlannerWorld()
	occupied := []models.ScheduleEntryDetail{{
		ScheduleEntry: models.ScheduleEntry{
			ID:          "entry-existing",
			TermID:      world.term.ID,
			OfferingID:  "off-other",
			TimeSlotID:  "slot-1-08:30",
			HallID:      "hall-a",
			WeekPattern: models.WeekPatternEvery,
		},
		CourseCode: "MA110",
	}}
	snap := buildSnapshot(world.term.ID, world.dept.ID, world.slots, world.halls, world.unplaced, occupied, nil)
	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)

	// Offering too big for the hall AND the hall is taken. Only the
	// double-booking is reported.
	report := evaluateConflicts(snap, world.unplaced[1], world.halls[0], *slot, models.WeekPatternEvery)

	assert.Equal(t, dto.SeverityBlocking, report.Severity)
	require.Len(t, report.Reasons, 1)
	assert.Equal(t, dto.ReasonRoomOccupied, report.Reasons[0].Code)
	assert.False(t, report.Reasons[0].Overridable)
	assert.False(t, report.Overridable())
	assert.Contains(t, report.Reasons[0].Message, "MA110")
}

func TestEvaluateConflictsInstructorUnavailableIsWarning(t *testing.T) {
	world := newPlannerWorld()
	blocked := []models.InstructorUnavailability{
		{ID: "ua-1", TermID: world.term.ID, InstructorID: "inst-1", TimeSlotID: "slot-1-08:30"},
	}
	snap := buildSnapshot(world.term.ID, world.dept.ID, world.slots, world.halls, world.unplaced, nil, blocked)
	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)

	report := evaluateConflicts(snap, world.unplaced[0], world.halls[0], *slot, models.WeekPatternEvery)

	assert.Equal(t, dto.SeverityWarning, report.Severity)
	require.Len(t, report.Reasons, 1)
	assert.Equal(t, dto.ReasonInstructorUnavailable, report.Reasons[0].Code)
	assert.True(t, report.Reasons[0].Overridable)
}

func TestEvaluateConflictsInstructorAlreadyTeachingIsWarning(t *testing.T) {
	world := newPlannerWorld()
	occupied := []models.ScheduleEntryDetail{{
		ScheduleEntry: models.ScheduleEntry{
			ID:          "entry-existing",
			TermID:      world.term.ID,
			OfferingID:  "off-other",
			TimeSlotID:  "slot-1-08:30",
			HallID:      "hall-b",
			WeekPattern: models.WeekPatternEvery,
		},
		CourseCode:   "MA110",
		InstructorID: "inst-1",
	}}
	snap := buildSnapshot(world.term.ID, world.dept.ID, world.slots, world.halls, world.unplaced, occupied, nil)
	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)

	// inst-1 already teaches MA110 in Hall B at this slot; Hall A itself is
	// free and big enough.
	report := evaluateConflicts(snap, world.unplaced[0], world.halls[0], *slot, models.WeekPatternEvery)

	assert.Equal(t, dto.SeverityWarning, report.Severity)
	require.Len(t, report.Reasons, 1)
	assert.Equal(t, dto.ReasonInstructorConflict, report.Reasons[0].Code)
	assert.True(t, report.Reasons[0].Overridable)
	assert.Contains(t, report.Reasons[0].Message, "MA110")

	// A different instructor at the same slot is unaffected.
	other := evaluateConflicts(snap, world.unplaced[1], world.halls[1], *slot, models.WeekPatternEvery)
	for _, reason := range other.Reasons {
		assert.NotEqual(t, dto.ReasonInstructorConflict, reason.Code)
	}
}

func TestEvaluateConflictsDisjointWeekPatternsShareACell(t *testing.T) {
	world := newPlannerWorld()
	occupied := []models.ScheduleEntryDetail{{
		ScheduleEntry: models.ScheduleEntry{
			ID:          "entry-existing",
			TermID:      world.term.ID,
			OfferingID:  "off-other",
			TimeSlotID:  "slot-1-08:30",
			HallID:      "hall-a",
			WeekPattern: models.WeekPatternOdd,
		},
		CourseCode: "MA110",
	}}
	snap := buildSnapshot(world.term.ID, world.dept.ID, world.slots, world.halls, world.unplaced, occupied, nil)
	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)

	even := evaluateConflicts(snap, world.unplaced[0], world.halls[0], *slot, models.WeekPatternEven)
	assert.Empty(t, even.Reasons)

	every := evaluateConflicts(snap, world.unplaced[0], world.halls[0], *slot, models.WeekPatternEvery)
	require.Len(t, every.Reasons, 1)
	assert.Equal(t, dto.ReasonRoomOccupied, every.Reasons[0].Code)
}
