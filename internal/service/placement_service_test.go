package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

func TestPlaceCleanCellPersistsEntry(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	result, err := placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.NoError(t, err)

	assert.Equal(t, dto.PlacementStatusPlaced, result.Status)
	require.NotNil(t, result.Entry)
	assert.Equal(t, "slot-1-08:30", result.Entry.TimeSlotID)
	assert.Equal(t, models.WeekPatternEvery, result.Entry.WeekPattern)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, 1, world.store.count())
}

func TestPlaceOccupiedCellIsRefusedWithoutWrite(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	_, err := placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.NoError(t, err)

	// Same hall and cell again, even with confirmation.
	_, err = placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-2",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
		Confirm:    true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomOccupied.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, world.store.count())
}

func TestPlaceOverridableConflictNeedsConfirmation(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	// 40 students into the 30-seat hall without confirmation.
	result, err := placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-2",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.NoError(t, err)
	assert.Equal(t, dto.PlacementStatusConfirmationRequired, result.Status)
	assert.Nil(t, result.Entry)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, dto.ReasonCapacityExceeded, result.Conflicts[0].Code)
	assert.Equal(t, 0, world.store.count(), "declining confirmation must leave no entry")

	// The offering is still unplaced, so the confirmed retry succeeds.
	result, err = placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-2",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
		Confirm:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, dto.PlacementStatusPlaced, result.Status)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, 1, world.store.count())
}

func TestPlaceUnresolvableSlotFails(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	_, err := placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "12:30",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, world.store.count())
}

func TestPlaceMapsUniqueViolationToRoomOccupied(t *testing.T) {
	world := newPlannerWorld()
	world.store.reject = func(entry *models.ScheduleEntry) error {
		return &pq.Error{Code: "23505"}
	}
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	_, err := placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomOccupied.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, world.store.count())
}

func TestEvaluateIsDryRun(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	report, err := placements.Evaluate(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-2",
		HallID:     "hall-a",
		DayOfWeek:  models.DayFriday,
		StartTime:  "16:30",
	})
	require.NoError(t, err)
	require.Len(t, report.Reasons, 1)
	assert.Equal(t, dto.ReasonCapacityExceeded, report.Reasons[0].Code)
	assert.Equal(t, 0, world.store.count())
}

func TestRemoveRestoresOfferingToUnplaced(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	result, err := placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.NoError(t, err)

	require.NoError(t, placements.Remove(context.Background(), sessionID, result.Entry.ID))
	assert.Equal(t, 0, world.store.count())

	opts, err := sessions.Options(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, opts.Unplaced, 2)
	assert.Equal(t, "CS101", opts.Unplaced[0].CourseCode)
	assert.Empty(t, opts.Entries)

	// The freed cell accepts a placement again.
	_, err = placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.NoError(t, err)
}

func TestRemoveCrossDepartmentEntryFreesCellWithoutAdoptingOffering(t *testing.T) {
	world := newPlannerWorld()
	entry := models.ScheduleEntry{
		ID:          "entry-ee",
		TermID:      "term-1",
		OfferingID:  "off-ee",
		TimeSlotID:  "slot-1-08:30",
		HallID:      "hall-a",
		WeekPattern: models.WeekPatternEvery,
	}
	world.store.created = append(world.store.created, entry)
	world.entries = []models.ScheduleEntryDetail{{
		ScheduleEntry: entry,
		CourseCode:    "EE150",
		CourseTitle:   "Circuits",
		DepartmentID:  "dept-2",
		InstructorID:  "inst-9",
		StudentCount:  20,
	}}
	sessions, sessionID := world.open(t)
	placements := NewPlacementService(sessions, world.store, nil, nil)

	require.NoError(t, placements.Remove(context.Background(), sessionID, "entry-ee"))
	assert.Equal(t, 0, world.store.count())

	// The foreign offering does not join this department's unplaced pool,
	// but the cell it held is free again.
	opts, err := sessions.Options(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, opts.Unplaced, 2)
	for _, offering := range opts.Unplaced {
		assert.NotEqual(t, "off-ee", offering.ID)
	}
	assert.Empty(t, opts.Entries)

	_, err = placements.Place(context.Background(), sessionID, dto.PlacementRequest{
		OfferingID: "off-1",
		HallID:     "hall-a",
		DayOfWeek:  models.DayMonday,
		StartTime:  "08:30",
	})
	require.NoError(t, err)
}
