package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/models"
)

func TestAutoScheduleGreedyOrder(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	summary, err := scheduler.Run(context.Background(), sessionID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Placed)
	assert.Empty(t, summary.Failures)
	assert.False(t, summary.Cancelled)
	require.Len(t, summary.Entries, 2)

	// CS101 (25 students) fits the smallest hall at the first cell. CS201
	// (40 students) skips the 30-seat hall and lands in Hall B at the same
	// first free cell.
	assert.Equal(t, "off-1", summary.Entries[0].OfferingID)
	assert.Equal(t, "hall-a", summary.Entries[0].HallID)
	assert.Equal(t, "slot-1-08:30", summary.Entries[0].TimeSlotID)
	assert.Equal(t, "off-2", summary.Entries[1].OfferingID)
	assert.Equal(t, "hall-b", summary.Entries[1].HallID)
	assert.Equal(t, "slot-1-08:30", summary.Entries[1].TimeSlotID)
}

func TestAutoScheduleIsDeterministic(t *testing.T) {
	run := func() []models.ScheduleEntry {
		world := newPlannerWorld()
		sessions, sessionID := world.open(t)
		scheduler := NewAutoScheduleService(sessions, world.store, nil)
		summary, err := scheduler.Run(context.Background(), sessionID)
		require.NoError(t, err)
		return summary.Entries
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].OfferingID, second[i].OfferingID)
		assert.Equal(t, first[i].HallID, second[i].HallID)
		assert.Equal(t, first[i].TimeSlotID, second[i].TimeSlotID)
	}
}

func TestAutoScheduleSkipsUndersizedHall(t *testing.T) {
	world := newPlannerWorld()
	world.unplaced = []models.CourseOffering{
		{ID: "off-big", TermID: "term-1", DepartmentID: "dept-1", CourseCode: "CS301", Title: "Databases", InstructorID: "inst-3", StudentCount: 40, DurationSlots: 1},
	}
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	summary, err := scheduler.Run(context.Background(), sessionID)
	require.NoError(t, err)

	require.Len(t, summary.Entries, 1)
	assert.Equal(t, "hall-b", summary.Entries[0].HallID)
	assert.Equal(t, "slot-1-08:30", summary.Entries[0].TimeSlotID)
}

func TestAutoScheduleInstructorUnavailabilityIsAHardSkip(t *testing.T) {
	world := newPlannerWorld()
	for _, day := range models.TeachingDays {
		for _, start := range models.CanonicalStartTimes {
			world.blocked = append(world.blocked, models.InstructorUnavailability{
				ID:           fmt.Sprintf("ua-%d-%s", day, start),
				TermID:       "term-1",
				InstructorID: "inst-1",
				TimeSlotID:   fmt.Sprintf("slot-%d-%s", day, start),
			})
		}
	}
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	summary, err := scheduler.Run(context.Background(), sessionID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Placed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "CS101", summary.Failures[0].CourseCode)
	assert.Contains(t, summary.Failures[0].Reason, "no feasible")
	assert.Equal(t, 1, world.store.count())
}

func TestAutoScheduleNeverDoubleBooksAnInstructor(t *testing.T) {
	world := newPlannerWorld()
	world.unplaced[1].InstructorID = "inst-1"
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	summary, err := scheduler.Run(context.Background(), sessionID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Placed)
	require.Len(t, summary.Entries, 2)

	// CS101 takes Monday 08:30. CS201 shares the instructor, so the whole
	// slot is skipped even though Hall B is free, and it lands at 09:30.
	assert.Equal(t, "slot-1-08:30", summary.Entries[0].TimeSlotID)
	assert.Equal(t, "slot-1-09:30", summary.Entries[1].TimeSlotID)
	assert.Equal(t, "hall-b", summary.Entries[1].HallID)
}

func TestAutoSchedulePicksTightestHallRegardlessOfSourceOrder(t *testing.T) {
	world := newPlannerWorld()
	world.halls = []models.Hall{
		{ID: "hall-b", Name: "Hall B", Capacity: 50, IsShared: true},
		{ID: "hall-a", Name: "Hall A", Capacity: 30, IsShared: true},
	}
	world.unplaced = world.unplaced[:1]
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	summary, err := scheduler.Run(context.Background(), sessionID)
	require.NoError(t, err)

	require.Len(t, summary.Entries, 1)
	assert.Equal(t, "hall-a", summary.Entries[0].HallID)
	assert.Equal(t, "slot-1-08:30", summary.Entries[0].TimeSlotID)
}

func TestAutoScheduleWriteRejectionMovesToNextCandidate(t *testing.T) {
	world := newPlannerWorld()
	world.unplaced = world.unplaced[:1]
	rejected := false
	world.store.reject = func(entry *models.ScheduleEntry) error {
		if !rejected && entry.HallID == "hall-a" {
			rejected = true
			return &pq.Error{Code: "23505"}
		}
		return nil
	}
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	summary, err := scheduler.Run(context.Background(), sessionID)
	require.NoError(t, err)

	assert.Empty(t, summary.Failures)
	require.Len(t, summary.Entries, 1)
	assert.Equal(t, "hall-b", summary.Entries[0].HallID)
	assert.Equal(t, "slot-1-08:30", summary.Entries[0].TimeSlotID)
}

func TestAutoScheduleHonoursCancellationBetweenOfferings(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)
	scheduler := NewAutoScheduleService(sessions, world.store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := scheduler.Run(ctx, sessionID)
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 0, summary.Placed)
	assert.Equal(t, 0, world.store.count())
}
