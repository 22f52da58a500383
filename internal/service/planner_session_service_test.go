package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type fakeTermReader struct{ term *models.Term }

func (f *fakeTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if f.term != nil && f.term.ID == id {
		return f.term, nil
	}
	return nil, sql.ErrNoRows
}

type fakeDepartmentReader struct{ dept *models.Department }

func (f *fakeDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if f.dept != nil && f.dept.ID == id {
		return f.dept, nil
	}
	return nil, sql.ErrNoRows
}

type fakeHallSource struct{ halls []models.Hall }

func (f *fakeHallSource) ListSchedulable(ctx context.Context, departmentID string) ([]models.Hall, error) {
	return f.halls, nil
}

type fakeSlotSource struct{ slots []models.TimeSlot }

func (f *fakeSlotSource) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	return f.slots, nil
}

type fakeOfferingSource struct{ offerings []models.CourseOffering }

func (f *fakeOfferingSource) ListUnplaced(ctx context.Context, termID, departmentID string) ([]models.CourseOffering, error) {
	return f.offerings, nil
}

type fakeEntrySource struct{ details []models.ScheduleEntryDetail }

func (f *fakeEntrySource) ListDetailsForPlanner(ctx context.Context, termID string) ([]models.ScheduleEntryDetail, error) {
	return f.details, nil
}

type fakeUnavailabilitySource struct{ records []models.InstructorUnavailability }

func (f *fakeUnavailabilitySource) ListUnavailabilityByTerm(ctx context.Context, termID string) ([]models.InstructorUnavailability, error) {
	return f.records, nil
}

// fakeEntryStore stands in for the schedule entry repository. An optional
// reject hook lets tests simulate database-side write rejections.
type fakeEntryStore struct {
	mu      sync.Mutex
	seq     int
	created []models.ScheduleEntry
	reject  func(entry *models.ScheduleEntry) error
}

func (f *fakeEntryStore) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject != nil {
		if err := f.reject(entry); err != nil {
			return err
		}
	}
	f.seq++
	entry.ID = fmt.Sprintf("entry-%d", f.seq)
	f.created = append(f.created, *entry)
	return nil
}

func (f *fakeEntryStore) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.created {
		if f.created[i].ID == id {
			entry := f.created[i]
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEntryStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.created {
		if f.created[i].ID == id {
			f.created = append(f.created[:i], f.created[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeEntryStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// plannerWorld is the mutable test fixture behind a planner session.
type plannerWorld struct {
	term     models.Term
	dept     models.Department
	slots    []models.TimeSlot
	halls    []models.Hall
	unplaced []models.CourseOffering
	entries  []models.ScheduleEntryDetail
	blocked  []models.InstructorUnavailability
	store    *fakeEntryStore
	ttl      time.Duration
}

func canonicalSlots() []models.TimeSlot {
	var slots []models.TimeSlot
	for _, day := range models.TeachingDays {
		for _, start := range models.CanonicalStartTimes {
			slots = append(slots, models.TimeSlot{
				ID:        fmt.Sprintf("slot-%d-%s", day, start),
				DayOfWeek: day,
				StartTime: start + ":00",
				EndTime:   slotEnd(start) + ":00",
			})
		}
	}
	return slots
}

func newPlannerWorld() *plannerWorld {
	return &plannerWorld{
		term:  models.Term{ID: "term-1", Name: "Winter", AcademicYear: "2026/27", IsActive: true},
		dept:  models.Department{ID: "dept-1", Code: "CS", Name: "Computer Science"},
		slots: canonicalSlots(),
		halls: []models.Hall{
			{ID: "hall-a", Name: "Hall A", Capacity: 30, IsShared: true},
			{ID: "hall-b", Name: "Hall B", Capacity: 50, IsShared: true},
		},
		unplaced: []models.CourseOffering{
			{ID: "off-1", TermID: "term-1", DepartmentID: "dept-1", CourseCode: "CS101", Title: "Programming I", InstructorID: "inst-1", StudentCount: 25, DurationSlots: 1},
			{ID: "off-2", TermID: "term-1", DepartmentID: "dept-1", CourseCode: "CS201", Title: "Algorithms", InstructorID: "inst-2", StudentCount: 40, DurationSlots: 1},
		},
		store: &fakeEntryStore{},
	}
}

func (w *plannerWorld) open(t *testing.T) (*PlannerSessionService, string) {
	t.Helper()
	sessions := NewPlannerSessionService(
		&fakeTermReader{term: &w.term},
		&fakeDepartmentReader{dept: &w.dept},
		&fakeHallSource{halls: w.halls},
		&fakeSlotSource{slots: w.slots},
		&fakeOfferingSource{offerings: w.unplaced},
		&fakeEntrySource{details: w.entries},
		&fakeUnavailabilitySource{records: w.blocked},
		nil, nil,
		PlannerSessionConfig{SessionTTL: w.ttl},
	)
	session, err := sessions.Open(context.Background(), dto.OpenSessionRequest{
		TermID:       w.term.ID,
		DepartmentID: w.dept.ID,
	})
	require.NoError(t, err)
	return sessions, session.SessionID
}

func TestOpenSessionLoadsOptions(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)

	opts, err := sessions.Options(context.Background(), sessionID)
	require.NoError(t, err)

	assert.Equal(t, models.TeachingDays, opts.Days)
	assert.Equal(t, models.CanonicalStartTimes, opts.StartTimes)
	assert.Len(t, opts.TimeSlots, 40)
	assert.Len(t, opts.Halls, 2)
	require.Len(t, opts.Unplaced, 2)
	assert.Equal(t, "CS101", opts.Unplaced[0].CourseCode)
	assert.Empty(t, opts.Entries)
}

func TestOpenSessionRejectsUnknownTerm(t *testing.T) {
	world := newPlannerWorld()
	sessions, _ := world.open(t)

	_, err := sessions.Open(context.Background(), dto.OpenSessionRequest{
		TermID:       "term-missing",
		DepartmentID: world.dept.ID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveSlotIsIdempotent(t *testing.T) {
	snap := buildSnapshot("term-1", "dept-1", canonicalSlots(), nil, nil, nil, nil)

	first, ok := snap.resolveSlot(models.DayTuesday, "09:30")
	require.True(t, ok)
	second, ok := snap.resolveSlot(models.DayTuesday, "09:30")
	require.True(t, ok)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "slot-2-09:30", first.ID)
}

func TestResolveSlotMatchesStoredSecondsByPrefix(t *testing.T) {
	snap := buildSnapshot("term-1", "dept-1", canonicalSlots(), nil, nil, nil, nil)

	slot, ok := snap.resolveSlot(models.DayMonday, "08:30")
	require.True(t, ok)
	assert.Equal(t, "08:30:00", slot.StartTime)

	_, ok = snap.resolveSlot(models.DayMonday, "12:30")
	assert.False(t, ok, "lunch break has no slot")
	_, ok = snap.resolveSlot(6, "08:30")
	assert.False(t, ok, "weekend has no slots")
}

func TestSessionExpiryClosesSession(t *testing.T) {
	world := newPlannerWorld()
	world.ttl = time.Nanosecond
	sessions, sessionID := world.open(t)

	time.Sleep(time.Millisecond)

	_, err := sessions.Options(context.Background(), sessionID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionClosed.Code, appErrors.FromError(err).Code)
}

func TestRoomOptionsClassifyEveryHallForACell(t *testing.T) {
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

	options, err := sessions.RoomOptions(context.Background(), sessionID, "off-2", models.DayMonday, "08:30")
	require.NoError(t, err)
	require.Len(t, options, 2)

	// Halls come back capacity ascending. The taken hall reports only the
	// double-booking; the free one is clean for 40 students.
	assert.Equal(t, "hall-a", options[0].Hall.ID)
	require.Len(t, options[0].Report.Reasons, 1)
	assert.Equal(t, dto.ReasonRoomOccupied, options[0].Report.Reasons[0].Code)
	assert.False(t, options[0].Report.Overridable())
	assert.Equal(t, "hall-b", options[1].Hall.ID)
	assert.Equal(t, dto.SeverityOK, options[1].Report.Severity)
	assert.Empty(t, options[1].Report.Reasons)
}

func TestRoomOptionsFailWhenSlotCannotBeResolved(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)

	_, err := sessions.RoomOptions(context.Background(), sessionID, "off-1", models.DayMonday, "12:30")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotNotFound.Code, appErrors.FromError(err).Code)

	_, err = sessions.RoomOptions(context.Background(), sessionID, "off-missing", models.DayMonday, "08:30")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDescribeReturnsSessionMetadata(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)

	described, err := sessions.Describe(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, described.SessionID)
	assert.Equal(t, "term-1", described.TermID)
	assert.Equal(t, "dept-1", described.DepartmentID)
	assert.True(t, described.ExpiresAt.After(described.CreatedAt))
}

func TestCloseSessionDiscardsState(t *testing.T) {
	world := newPlannerWorld()
	sessions, sessionID := world.open(t)

	require.NoError(t, sessions.Close(context.Background(), sessionID))

	_, err := sessions.Options(context.Background(), sessionID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionClosed.Code, appErrors.FromError(err).Code)
}

func TestRefreshReloadsSnapshotFromStorage(t *testing.T) {
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

	opts, err := sessions.Options(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, opts.Unplaced, 1)

	// The fake sources still report both offerings unplaced, so a refresh
	// rolls the snapshot back to what storage says.
	_, err = sessions.Refresh(context.Background(), sessionID)
	require.NoError(t, err)

	opts, err = sessions.Options(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, opts.Unplaced, 2)
}
