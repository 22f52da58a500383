package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/models"
	"github.com/campusplan/timetable-api/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stubTermReader struct{ term models.Term }

func (s *stubTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if id == s.term.ID {
		return &s.term, nil
	}
	return nil, sql.ErrNoRows
}

type stubDepartmentReader struct{ dept models.Department }

func (s *stubDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if id == s.dept.ID {
		return &s.dept, nil
	}
	return nil, sql.ErrNoRows
}

type stubHallSource struct{ halls []models.Hall }

func (s *stubHallSource) ListSchedulable(ctx context.Context, departmentID string) ([]models.Hall, error) {
	return s.halls, nil
}

type stubSlotSource struct{ slots []models.TimeSlot }

func (s *stubSlotSource) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	return s.slots, nil
}

type stubOfferingSource struct{ offerings []models.CourseOffering }

func (s *stubOfferingSource) ListUnplaced(ctx context.Context, termID, departmentID string) ([]models.CourseOffering, error) {
	return s.offerings, nil
}

type stubEntrySource struct{}

func (s *stubEntrySource) ListDetailsForPlanner(ctx context.Context, termID string) ([]models.ScheduleEntryDetail, error) {
	return nil, nil
}

type stubUnavailabilitySource struct{}

func (s *stubUnavailabilitySource) ListUnavailabilityByTerm(ctx context.Context, termID string) ([]models.InstructorUnavailability, error) {
	return nil, nil
}

type stubEntryWriter struct {
	seq     int
	entries []models.ScheduleEntry
}

func (s *stubEntryWriter) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	s.seq++
	entry.ID = fmt.Sprintf("entry-%d", s.seq)
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubEntryWriter) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubEntryWriter) Delete(ctx context.Context, id string) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func newTestPlannerHandler(t *testing.T) (*PlannerHandler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var slots []models.TimeSlot
	for _, day := range models.TeachingDays {
		for _, start := range models.CanonicalStartTimes {
			slots = append(slots, models.TimeSlot{
				ID:        fmt.Sprintf("slot-%d-%s", day, start),
				DayOfWeek: day,
				StartTime: start + ":00",
			})
		}
	}

	sessions := service.NewPlannerSessionService(
		&stubTermReader{term: models.Term{ID: "term-1"}},
		&stubDepartmentReader{dept: models.Department{ID: "dept-1"}},
		&stubHallSource{halls: []models.Hall{{ID: "hall-a", Name: "Hall A", Capacity: 60, IsShared: true}}},
		&stubSlotSource{slots: slots},
		&stubOfferingSource{offerings: []models.CourseOffering{
			{ID: "off-1", TermID: "term-1", DepartmentID: "dept-1", CourseCode: "CS101", Title: "Programming I", InstructorID: "inst-1", StudentCount: 30},
		}},
		&stubEntrySource{},
		&stubUnavailabilitySource{},
		nil, nil,
		service.PlannerSessionConfig{},
	)
	store := &stubEntryWriter{}
	placements := service.NewPlacementService(sessions, store, nil, nil)
	scheduler := service.NewAutoScheduleService(sessions, store, nil)
	plannerHandler := NewPlannerHandler(sessions, placements, scheduler, service.NewMetricsService())

	r := gin.New()
	r.POST("/planner/sessions", plannerHandler.OpenSession)
	r.GET("/planner/sessions/:sessionId/options", plannerHandler.Options)
	r.POST("/planner/sessions/:sessionId/placements", plannerHandler.Place)
	r.POST("/planner/sessions/:sessionId/auto-schedule", plannerHandler.AutoSchedule)
	return plannerHandler, r
}

func openTestSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"termId":"term-1","departmentId":"dept-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/planner/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var session struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.SessionID)
	return session.SessionID
}

func TestPlannerHandlerOpenSessionRejectsBadPayload(t *testing.T) {
	_, r := newTestPlannerHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/planner/sessions", bytes.NewBufferString(`{`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlannerHandlerPlacementFlow(t *testing.T) {
	_, r := newTestPlannerHandler(t)
	sessionID := openTestSession(t, r)

	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"offeringId":"off-1","hallId":"hall-a","dayOfWeek":1,"startTime":"08:30"}`)
	req := httptest.NewRequest(http.MethodPost, "/planner/sessions/"+sessionID+"/placements", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var result struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "placed", result.Status)

	// The offering left the unplaced pool.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/planner/sessions/"+sessionID+"/options", nil)
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var opts struct {
		Unplaced []models.CourseOffering      `json:"unplacedOfferings"`
		Entries  []models.ScheduleEntryDetail `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &opts))
	assert.Empty(t, opts.Unplaced)
	assert.Len(t, opts.Entries, 1)
}

func TestPlannerHandlerOccupiedCellConflicts(t *testing.T) {
	_, r := newTestPlannerHandler(t)
	sessionID := openTestSession(t, r)

	payload := `{"offeringId":"off-1","hallId":"hall-a","dayOfWeek":1,"startTime":"08:30"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/planner/sessions/"+sessionID+"/placements", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Placing the same offering again fails because it is no longer unplaced.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/planner/sessions/"+sessionID+"/placements", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlannerHandlerSessionNotFound(t *testing.T) {
	_, r := newTestPlannerHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/planner/sessions/unknown/options", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlannerHandlerAutoSchedule(t *testing.T) {
	_, r := newTestPlannerHandler(t)
	sessionID := openTestSession(t, r)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/planner/sessions/"+sessionID+"/auto-schedule", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var summary struct {
		Placed   int `json:"placed"`
		Failures []struct {
			CourseCode string `json:"courseCode"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Placed)
	assert.Empty(t, summary.Failures)
}
