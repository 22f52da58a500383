package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/service"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

// PlannerHandler exposes the interactive planning endpoints: session
// lifecycle, manual placements and the greedy auto-scheduler.
type PlannerHandler struct {
	sessions   *service.PlannerSessionService
	placements *service.PlacementService
	scheduler  *service.AutoScheduleService
	metrics    *service.MetricsService
}

// NewPlannerHandler constructs a planner handler.
func NewPlannerHandler(
	sessions *service.PlannerSessionService,
	placements *service.PlacementService,
	scheduler *service.AutoScheduleService,
	metrics *service.MetricsService,
) *PlannerHandler {
	return &PlannerHandler{
		sessions:   sessions,
		placements: placements,
		scheduler:  scheduler,
		metrics:    metrics,
	}
}

// OpenSession godoc
// @Summary Open a planning session
// @Description Load the planning snapshot for a term and department
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Session scope"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions [post]
func (h *PlannerHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	session, err := h.sessions.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Options godoc
// @Summary Planning grid payload
// @Description Days, start times, halls, unplaced offerings and current entries
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/options [get]
func (h *PlannerHandler) Options(c *gin.Context) {
	opts, err := h.sessions.Options(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opts, nil)
}

// RoomOptions godoc
// @Summary Room options for a grid cell
// @Description Per-hall conflict classification for dropping an offering at (day, time)
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param offeringId query string true "Offering ID"
// @Param day query int true "Day of week (1-5)"
// @Param time query string true "Start time HH:MM"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/room-options [get]
func (h *PlannerHandler) RoomOptions(c *gin.Context) {
	day, err := strconv.Atoi(c.Query("day"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be an integer"))
		return
	}

	options, err := h.sessions.RoomOptions(c.Request.Context(), c.Param("sessionId"), c.Query("offeringId"), day, c.Query("time"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// GetSession godoc
// @Summary Session metadata
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions/{sessionId} [get]
func (h *PlannerHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Describe(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// RefreshSession godoc
// @Summary Reload session snapshot
// @Description Discard local planning state and reload from storage
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/refresh [post]
func (h *PlannerHandler) RefreshSession(c *gin.Context) {
	session, err := h.sessions.Refresh(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// CloseSession godoc
// @Summary Close a planning session
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions/{sessionId} [delete]
func (h *PlannerHandler) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Request.Context(), c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Place godoc
// @Summary Place an offering
// @Description Place an offering into a hall at a grid cell; overridable conflicts need confirm=true
// @Tags Planner
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.PlacementRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/placements [post]
func (h *PlannerHandler) Place(c *gin.Context) {
	var req dto.PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}

	result, err := h.placements.Place(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		h.metrics.RecordPlacement("rejected")
		response.Error(c, err)
		return
	}
	if result.Status == dto.PlacementStatusPlaced {
		h.metrics.RecordPlacement("placed")
	} else {
		h.metrics.RecordPlacement("confirmation_required")
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Evaluate godoc
// @Summary Evaluate a candidate placement
// @Description Classify conflicts for a candidate cell without writing
// @Tags Planner
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.PlacementRequest true "Candidate payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/evaluate [post]
func (h *PlannerHandler) Evaluate(c *gin.Context) {
	var req dto.PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}

	report, err := h.placements.Evaluate(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// RemovePlacement godoc
// @Summary Remove a placement
// @Description Delete a schedule entry and return its offering to the unplaced pool
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param entryId path string true "Schedule entry ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/placements/{entryId} [delete]
func (h *PlannerHandler) RemovePlacement(c *gin.Context) {
	if err := h.placements.Remove(c.Request.Context(), c.Param("sessionId"), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AutoSchedule godoc
// @Summary Run the auto-scheduler
// @Description Greedy one-pass placement of all unplaced offerings in the session
// @Tags Planner
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/sessions/{sessionId}/auto-schedule [post]
func (h *PlannerHandler) AutoSchedule(c *gin.Context) {
	start := time.Now()
	summary, err := h.scheduler.Run(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveAutoSchedule(time.Since(start))
	response.JSON(c, http.StatusOK, summary, nil)
}
