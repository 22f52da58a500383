package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/models"
	"github.com/campusplan/timetable-api/internal/service"
	"github.com/campusplan/timetable-api/pkg/response"
)

// ScheduleEntryHandler exposes the published timetable outside of sessions.
type ScheduleEntryHandler struct {
	service *service.ScheduleEntryService
}

// NewScheduleEntryHandler constructs a schedule entry handler.
func NewScheduleEntryHandler(svc *service.ScheduleEntryService) *ScheduleEntryHandler {
	return &ScheduleEntryHandler{service: svc}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedule
// @Produce json
// @Param termId query string false "Filter by term"
// @Param hallId query string false "Filter by hall"
// @Param instructorId query string false "Filter by instructor"
// @Param dayOfWeek query int false "Filter by day 1-5"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleEntryHandler) List(c *gin.Context) {
	var filter models.ScheduleEntryFilter
	filter.TermID = c.Query("termId")
	filter.OfferingID = c.Query("offeringId")
	filter.HallID = c.Query("hallId")
	filter.InstructorID = c.Query("instructorId")
	if day, err := strconv.Atoi(c.DefaultQuery("dayOfWeek", "0")); err == nil {
		filter.DayOfWeek = day
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get schedule entry
// @Tags Schedule
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/{id} [get]
func (h *ScheduleEntryHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete schedule entry
// @Tags Schedule
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204 {object} response.Envelope
// @Router /schedule/{id} [delete]
func (h *ScheduleEntryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
