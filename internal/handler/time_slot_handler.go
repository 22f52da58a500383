package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/models"
	"github.com/campusplan/timetable-api/internal/service"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

// TimeSlotHandler exposes the weekly grid endpoints.
type TimeSlotHandler struct {
	service *service.TimeSlotService
}

// NewTimeSlotHandler constructs a time slot handler.
func NewTimeSlotHandler(svc *service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{service: svc}
}

// List godoc
// @Summary List time slots
// @Tags TimeSlots
// @Produce json
// @Param dayOfWeek query int false "Filter by day 1-5"
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *TimeSlotHandler) List(c *gin.Context) {
	day, _ := strconv.Atoi(c.DefaultQuery("dayOfWeek", "0"))
	slots, err := h.service.List(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Get godoc
// @Summary Get time slot
// @Tags TimeSlots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /time-slots/{id} [get]
func (h *TimeSlotHandler) Get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Create godoc
// @Summary Create time slot
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Param payload body models.TimeSlot true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /time-slots [post]
func (h *TimeSlotHandler) Create(c *gin.Context) {
	var slot models.TimeSlot
	if err := c.ShouldBindJSON(&slot); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), &slot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Delete godoc
// @Summary Delete time slot
// @Tags TimeSlots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 204 {object} response.Envelope
// @Router /time-slots/{id} [delete]
func (h *TimeSlotHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SeedGrid godoc
// @Summary Seed the canonical weekly grid
// @Description Create any missing slots of the 5x8 canonical grid
// @Tags TimeSlots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /time-slots/seed [post]
func (h *TimeSlotHandler) SeedGrid(c *gin.Context) {
	created, err := h.service.EnsureCanonicalGrid(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"created": created}, nil)
}
