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

// HallHandler exposes lecture hall endpoints.
type HallHandler struct {
	service *service.HallService
}

// NewHallHandler constructs a hall handler.
func NewHallHandler(svc *service.HallService) *HallHandler {
	return &HallHandler{service: svc}
}

// List godoc
// @Summary List halls
// @Tags Halls
// @Produce json
// @Param type query string false "Filter by hall type"
// @Param departmentId query string false "Filter by owning department"
// @Param isShared query bool false "Filter by shared flag"
// @Param minCapacity query int false "Minimum capacity"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /halls [get]
func (h *HallHandler) List(c *gin.Context) {
	var filter models.HallFilter
	if hallType := c.Query("type"); hallType != "" {
		filter.Type = models.HallType(hallType)
	}
	filter.DepartmentID = c.Query("departmentId")
	if isShared := c.Query("isShared"); isShared != "" {
		if val, err := strconv.ParseBool(isShared); err == nil {
			filter.IsShared = &val
		}
	}
	if minCapacity, err := strconv.Atoi(c.DefaultQuery("minCapacity", "0")); err == nil {
		filter.MinCapacity = minCapacity
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	halls, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, halls, pagination)
}

// Get godoc
// @Summary Get hall
// @Tags Halls
// @Produce json
// @Param id path string true "Hall ID"
// @Success 200 {object} response.Envelope
// @Router /halls/{id} [get]
func (h *HallHandler) Get(c *gin.Context) {
	hall, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hall, nil)
}

// Create godoc
// @Summary Create hall
// @Tags Halls
// @Accept json
// @Produce json
// @Param payload body models.Hall true "Hall payload"
// @Success 201 {object} response.Envelope
// @Router /halls [post]
func (h *HallHandler) Create(c *gin.Context) {
	var hall models.Hall
	if err := c.ShouldBindJSON(&hall); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), &hall)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update hall
// @Tags Halls
// @Accept json
// @Produce json
// @Param id path string true "Hall ID"
// @Param payload body models.Hall true "Hall payload"
// @Success 200 {object} response.Envelope
// @Router /halls/{id} [put]
func (h *HallHandler) Update(c *gin.Context) {
	var hall models.Hall
	if err := c.ShouldBindJSON(&hall); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hall.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), &hall)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete hall
// @Tags Halls
// @Produce json
// @Param id path string true "Hall ID"
// @Success 204 {object} response.Envelope
// @Router /halls/{id} [delete]
func (h *HallHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
