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

// CourseOfferingHandler exposes course offering endpoints.
type CourseOfferingHandler struct {
	service *service.CourseOfferingService
}

// NewCourseOfferingHandler constructs a course offering handler.
func NewCourseOfferingHandler(svc *service.CourseOfferingService) *CourseOfferingHandler {
	return &CourseOfferingHandler{service: svc}
}

// List godoc
// @Summary List course offerings
// @Tags Offerings
// @Produce json
// @Param termId query string false "Filter by term"
// @Param departmentId query string false "Filter by department"
// @Param search query string false "Search by code or title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *CourseOfferingHandler) List(c *gin.Context) {
	var filter models.CourseOfferingFilter
	filter.TermID = c.Query("termId")
	filter.DepartmentID = c.Query("departmentId")
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	offerings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, pagination)
}

// ListUnplaced godoc
// @Summary List unplaced offerings
// @Description Offerings of a term and department without a schedule entry
// @Tags Offerings
// @Produce json
// @Param termId query string true "Term ID"
// @Param departmentId query string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/unplaced [get]
func (h *CourseOfferingHandler) ListUnplaced(c *gin.Context) {
	offerings, err := h.service.ListUnplaced(c.Request.Context(), c.Query("termId"), c.Query("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// Get godoc
// @Summary Get course offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *CourseOfferingHandler) Get(c *gin.Context) {
	offering, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Create godoc
// @Summary Create course offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param payload body models.CourseOffering true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /offerings [post]
func (h *CourseOfferingHandler) Create(c *gin.Context) {
	var offering models.CourseOffering
	if err := c.ShouldBindJSON(&offering); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), &offering)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update course offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body models.CourseOffering true "Offering payload"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [put]
func (h *CourseOfferingHandler) Update(c *gin.Context) {
	var offering models.CourseOffering
	if err := c.ShouldBindJSON(&offering); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), &offering)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete course offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 204 {object} response.Envelope
// @Router /offerings/{id} [delete]
func (h *CourseOfferingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
