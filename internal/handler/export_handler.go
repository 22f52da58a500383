package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/service"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

// ExportHandler serves timetable downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ExportCSV godoc
// @Summary Export timetable as CSV
// @Tags Exports
// @Produce text/csv
// @Param termId query string true "Term ID"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/timetable.csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}

	payload, filename, err := h.service.ExportCSV(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF godoc
// @Summary Export timetable as a weekly grid PDF
// @Tags Exports
// @Produce application/pdf
// @Param termId query string true "Term ID"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/timetable.pdf [get]
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}

	payload, filename, err := h.service.ExportPDF(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", payload)
}
