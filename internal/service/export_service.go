package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/export"
)

type exportEntrySource interface {
	ListDetailsForPlanner(ctx context.Context, termID string) ([]models.ScheduleEntryDetail, error)
}

type exportTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// ExportService renders the published timetable of a term as CSV or PDF.
type ExportService struct {
	entries  exportEntrySource
	terms    exportTermReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewExportService constructs an export service.
func NewExportService(entries exportEntrySource, terms exportTermReader, cache *CacheService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		entries:  entries,
		terms:    terms,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cache:    cache,
		cacheTTL: 10 * time.Minute,
		logger:   logger,
	}
}

// ExportCSV renders the term timetable as a flat CSV listing.
func (s *ExportService) ExportCSV(ctx context.Context, termID string) ([]byte, string, error) {
	key := "timetable:" + termID + ":csv"
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, s.filename(ctx, termID, "csv"), nil
	}

	details, err := s.loadDetails(ctx, termID)
	if err != nil {
		return nil, "", err
	}
	data := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Course Code", "Course Title", "Instructor", "Hall", "Students", "Capacity", "Weeks"},
	}
	for _, d := range details {
		data.Rows = append(data.Rows, map[string]string{
			"Day":          models.DayNames[d.DayOfWeek],
			"Start":        clock(d.StartTime),
			"End":          clock(d.EndTime),
			"Course Code":  d.CourseCode,
			"Course Title": d.CourseTitle,
			"Instructor":   d.InstructorName,
			"Hall":         d.HallName,
			"Students":     fmt.Sprintf("%d", d.StudentCount),
			"Capacity":     fmt.Sprintf("%d", d.HallCapacity),
			"Weeks":        weekLabel(d.WeekPattern),
		})
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	s.toCache(ctx, key, payload)
	return payload, s.filename(ctx, termID, "csv"), nil
}

// ExportPDF renders the term timetable as a weekly grid PDF.
func (s *ExportService) ExportPDF(ctx context.Context, termID string) ([]byte, string, error) {
	key := "timetable:" + termID + ":pdf"
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, s.filename(ctx, termID, "pdf"), nil
	}

	details, err := s.loadDetails(ctx, termID)
	if err != nil {
		return nil, "", err
	}
	grid := export.Grid{
		Times: models.CanonicalStartTimes,
		Cells: make(map[string]map[string][]string),
	}
	for _, day := range models.TeachingDays {
		name := models.DayNames[day]
		grid.Days = append(grid.Days, name)
		grid.Cells[name] = make(map[string][]string)
	}
	legend := map[string]bool{}
	for _, d := range details {
		name := models.DayNames[d.DayOfWeek]
		start := clock(d.StartTime)
		line := fmt.Sprintf("%s %s", d.CourseCode, d.HallName)
		if d.WeekPattern != models.WeekPatternEvery {
			line += " " + weekLabel(d.WeekPattern)
			legend[weekLabel(d.WeekPattern)+" = "+weekDescription(d.WeekPattern)] = true
		}
		grid.Cells[name][start] = append(grid.Cells[name][start], line)
	}
	for day := range grid.Cells {
		for start := range grid.Cells[day] {
			sort.Strings(grid.Cells[day][start])
		}
	}
	for entry := range legend {
		grid.Legend = append(grid.Legend, entry)
	}
	sort.Strings(grid.Legend)

	title := "Weekly Timetable"
	if term, err := s.terms.FindByID(ctx, termID); err == nil {
		title = fmt.Sprintf("Weekly Timetable %s %s", term.Name, term.AcademicYear)
	}
	payload, err := s.pdf.RenderGrid(grid, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	s.toCache(ctx, key, payload)
	return payload, s.filename(ctx, termID, "pdf"), nil
}

func (s *ExportService) loadDetails(ctx context.Context, termID string) ([]models.ScheduleEntryDetail, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	details, err := s.entries.ListDetailsForPlanner(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].DayOfWeek != details[j].DayOfWeek {
			return details[i].DayOfWeek < details[j].DayOfWeek
		}
		if details[i].StartTime != details[j].StartTime {
			return details[i].StartTime < details[j].StartTime
		}
		return details[i].CourseCode < details[j].CourseCode
	})
	return details, nil
}

func (s *ExportService) fromCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil || !s.cache.Enabled() {
		return nil, false
	}
	var payload []byte
	hit, err := s.cache.Get(ctx, key, &payload)
	if err != nil || !hit {
		return nil, false
	}
	return payload, true
}

func (s *ExportService) toCache(ctx context.Context, key string, payload []byte) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.Warn("export_cache_write_failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ExportService) filename(ctx context.Context, termID, ext string) string {
	name := "timetable"
	if term, err := s.terms.FindByID(ctx, termID); err == nil {
		name = fmt.Sprintf("timetable-%s-%s", slug(term.AcademicYear), slug(term.Name))
	}
	return name + "." + ext
}

func clock(value string) string {
	if len(value) >= 5 {
		return value[:5]
	}
	return value
}

func weekLabel(pattern models.WeekPattern) string {
	switch pattern {
	case models.WeekPatternOdd:
		return "(odd)"
	case models.WeekPatternEven:
		return "(even)"
	default:
		return ""
	}
}

func weekDescription(pattern models.WeekPattern) string {
	switch pattern {
	case models.WeekPatternOdd:
		return "odd teaching weeks only"
	case models.WeekPatternEven:
		return "even teaching weeks only"
	default:
		return "every week"
	}
}

func slug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "/", "-")
	return strings.ReplaceAll(value, " ", "-")
}
