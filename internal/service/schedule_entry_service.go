package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type scheduleEntryRepository interface {
	ListDetails(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleEntryService exposes read and delete access to the published
// timetable outside of a planning session.
type ScheduleEntryService struct {
	repo   scheduleEntryRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewScheduleEntryService constructs a schedule entry service.
func NewScheduleEntryService(repo scheduleEntryRepository, cache *CacheService, logger *zap.Logger) *ScheduleEntryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleEntryService{repo: repo, cache: cache, logger: logger}
}

// List returns timetable entries joined with course, hall and slot details.
func (s *ScheduleEntryService) List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, *models.Pagination, error) {
	entries, total, err := s.repo.ListDetails(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single timetable entry.
func (s *ScheduleEntryService) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	return entry, nil
}

// Delete removes a timetable entry and invalidates cached exports for its term.
func (s *ScheduleEntryService) Delete(ctx context.Context, id string) error {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, "timetable:"+entry.TermID+":*")
	}
	s.logger.Info("schedule_entry_deleted",
		zap.String("entry_id", entry.ID),
		zap.String("term_id", entry.TermID),
	)
	return nil
}
