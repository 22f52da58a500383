package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type timeSlotRepository interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
	ListByDay(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
}

// TimeSlotService manages the weekly teaching grid.
type TimeSlotService struct {
	repo   timeSlotRepository
	logger *zap.Logger
}

// NewTimeSlotService constructs a time slot service.
func NewTimeSlotService(repo timeSlotRepository, logger *zap.Logger) *TimeSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, logger: logger}
}

// List returns every slot ordered by day then start time. When dayOfWeek is
// non-zero only that day's slots are returned.
func (s *TimeSlotService) List(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error) {
	var (
		slots []models.TimeSlot
		err   error
	)
	if dayOfWeek != 0 {
		if dayOfWeek < models.DayMonday || dayOfWeek > models.DayFriday {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day of week must be between 1 and 5")
		}
		slots, err = s.repo.ListByDay(ctx, dayOfWeek)
	} else {
		slots, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// Get loads a single slot.
func (s *TimeSlotService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	return slot, nil
}

// Create validates and stores a new slot.
func (s *TimeSlotService) Create(ctx context.Context, slot *models.TimeSlot) (*models.TimeSlot, error) {
	if slot.DayOfWeek < models.DayMonday || slot.DayOfWeek > models.DayFriday {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day of week must be between 1 and 5")
	}
	slot.StartTime = normalizeClock(slot.StartTime)
	slot.EndTime = normalizeClock(slot.EndTime)
	if slot.StartTime == "" || slot.EndTime == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start and end times are required as HH:MM")
	}
	if slot.EndTime <= slot.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	return slot, nil
}

// Delete removes a slot.
func (s *TimeSlotService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time slot")
	}
	return nil
}

// EnsureCanonicalGrid creates any missing slots of the standard weekly grid,
// five days by eight lecture starts. Existing slots are left untouched.
func (s *TimeSlotService) EnsureCanonicalGrid(ctx context.Context) (int, error) {
	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	present := make(map[string]bool, len(existing))
	for _, slot := range existing {
		present[fmt.Sprintf("%d|%s", slot.DayOfWeek, normalizeClock(slot.StartTime))] = true
	}

	created := 0
	for _, day := range models.TeachingDays {
		for _, start := range models.CanonicalStartTimes {
			if present[fmt.Sprintf("%d|%s", day, start)] {
				continue
			}
			slot := &models.TimeSlot{
				DayOfWeek: day,
				StartTime: start + ":00",
				EndTime:   slotEnd(start) + ":00",
			}
			if err := s.repo.Create(ctx, slot); err != nil {
				return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed time slot")
			}
			created++
		}
	}
	if created > 0 {
		s.logger.Info("time_slot_grid_seeded", zap.Int("created", created))
	}
	return created, nil
}

// normalizeClock reduces a stored clock value to HH:MM.
func normalizeClock(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 5 {
		return value[:5]
	}
	return value
}

// slotEnd derives the period end from its start. Every teaching period
// lasts one hour.
func slotEnd(start string) string {
	var h, m int
	if _, err := fmt.Sscanf(start, "%d:%d", &h, &m); err != nil {
		return start
	}
	return fmt.Sprintf("%02d:%02d", h+1, m)
}
