package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	Delete(ctx context.Context, id string) error
	ListUnavailability(ctx context.Context, termID, instructorID string) ([]models.InstructorUnavailability, error)
	ReplaceUnavailability(ctx context.Context, termID, instructorID string, timeSlotIDs []string) error
}

type slotExistenceChecker interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// InstructorService manages instructors and their weekly unavailability grid.
type InstructorService struct {
	repo      instructorRepository
	slots     slotExistenceChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService constructs an instructor service.
func NewInstructorService(repo instructorRepository, slots slotExistenceChecker, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, slots: slots, validator: validate, logger: logger}
}

// List returns instructors with pagination metadata.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return instructors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single instructor.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create validates and stores a new instructor.
func (s *InstructorService) Create(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	if instructor.FullName == "" || instructor.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "full name and department are required")
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// Update validates and persists instructor changes.
func (s *InstructorService) Update(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	if instructor.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	if _, err := s.Get(ctx, instructor.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// Delete removes an instructor.
func (s *InstructorService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instructor")
	}
	return nil
}

// Unavailability returns the slot ids an instructor has blocked for a term.
func (s *InstructorService) Unavailability(ctx context.Context, termID, instructorID string) ([]models.InstructorUnavailability, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	if _, err := s.Get(ctx, instructorID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListUnavailability(ctx, termID, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailability")
	}
	return records, nil
}

// SetUnavailability replaces an instructor's blocked slots for a term with
// the submitted grid selection.
func (s *InstructorService) SetUnavailability(ctx context.Context, instructorID string, req dto.UnavailabilityGridRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unavailability payload")
	}
	if _, err := s.Get(ctx, instructorID); err != nil {
		return err
	}

	seen := make(map[string]bool, len(req.TimeSlotIDs))
	unique := make([]string, 0, len(req.TimeSlotIDs))
	for _, slotID := range req.TimeSlotIDs {
		if slotID == "" || seen[slotID] {
			continue
		}
		if s.slots != nil {
			if _, err := s.slots.FindByID(ctx, slotID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrValidation, "unknown time slot in unavailability grid")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify time slot")
			}
		}
		seen[slotID] = true
		unique = append(unique, slotID)
	}

	if err := s.repo.ReplaceUnavailability(ctx, req.TermID, instructorID, unique); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store unavailability")
	}

	s.logger.Info("unavailability_updated",
		zap.String("instructor_id", instructorID),
		zap.String("term_id", req.TermID),
		zap.Int("blocked_slots", len(unique)),
	)
	return nil
}
