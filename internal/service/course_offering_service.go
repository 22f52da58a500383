package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type courseOfferingRepository interface {
	List(ctx context.Context, filter models.CourseOfferingFilter) ([]models.CourseOffering, int, error)
	ListUnplaced(ctx context.Context, termID, departmentID string) ([]models.CourseOffering, error)
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
	Create(ctx context.Context, offering *models.CourseOffering) error
	Update(ctx context.Context, offering *models.CourseOffering) error
	Delete(ctx context.Context, id string) error
}

// CourseOfferingService manages term course offerings.
type CourseOfferingService struct {
	repo        courseOfferingRepository
	instructors offeringInstructorReader
	validator   *validator.Validate
	logger      *zap.Logger
}

type offeringInstructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// NewCourseOfferingService constructs a course offering service.
func NewCourseOfferingService(repo courseOfferingRepository, instructors offeringInstructorReader, validate *validator.Validate, logger *zap.Logger) *CourseOfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseOfferingService{repo: repo, instructors: instructors, validator: validate, logger: logger}
}

// List returns offerings with pagination metadata.
func (s *CourseOfferingService) List(ctx context.Context, filter models.CourseOfferingFilter) ([]models.CourseOffering, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return offerings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListUnplaced returns offerings not yet scheduled in a term and department.
func (s *CourseOfferingService) ListUnplaced(ctx context.Context, termID, departmentID string) ([]models.CourseOffering, error) {
	if termID == "" || departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and departmentId are required")
	}
	offerings, err := s.repo.ListUnplaced(ctx, termID, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unplaced offerings")
	}
	return offerings, nil
}

// Get loads a single offering.
func (s *CourseOfferingService) Get(ctx context.Context, id string) (*models.CourseOffering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// Create validates and stores a new offering.
func (s *CourseOfferingService) Create(ctx context.Context, offering *models.CourseOffering) (*models.CourseOffering, error) {
	if err := s.validateOffering(ctx, offering); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}

// Update validates and persists offering changes.
func (s *CourseOfferingService) Update(ctx context.Context, offering *models.CourseOffering) (*models.CourseOffering, error) {
	if offering.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering id is required")
	}
	if _, err := s.Get(ctx, offering.ID); err != nil {
		return nil, err
	}
	if err := s.validateOffering(ctx, offering); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	return offering, nil
}

// Delete removes an offering.
func (s *CourseOfferingService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offering")
	}
	return nil
}

func (s *CourseOfferingService) validateOffering(ctx context.Context, offering *models.CourseOffering) error {
	if offering.TermID == "" || offering.DepartmentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "termId and departmentId are required")
	}
	if offering.CourseCode == "" || offering.Title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course code and title are required")
	}
	if offering.StudentCount <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "student count must be positive")
	}
	if s.instructors != nil && offering.InstructorID != "" {
		if _, err := s.instructors.FindByID(ctx, offering.InstructorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "instructor not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify instructor")
		}
	}
	return nil
}
