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

type hallRepository interface {
	List(ctx context.Context, filter models.HallFilter) ([]models.Hall, int, error)
	FindByID(ctx context.Context, id string) (*models.Hall, error)
	Create(ctx context.Context, hall *models.Hall) error
	Update(ctx context.Context, hall *models.Hall) error
	Delete(ctx context.Context, id string) error
}

// HallService manages teaching halls.
type HallService struct {
	repo      hallRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHallService constructs a hall service.
func NewHallService(repo hallRepository, validate *validator.Validate, logger *zap.Logger) *HallService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HallService{repo: repo, validator: validate, logger: logger}
}

// List returns halls with pagination metadata.
func (s *HallService) List(ctx context.Context, filter models.HallFilter) ([]models.Hall, *models.Pagination, error) {
	halls, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list halls")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return halls, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single hall.
func (s *HallService) Get(ctx context.Context, id string) (*models.Hall, error) {
	hall, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hall not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hall")
	}
	return hall, nil
}

// Create validates and stores a new hall.
func (s *HallService) Create(ctx context.Context, hall *models.Hall) (*models.Hall, error) {
	if err := validateHall(hall); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, hall); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hall")
	}
	return hall, nil
}

// Update validates and persists hall changes.
func (s *HallService) Update(ctx context.Context, hall *models.Hall) (*models.Hall, error) {
	if hall.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hall id is required")
	}
	if err := validateHall(hall); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, hall.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, hall); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hall")
	}
	return hall, nil
}

// Delete removes a hall.
func (s *HallService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hall")
	}
	return nil
}

func validateHall(hall *models.Hall) error {
	if hall.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "hall name is required")
	}
	if hall.Capacity <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "hall capacity must be positive")
	}
	switch hall.Type {
	case models.HallTypeClassroom, models.HallTypeAmphitheatre, models.HallTypeLab:
	case "":
		hall.Type = models.HallTypeClassroom
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown hall type")
	}
	if !hall.IsShared && (hall.DepartmentID == nil || *hall.DepartmentID == "") {
		return appErrors.Clone(appErrors.ErrValidation, "non-shared halls must belong to a department")
	}
	return nil
}
