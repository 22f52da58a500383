package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id string) error
}

// DepartmentService manages academic departments.
type DepartmentService struct {
	repo   departmentRepository
	logger *zap.Logger
}

// NewDepartmentService constructs a department service.
func NewDepartmentService(repo departmentRepository, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, logger: logger}
}

// List returns departments with pagination metadata.
func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	departments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return departments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single department.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return dept, nil
}

// Create validates and stores a new department.
func (s *DepartmentService) Create(ctx context.Context, dept *models.Department) (*models.Department, error) {
	if err := validateDepartment(dept); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return dept, nil
}

// Update validates and persists department changes.
func (s *DepartmentService) Update(ctx context.Context, dept *models.Department) (*models.Department, error) {
	if dept.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department id is required")
	}
	if _, err := s.Get(ctx, dept.ID); err != nil {
		return nil, err
	}
	if err := validateDepartment(dept); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return dept, nil
}

// Delete removes a department.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	return nil
}

func validateDepartment(dept *models.Department) error {
	dept.Code = strings.ToUpper(strings.TrimSpace(dept.Code))
	dept.Name = strings.TrimSpace(dept.Name)
	if dept.Code == "" || dept.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "department code and name are required")
	}
	return nil
}
