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

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActive(ctx context.Context) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) error
}

// TermService manages academic terms.
type TermService struct {
	repo   termRepository
	logger *zap.Logger
}

// NewTermService constructs a term service.
func NewTermService(repo termRepository, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, logger: logger}
}

// List returns terms with pagination metadata.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return terms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single term.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// GetActive returns the currently active term, if any.
func (s *TermService) GetActive(ctx context.Context) (*models.Term, error) {
	term, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}
	return term, nil
}

// Create validates and stores a new term.
func (s *TermService) Create(ctx context.Context, term *models.Term) (*models.Term, error) {
	if err := validateTerm(term); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}

// Update validates and persists term changes.
func (s *TermService) Update(ctx context.Context, term *models.Term) (*models.Term, error) {
	if term.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term id is required")
	}
	if _, err := s.Get(ctx, term.ID); err != nil {
		return nil, err
	}
	if err := validateTerm(term); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}
	return term, nil
}

func validateTerm(term *models.Term) error {
	term.Name = strings.TrimSpace(term.Name)
	term.AcademicYear = strings.TrimSpace(term.AcademicYear)
	if term.Name == "" || term.AcademicYear == "" {
		return appErrors.Clone(appErrors.ErrValidation, "term name and academic year are required")
	}
	if !term.EndDate.After(term.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "term end date must be after start date")
	}
	return nil
}
