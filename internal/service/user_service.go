package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserInput carries the fields accepted when provisioning an account.
type CreateUserInput struct {
	Email        string
	Password     string
	FullName     string
	Role         models.UserRole
	DepartmentID *string
}

// UserService manages application accounts.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService constructs a user service.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create provisions a new account with a hashed password.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	if input.Email == "" || input.FullName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email and full name are required")
	}
	if len(input.Password) < 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	if err := validateRole(input.Role, input.DepartmentID); err != nil {
		return nil, err
	}
	if existing, err := s.repo.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user_created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update persists profile changes. Password changes go through AuthService.
func (s *UserService) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	current, err := s.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.FullName = strings.TrimSpace(user.FullName)
	if user.FullName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "full name is required")
	}
	if err := validateRole(user.Role, user.DepartmentID); err != nil {
		return nil, err
	}
	user.Email = current.Email
	user.PasswordHash = current.PasswordHash
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user_deleted", zap.String("user_id", id))
	return nil
}

func validateRole(role models.UserRole, departmentID *string) error {
	switch role {
	case models.RoleAdmin, models.RoleDean:
		return nil
	case models.RoleDepartmentRep:
		if departmentID == nil || *departmentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "department representatives must belong to a department")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
}
