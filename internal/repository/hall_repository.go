package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusplan/timetable-api/internal/models"
)

// HallRepository provides persistence for teaching halls.
type HallRepository struct {
	db *sqlx.DB
}

// NewHallRepository creates a new hall repository.
func NewHallRepository(db *sqlx.DB) *HallRepository {
	return &HallRepository{db: db}
}

const hallColumns = "id, name, capacity, hall_type, is_shared, department_id, seating_arrangement, created_at, updated_at"

// List returns halls with optional filtering and pagination.
func (r *HallRepository) List(ctx context.Context, filter models.HallFilter) ([]models.Hall, int, error) {
	base := "FROM halls WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("hall_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.IsShared != nil {
		conditions = append(conditions, fmt.Sprintf("is_shared = $%d", len(args)+1))
		args = append(args, *filter.IsShared)
	}
	if filter.MinCapacity > 0 {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)+1))
		args = append(args, filter.MinCapacity)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "capacity": true, "hall_type": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", hallColumns, base, sortBy, order, size, offset)
	var halls []models.Hall
	if err := r.db.SelectContext(ctx, &halls, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list halls: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count halls: %w", err)
	}

	return halls, total, nil
}

// ListSchedulable returns halls usable by a department, capacity ascending.
// Shared halls are always included.
func (r *HallRepository) ListSchedulable(ctx context.Context, departmentID string) ([]models.Hall, error) {
	query := fmt.Sprintf("SELECT %s FROM halls WHERE is_shared = TRUE OR department_id = $1 ORDER BY capacity ASC, name ASC", hallColumns)
	var halls []models.Hall
	if err := r.db.SelectContext(ctx, &halls, query, departmentID); err != nil {
		return nil, fmt.Errorf("list schedulable halls: %w", err)
	}
	return halls, nil
}

// FindByID loads a hall by id.
func (r *HallRepository) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	query := fmt.Sprintf("SELECT %s FROM halls WHERE id = $1", hallColumns)
	var hall models.Hall
	if err := r.db.GetContext(ctx, &hall, query, id); err != nil {
		return nil, err
	}
	return &hall, nil
}

// Create stores a new hall record.
func (r *HallRepository) Create(ctx context.Context, hall *models.Hall) error {
	if hall.ID == "" {
		hall.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if hall.CreatedAt.IsZero() {
		hall.CreatedAt = now
	}
	hall.UpdatedAt = now

	const query = `INSERT INTO halls (id, name, capacity, hall_type, is_shared, department_id, seating_arrangement, created_at, updated_at) VALUES (:id, :name, :capacity, :hall_type, :is_shared, :department_id, :seating_arrangement, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hall); err != nil {
		return fmt.Errorf("create hall: %w", err)
	}
	return nil
}

// Update modifies a hall record.
func (r *HallRepository) Update(ctx context.Context, hall *models.Hall) error {
	hall.UpdatedAt = time.Now().UTC()
	const query = `UPDATE halls SET name = :name, capacity = :capacity, hall_type = :hall_type, is_shared = :is_shared, department_id = :department_id, seating_arrangement = :seating_arrangement, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, hall); err != nil {
		return fmt.Errorf("update hall: %w", err)
	}
	return nil
}

// Delete removes a hall by id.
func (r *HallRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM halls WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete hall: %w", err)
	}
	return nil
}
