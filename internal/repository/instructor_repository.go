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

// InstructorRepository provides persistence for instructors and their
// unavailability records.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

const instructorColumns = "id, full_name, email, title, department_id, created_at, updated_at"

// List returns instructors with optional filtering and pagination.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	base := "FROM instructors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"full_name": true, "email": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", instructorColumns, base, sortBy, order, size, offset)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}

	return instructors, total, nil
}

// FindByID loads an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE id = $1", instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Create stores a new instructor record.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = now
	}
	instructor.UpdatedAt = now

	const query = `INSERT INTO instructors (id, full_name, email, title, department_id, created_at, updated_at) VALUES (:id, :full_name, :email, :title, :department_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// Update modifies an instructor record.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	instructor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE instructors SET full_name = :full_name, email = :email, title = :title, department_id = :department_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	return nil
}

// Delete removes an instructor by id.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM instructors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	return nil
}

// ListUnavailability returns unavailability records for one instructor in a term.
func (r *InstructorRepository) ListUnavailability(ctx context.Context, termID, instructorID string) ([]models.InstructorUnavailability, error) {
	const query = `SELECT id, term_id, instructor_id, time_slot_id, created_at FROM instructor_unavailability WHERE term_id = $1 AND instructor_id = $2`
	var records []models.InstructorUnavailability
	if err := r.db.SelectContext(ctx, &records, query, termID, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor unavailability: %w", err)
	}
	return records, nil
}

// ListUnavailabilityByTerm returns every unavailability record in a term.
func (r *InstructorRepository) ListUnavailabilityByTerm(ctx context.Context, termID string) ([]models.InstructorUnavailability, error) {
	const query = `SELECT id, term_id, instructor_id, time_slot_id, created_at FROM instructor_unavailability WHERE term_id = $1`
	var records []models.InstructorUnavailability
	if err := r.db.SelectContext(ctx, &records, query, termID); err != nil {
		return nil, fmt.Errorf("list term unavailability: %w", err)
	}
	return records, nil
}

// ReplaceUnavailability swaps the full unavailability set for an instructor in
// a term inside one transaction.
func (r *InstructorRepository) ReplaceUnavailability(ctx context.Context, termID, instructorID string, timeSlotIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace unavailability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM instructor_unavailability WHERE term_id = $1 AND instructor_id = $2`, termID, instructorID); err != nil {
		return fmt.Errorf("clear instructor unavailability: %w", err)
	}

	now := time.Now().UTC()
	for _, slotID := range timeSlotIDs {
		record := models.InstructorUnavailability{
			ID:           uuid.NewString(),
			TermID:       termID,
			InstructorID: instructorID,
			TimeSlotID:   slotID,
			CreatedAt:    now,
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO instructor_unavailability (id, term_id, instructor_id, time_slot_id, created_at) VALUES (:id, :term_id, :instructor_id, :time_slot_id, :created_at)`, &record); err != nil {
			return fmt.Errorf("insert instructor unavailability: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace unavailability: %w", err)
	}
	return nil
}
