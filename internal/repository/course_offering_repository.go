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

// CourseOfferingRepository provides persistence for course offerings.
type CourseOfferingRepository struct {
	db *sqlx.DB
}

// NewCourseOfferingRepository creates a new course offering repository.
func NewCourseOfferingRepository(db *sqlx.DB) *CourseOfferingRepository {
	return &CourseOfferingRepository{db: db}
}

const offeringColumns = "id, term_id, department_id, course_code, title, instructor_id, student_count, duration_slots, created_at, updated_at"

// List returns offerings with optional filtering and pagination.
func (r *CourseOfferingRepository) List(ctx context.Context, filter models.CourseOfferingFilter) ([]models.CourseOffering, int, error) {
	base := "FROM course_offerings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(course_code ILIKE $%d OR title ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"course_code": true, "title": true, "student_count": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "course_code"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", offeringColumns, base, sortBy, order, size, offset)
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course offerings: %w", err)
	}

	return offerings, total, nil
}

// ListUnplaced returns offerings in a term and department that have no
// schedule entry yet, in course code order.
func (r *CourseOfferingRepository) ListUnplaced(ctx context.Context, termID, departmentID string) ([]models.CourseOffering, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_offerings co WHERE co.term_id = $1 AND co.department_id = $2 AND NOT EXISTS (SELECT 1 FROM schedule_entries se WHERE se.offering_id = co.id) ORDER BY co.course_code ASC`,
		prefixColumns("co", offeringColumns))
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, termID, departmentID); err != nil {
		return nil, fmt.Errorf("list unplaced offerings: %w", err)
	}
	return offerings, nil
}

// FindByID loads an offering by id.
func (r *CourseOfferingRepository) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	query := fmt.Sprintf("SELECT %s FROM course_offerings WHERE id = $1", offeringColumns)
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// Create stores a new offering record.
func (r *CourseOfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	if offering.DurationSlots <= 0 {
		offering.DurationSlots = 1
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now

	const query = `INSERT INTO course_offerings (id, term_id, department_id, course_code, title, instructor_id, student_count, duration_slots, created_at, updated_at) VALUES (:id, :term_id, :department_id, :course_code, :title, :instructor_id, :student_count, :duration_slots, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create course offering: %w", err)
	}
	return nil
}

// Update modifies an offering record.
func (r *CourseOfferingRepository) Update(ctx context.Context, offering *models.CourseOffering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_offerings SET term_id = :term_id, department_id = :department_id, course_code = :course_code, title = :title, instructor_id = :instructor_id, student_count = :student_count, duration_slots = :duration_slots, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update course offering: %w", err)
	}
	return nil
}

// Delete removes an offering by id.
func (r *CourseOfferingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_offerings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course offering: %w", err)
	}
	return nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
