package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusplan/timetable-api/internal/models"
)

// ScheduleEntryRepository provides persistence for timetable entries.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository creates a new schedule entry repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

const entryColumns = "id, term_id, offering_id, time_slot_id, hall_id, week_pattern, created_at, updated_at"

const entryDetailSelect = `SELECT se.id, se.term_id, se.offering_id, se.time_slot_id, se.hall_id, se.week_pattern, se.created_at, se.updated_at,
	co.course_code, co.title AS course_title, co.department_id, co.instructor_id, i.full_name AS instructor_name, co.student_count,
	h.name AS hall_name, h.capacity AS hall_capacity,
	ts.day_of_week, ts.start_time, ts.end_time
	FROM schedule_entries se
	JOIN course_offerings co ON co.id = se.offering_id
	JOIN instructors i ON i.id = co.instructor_id
	JOIN halls h ON h.id = se.hall_id
	JOIN time_slots ts ON ts.id = se.time_slot_id`

// ListByTerm returns raw entries for a term.
func (r *ScheduleEntryRepository) ListByTerm(ctx context.Context, termID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE term_id = $1", entryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, termID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// ListDetails returns joined entries with optional filtering and pagination.
func (r *ScheduleEntryRepository) ListDetails(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("se.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("se.offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.HallID != "" {
		conditions = append(conditions, fmt.Sprintf("se.hall_id = $%d", len(args)+1))
		args = append(args, filter.HallID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("co.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("ts.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY ts.day_of_week ASC, ts.start_time ASC, h.name ASC LIMIT %d OFFSET %d", entryDetailSelect, where, size, offset)
	var details []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entry details: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM schedule_entries se JOIN course_offerings co ON co.id = se.offering_id JOIN time_slots ts ON ts.id = se.time_slot_id" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}

	return details, total, nil
}

// ListDetailsForPlanner returns joined entries for a term without pagination,
// ordered for grid rendering.
func (r *ScheduleEntryRepository) ListDetailsForPlanner(ctx context.Context, termID string) ([]models.ScheduleEntryDetail, error) {
	query := entryDetailSelect + " WHERE se.term_id = $1 ORDER BY ts.day_of_week ASC, ts.start_time ASC, h.name ASC"
	var details []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &details, query, termID); err != nil {
		return nil, fmt.Errorf("list planner entries: %w", err)
	}
	return details, nil
}

// FindByID loads an entry by id.
func (r *ScheduleEntryRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id = $1", entryColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a new schedule entry.
func (r *ScheduleEntryRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.WeekPattern == "" {
		entry.WeekPattern = models.WeekPatternEvery
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO schedule_entries (id, term_id, offering_id, time_slot_id, hall_id, week_pattern, created_at, updated_at) VALUES (:id, :term_id, :offering_id, :time_slot_id, :hall_id, :week_pattern, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *ScheduleEntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The schedule_entries table carries a uniqueness constraint on
// (term_id, time_slot_id, hall_id, week_pattern) as the last line of defence
// against concurrent double-booking.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
