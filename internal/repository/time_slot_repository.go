package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusplan/timetable-api/internal/models"
)

// TimeSlotRepository provides persistence for the weekly slot grid.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// ListAll returns every time slot ordered by day then start time.
func (r *TimeSlotRepository) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, day_of_week, start_time, end_time, created_at FROM time_slots ORDER BY day_of_week ASC, start_time ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ListByDay returns slots for one day ordered by start time.
func (r *TimeSlotRepository) ListByDay(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error) {
	const query = `SELECT id, day_of_week, start_time, end_time, created_at FROM time_slots WHERE day_of_week = $1 ORDER BY start_time ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list time slots by day: %w", err)
	}
	return slots, nil
}

// FindByID loads a time slot by id.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	const query = `SELECT id, day_of_week, start_time, end_time, created_at FROM time_slots WHERE id = $1`
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create stores a new time slot record.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO time_slots (id, day_of_week, start_time, end_time, created_at) VALUES (:id, :day_of_week, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// Delete removes a time slot by id.
func (r *TimeSlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	return nil
}
