package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/models"
)

func newScheduleEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleEntryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleEntryRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WithArgs(sqlmock.AnyArg(), "term-1", "off-1", "slot-1", "hall-1", models.WeekPatternEvery, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ScheduleEntry{
		TermID:     "term-1",
		OfferingID: "off-1",
		TimeSlotID: "slot-1",
		HallID:     "hall-1",
	}

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.WeekPatternEvery, entry.WeekPattern)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newScheduleEntryRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "offering_id", "time_slot_id", "hall_id", "week_pattern", "created_at", "updated_at"}).
		AddRow("entry-1", "term-1", "off-1", "slot-1", "hall-1", "EVERY_WEEK", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, offering_id, time_slot_id, hall_id, week_pattern, created_at, updated_at FROM schedule_entries WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(rows)

	entries, err := repo.ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "off-1", entries[0].OfferingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newScheduleEntryRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE id = $1")).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "entry-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(assert.AnError))
	assert.False(t, IsUniqueViolation(nil))
}
