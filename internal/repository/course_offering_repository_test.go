package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/timetable-api/internal/models"
)

func newOfferingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func offeringRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term_id", "department_id", "course_code", "title", "instructor_id", "student_count", "duration_slots", "created_at", "updated_at"})
}

func TestCourseOfferingRepositoryListUnplaced(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewCourseOfferingRepository(db)

	rows := offeringRows().
		AddRow("off-1", "term-1", "dept-1", "CS101", "Intro to Programming", "inst-1", 45, 1, time.Now(), time.Now()).
		AddRow("off-2", "term-1", "dept-1", "CS205", "Data Structures", "inst-2", 30, 1, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM course_offerings co WHERE co.term_id = \\$1 AND co.department_id = \\$2 AND NOT EXISTS").
		WithArgs("term-1", "dept-1").
		WillReturnRows(rows)

	offerings, err := repo.ListUnplaced(context.Background(), "term-1", "dept-1")
	require.NoError(t, err)
	require.Len(t, offerings, 2)
	assert.Equal(t, "CS101", offerings[0].CourseCode)
	assert.Equal(t, "CS205", offerings[1].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseOfferingRepositoryCreateDefaultsDuration(t *testing.T) {
	db, mock, cleanup := newOfferingRepoMock(t)
	defer cleanup()
	repo := NewCourseOfferingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings")).
		WithArgs(sqlmock.AnyArg(), "term-1", "dept-1", "CS101", "Intro to Programming", "inst-1", 45, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	offering := &models.CourseOffering{
		TermID:       "term-1",
		DepartmentID: "dept-1",
		CourseCode:   "CS101",
		Title:        "Intro to Programming",
		InstructorID: "inst-1",
		StudentCount: 45,
	}

	require.NoError(t, repo.Create(context.Background(), offering))
	assert.Equal(t, 1, offering.DurationSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}
