package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
)

var availabilityCols = []string{"id", "teacher_id", "day_of_week", "start_time", "end_time", "max_students", "is_active", "created_at", "updated_at"}

func TestAvailabilityRepositoryListActiveByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_availability\nWHERE teacher_id = $1 AND is_active = TRUE ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(availabilityCols).
			AddRow("p1", "t1", 1, "09:00:00", "11:00:00", 10, true, time.Now(), time.Now()).
			AddRow("p2", "t1", 3, []byte("14:30:00"), []byte("16:30:00"), 5, true, time.Now(), time.Now()))

	patterns, err := repo.ListActiveByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, calendar.MustClock("09:00"), patterns[0].StartTime)
	assert.Equal(t, "16:30", patterns[1].EndTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListWrapsErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery("FROM teacher_availability").WillReturnError(errors.New("connection reset"))
	_, err := repo.ListActiveByTeacher(context.Background(), "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAvailabilityRepositoryWrites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	pattern := &models.AvailabilityPattern{
		TeacherID:   "t1",
		DayOfWeek:   2,
		StartTime:   calendar.MustClock("08:00"),
		EndTime:     calendar.MustClock("10:00"),
		MaxStudents: 8,
		IsActive:    true,
	}
	mock.ExpectExec("INSERT INTO teacher_availability").
		WithArgs(sqlmock.AnyArg(), "t1", 2, "08:00", "10:00", 8, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), pattern))
	assert.NotEmpty(t, pattern.ID)

	pattern.MaxStudents = 12
	mock.ExpectExec("UPDATE teacher_availability SET").
		WithArgs(2, "08:00", "10:00", 12, true, sqlmock.AnyArg(), pattern.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), pattern))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_availability WHERE id = $1")).
		WithArgs(pattern.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), pattern.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryGetByIDMalformedID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery("FROM teacher_availability WHERE id = \\$1").WithArgs("abc").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})
	mock.ExpectQuery("FROM teacher_availability WHERE id = \\$1").WithArgs("slot-1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "slot-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
