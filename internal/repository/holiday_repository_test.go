package repository

import (
	"context"
	"database/sql"
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

var holidayCols = []string{"id", "date", "name", "year", "is_national", "created_at", "updated_at"}

func TestHolidayRepositoryListByYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, name, year, is_national, created_at, updated_at FROM holidays WHERE year = $1 ORDER BY date ASC")).
		WithArgs(2025).
		WillReturnRows(sqlmock.NewRows(holidayCols).AddRow("h1", day, "Confraternização Universal", 2025, true, day, day))

	list, err := repo.ListByYear(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, calendar.MustParse("2025-01-01"), list[0].Date)
	assert.True(t, list[0].IsNational)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryListInRangeBindsDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectQuery("FROM holidays WHERE date BETWEEN").
		WithArgs("2025-04-01", "2025-04-30").
		WillReturnRows(sqlmock.NewRows(holidayCols).AddRow("h2", "2025-04-21", "Tiradentes", 2025, true, time.Now(), time.Now()))

	list, err := repo.ListInRange(context.Background(), calendar.MustParse("2025-04-01"), calendar.MustParse("2025-04-30"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-04-21", list[0].Date.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryCreateDerivesYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").
		WithArgs(sqlmock.AnyArg(), "2025-11-20", "Consciência Negra", 2025, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := &models.Holiday{Date: calendar.MustParse("2025-11-20"), Name: "Consciência Negra", IsNational: true}
	require.NoError(t, repo.Create(context.Background(), h))
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, 2025, h.Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryGetAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectQuery("FROM holidays WHERE id = \\$1").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).WithArgs("h9").WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "h1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(context.Background(), "h9")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &models.Holiday{Date: calendar.MustParse("2025-12-25"), Name: "Natal"})
	assert.ErrorIs(t, err, ErrDuplicateHoliday)
}

func TestHolidayRepositoryMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	badUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	mock.ExpectQuery("FROM holidays WHERE id = \\$1").WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID)

	_, err := repo.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	deleted, err := repo.Delete(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
