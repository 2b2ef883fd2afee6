package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
)

func TestEnrollmentRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE availability_slot_id = $1 AND status = $2")).
		WithArgs("p1", "active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta("AND class_date = $2 AND status = $3")).
		WithArgs("p1", "2025-03-10", "active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.CountActive(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	onDay, err := repo.CountActiveOn(context.Background(), "p1", calendar.MustParse("2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 2, onDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCountActiveInRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	empty, err := repo.CountActiveInRange(context.Background(), nil, calendar.MustParse("2025-03-01"), calendar.MustParse("2025-03-31"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	mock.ExpectQuery("availability_slot_id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg(), "2025-03-01", "2025-03-31", "active").
		WillReturnRows(sqlmock.NewRows([]string{"availability_slot_id", "class_date", "total"}).
			AddRow("p1", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 4).
			AddRow("p2", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), 1))

	counts, err := repo.CountActiveInRange(context.Background(), []string{"p1", "p2"}, calendar.MustParse("2025-03-01"), calendar.MustParse("2025-03-31"))
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.SlotKey{PatternID: "p1", Date: calendar.MustParse("2025-03-03")}])
	assert.Equal(t, 1, counts[models.SlotKey{PatternID: "p2", Date: calendar.MustParse("2025-03-05")}])
	assert.Zero(t, counts[models.SlotKey{PatternID: "p1", Date: calendar.MustParse("2025-03-10")}])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListActiveEndDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("JOIN teacher_availability a ON a.id = e.availability_slot_id").
		WithArgs("t1", "active").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "student_id", "student_name", "end_date"}).
			AddRow("e1", "s1", "Ana", "2025-06-30"))

	rows, err := repo.ListActiveEndDates(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].StudentName)
	assert.Equal(t, calendar.MustParse("2025-06-30"), rows[0].EndDate)

	mock.ExpectQuery("JOIN teacher_availability").WillReturnError(errors.New("timeout"))
	_, err = repo.ListActiveEndDates(context.Background(), "t1")
	assert.ErrorContains(t, err, "timeout")
}
