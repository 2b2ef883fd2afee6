package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
)

type holidayDatesStub struct {
	set   calendar.Set
	err   error
	calls int
}

func (s *holidayDatesStub) DatesInRange(ctx context.Context, start, end calendar.Date) (calendar.Set, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.set, nil
}

func TestCalculateCourseEndDateTwoPerWeek(t *testing.T) {
	got, err := CalculateCourseEndDate(calendar.MustParse("2025-01-06"), 8, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, got.ActualClassDays)
	assert.Equal(t, 2, got.TotalWeeks)
	require.Len(t, got.Schedule, 4)

	dates := make([]string, 0, 4)
	for i, class := range got.Schedule {
		dates = append(dates, class.Date.String())
		assert.Equal(t, i+1, class.ClassIndex)
		assert.Equal(t, 120, class.DurationMinutes)
	}
	assert.Equal(t, []string{"2025-01-06", "2025-01-07", "2025-01-13", "2025-01-14"}, dates)
	assert.Equal(t, "2025-01-14", got.EndDate.String())
	assert.Empty(t, got.HolidaysExcluded)
}

func TestCalculateCourseEndDateSkipsHolidays(t *testing.T) {
	newYear := calendar.MustParse("2025-01-01")
	got, err := CalculateCourseEndDate(calendar.MustParse("2024-12-30"), 8, 5, calendar.NewSet(newYear))
	require.NoError(t, err)

	require.Len(t, got.Schedule, 4)
	for _, class := range got.Schedule {
		assert.False(t, class.Date.Equal(newYear))
		assert.True(t, calendar.IsBusinessDay(class.Date, calendar.NewSet(newYear)))
	}
	assert.Equal(t, "2025-01-03", got.EndDate.String())
	assert.Equal(t, []calendar.Date{newYear}, got.HolidaysExcluded)
}

func TestCalculateCourseEndDateOddHoursRoundUp(t *testing.T) {
	got, err := CalculateCourseEndDate(calendar.MustParse("2025-01-06"), 5, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ActualClassDays)
	assert.Equal(t, "2025-01-08", got.EndDate.String())
	assert.Equal(t, 1, got.TotalWeeks)
}

func TestCalculateCourseEndDateWeekendStart(t *testing.T) {
	got, err := CalculateCourseEndDate(calendar.MustParse("2025-01-04"), 4, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", got.Schedule[0].Date.String())
	assert.Equal(t, "2025-01-07", got.EndDate.String())
}

func TestCalculateCourseEndDateHolidayAfterEndIsNotReported(t *testing.T) {
	got, err := CalculateCourseEndDate(calendar.MustParse("2025-01-06"), 2, 1, calendar.NewSet(calendar.MustParse("2025-03-03")))
	require.NoError(t, err)
	assert.Empty(t, got.HolidaysExcluded)
}

func TestCalculateCourseEndDateValidation(t *testing.T) {
	start := calendar.MustParse("2025-01-06")

	for _, hours := range []int{0, -5} {
		_, err := CalculateCourseEndDate(start, hours, 2, nil)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		assert.Equal(t, "Course hours must be greater than 0", err.Error())
	}

	for _, weekly := range []int{0, 8} {
		_, err := CalculateCourseEndDate(start, 10, weekly, nil)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		assert.Equal(t, "Weekly classes must be between 1 and 7", err.Error())
	}
}

func TestCalculateCourseEndDateOverflow(t *testing.T) {
	_, err := CalculateCourseEndDate(calendar.MustParse("2025-01-06"), 10000, 1, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOverflow))
	assert.Equal(t, "Course scheduling exceeded maximum duration (2 years)", err.Error())
}

func TestCalculateCourseEndDateAllHolidayCalendarOverflows(t *testing.T) {
	start := calendar.MustParse("2025-01-06")
	all := calendar.NewSet()
	for d := start; d.Before(start.AddDate(3, 0, 0)); d = d.AddDays(1) {
		all.Add(d)
	}
	_, err := CalculateCourseEndDate(start, 2, 5, all)
	assert.True(t, appErrors.Is(err, appErrors.ErrOverflow))
}

func TestCourseScheduleServiceResolvesHolidays(t *testing.T) {
	stub := &holidayDatesStub{set: calendar.NewSet(calendar.MustParse("2025-01-01"))}
	svc := NewCourseScheduleService(stub, 0, NewMetricsService(), nil)

	got, err := svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "2024-12-30", CourseHours: 8, WeeklyClasses: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Len(t, got.HolidaysExcluded, 1)

	off := false
	got, err = svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "2024-12-30", CourseHours: 8, WeeklyClasses: 5, ExcludeHolidays: &off})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "2025-01-02", got.EndDate.String())
}

func TestCourseScheduleServiceErrors(t *testing.T) {
	stub := &holidayDatesStub{}
	svc := NewCourseScheduleService(stub, 2, nil, nil)

	_, err := svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "06/01/2025", CourseHours: 8, WeeklyClasses: 2})
	assert.True(t, appErrors.Is(err, appErrors.ErrFormat))

	_, err = svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "2025-01-06", CourseHours: 0, WeeklyClasses: 2})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, stub.calls, "invalid input never reaches the holiday store")

	stub.err = appErrors.Store(errors.New("timeout"), "Failed to fetch holidays")
	_, err = svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "2025-01-06", CourseHours: 8, WeeklyClasses: 2})
	assert.True(t, appErrors.Is(err, appErrors.ErrStore))
}

func TestCourseScheduleServiceValidatesBeforeEitherPath(t *testing.T) {
	stub := &holidayDatesStub{}
	metrics := NewMetricsService()
	svc := NewCourseScheduleService(stub, 2, metrics, nil)
	off := false

	for _, exclude := range []*bool{nil, &off} {
		_, err := svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "2025-01-06", CourseHours: 8, WeeklyClasses: 9, ExcludeHolidays: exclude})
		require.Error(t, err)
		assert.Equal(t, "Weekly classes must be between 1 and 7", err.Error())
	}
	assert.Zero(t, stub.calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.schedules.WithLabelValues("error")))
	assert.Zero(t, testutil.ToFloat64(metrics.schedules.WithLabelValues("ok")))
}

func TestCourseScheduleServiceClampsSpanToHolidayWindow(t *testing.T) {
	holidays := NewHolidayService(newHolidayRepoStub(holiday("h1", "2025-01-01", "Ano Novo")), nil, nil, HolidayConfig{}, nil, nil)
	svc := NewCourseScheduleService(holidays, 25, nil, nil)
	assert.Equal(t, MaxCourseSpanYears, svc.maxSpanYears)

	got, err := svc.Calculate(context.Background(), CourseScheduleRequest{StartDate: "2024-12-30", CourseHours: 8, WeeklyClasses: 5})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", got.EndDate.String())
	assert.Len(t, got.HolidaysExcluded, 1)
}

func TestCourseScheduleServiceExport(t *testing.T) {
	svc := NewCourseScheduleService(&holidayDatesStub{}, 0, nil, nil)
	req := CourseScheduleRequest{StartDate: "2025-01-06", CourseHours: 8, WeeklyClasses: 2}

	file, err := svc.Export(context.Background(), req, "csv")
	require.NoError(t, err)
	assert.Equal(t, "course-schedule-2025-01-06.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	body := string(file.Body)
	assert.Contains(t, body, "2025-01-14")
	assert.Contains(t, body, time.Tuesday.String())

	pdf, err := svc.Export(context.Background(), req, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Body), "%PDF"))

	_, err = svc.Export(context.Background(), req, "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
