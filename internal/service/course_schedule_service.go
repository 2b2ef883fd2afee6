package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
	"github.com/noah-isme/sma-scheduling-api/pkg/export"
)

const (
	// DefaultMaxCourseSpanYears bounds the scheduler walk.
	DefaultMaxCourseSpanYears = 2
	// MaxCourseSpanYears is the widest walk whose holiday window the holiday service will serve.
	MaxCourseSpanYears = maxHolidaySpanYears
)

// CalculateCourseEndDate lays out ceil(courseHours/2) two-hour classes on
// business days from startDate on, at most weeklyClasses per seven-day
// window counted from startDate.
func CalculateCourseEndDate(startDate calendar.Date, courseHours, weeklyClasses int, holidays calendar.Set) (*models.CourseSchedule, error) {
	return calculateCourseSchedule(startDate, courseHours, weeklyClasses, holidays, DefaultMaxCourseSpanYears)
}

func calculateCourseSchedule(startDate calendar.Date, courseHours, weeklyClasses int, holidays calendar.Set, maxSpanYears int) (*models.CourseSchedule, error) {
	if err := validateCourseLoad(courseHours, weeklyClasses); err != nil {
		return nil, err
	}
	if maxSpanYears <= 0 {
		maxSpanYears = DefaultMaxCourseSpanYears
	}

	classDays := (courseHours + 1) / 2
	limit := startDate.AddDate(maxSpanYears, 0, 0)
	schedule := make([]models.ScheduledClass, 0, classDays)

	week, usedThisWeek := 0, 0
	for day := startDate; len(schedule) < classDays; day = day.AddDays(1) {
		if day.After(limit) {
			return nil, appErrors.Clone(appErrors.ErrOverflow,
				fmt.Sprintf("Course scheduling exceeded maximum duration (%d years)", maxSpanYears))
		}
		if !calendar.IsBusinessDay(day, holidays) {
			continue
		}
		if w := startDate.DaysUntil(day) / 7; w != week {
			week, usedThisWeek = w, 0
		}
		if usedThisWeek >= weeklyClasses {
			continue
		}
		usedThisWeek++
		schedule = append(schedule, models.ScheduledClass{
			Date:            day,
			ClassIndex:      len(schedule) + 1,
			DurationMinutes: models.ClassDurationMinutes,
		})
	}

	first, last := schedule[0].Date, schedule[len(schedule)-1].Date
	span := first.DaysUntil(last) + 1

	excluded := make([]calendar.Date, 0)
	for _, h := range holidays.Sorted() {
		if h.After(startDate) && h.Before(last) {
			excluded = append(excluded, h)
		}
	}

	return &models.CourseSchedule{
		StartDate:        startDate,
		EndDate:          last,
		ActualClassDays:  classDays,
		TotalWeeks:       (span + 6) / 7,
		Schedule:         schedule,
		HolidaysExcluded: excluded,
	}, nil
}

func validateCourseLoad(courseHours, weeklyClasses int) error {
	if courseHours <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "Course hours must be greater than 0")
	}
	if weeklyClasses < 1 || weeklyClasses > 7 {
		return appErrors.Clone(appErrors.ErrValidation, "Weekly classes must be between 1 and 7")
	}
	return nil
}

type holidayDateResolver interface {
	DatesInRange(ctx context.Context, start, end calendar.Date) (calendar.Set, error)
}

// CourseScheduleRequest is the input of a schedule computation.
type CourseScheduleRequest struct {
	StartDate       string `json:"start_date" validate:"required"`
	CourseHours     int    `json:"course_hours"`
	WeeklyClasses   int    `json:"weekly_classes"`
	ExcludeHolidays *bool  `json:"exclude_holidays"`
}

// CourseScheduleService resolves holidays for a course window and runs the scheduler.
type CourseScheduleService struct {
	holidays     holidayDateResolver
	maxSpanYears int
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewCourseScheduleService constructs the service.
func NewCourseScheduleService(holidays holidayDateResolver, maxSpanYears int, metrics *MetricsService, logger *zap.Logger) *CourseScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSpanYears <= 0 {
		maxSpanYears = DefaultMaxCourseSpanYears
	}
	if maxSpanYears > MaxCourseSpanYears {
		logger.Warn("course span clamped", zap.Int("requested_years", maxSpanYears), zap.Int("max_years", MaxCourseSpanYears))
		maxSpanYears = MaxCourseSpanYears
	}
	return &CourseScheduleService{holidays: holidays, maxSpanYears: maxSpanYears, metrics: metrics, logger: logger}
}

// Calculate computes the schedule. Holidays are honoured unless ExcludeHolidays is false.
func (s *CourseScheduleService) Calculate(ctx context.Context, req CourseScheduleRequest) (*models.CourseSchedule, error) {
	if req.StartDate == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date is required")
	}
	start, err := calendar.ParseISODate(req.StartDate)
	if err != nil {
		return nil, err
	}

	if err := validateCourseLoad(req.CourseHours, req.WeeklyClasses); err != nil {
		s.metrics.RecordSchedule(err)
		return nil, err
	}

	var holidays calendar.Set
	if req.ExcludeHolidays == nil || *req.ExcludeHolidays {
		holidays, err = s.holidays.DatesInRange(ctx, start, start.AddDate(s.maxSpanYears, 0, 0))
		if err != nil {
			return nil, err
		}
	}

	schedule, err := calculateCourseSchedule(start, req.CourseHours, req.WeeklyClasses, holidays, s.maxSpanYears)
	s.metrics.RecordSchedule(err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("course schedule computed",
		zap.Stringer("start", schedule.StartDate),
		zap.Stringer("end", schedule.EndDate),
		zap.Int("classes", schedule.ActualClassDays))
	return schedule, nil
}

// ExportedFile is a rendered schedule download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export computes the schedule and renders it as CSV or PDF.
func (s *CourseScheduleService) Export(ctx context.Context, req CourseScheduleRequest, format string) (*ExportedFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Export format must be csv or pdf")
	}
	renderer, err := export.RendererFor(f)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Export format must be csv or pdf")
	}
	schedule, err := s.Calculate(ctx, req)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(scheduleDataset(schedule))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}
	return &ExportedFile{
		Filename:    fmt.Sprintf("course-schedule-%s.%s", schedule.StartDate, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func scheduleDataset(schedule *models.CourseSchedule) export.Dataset {
	data := export.Dataset{
		Title: "Course schedule",
		Summary: []string{
			fmt.Sprintf("Start date: %s", schedule.StartDate),
			fmt.Sprintf("End date: %s", schedule.EndDate),
			fmt.Sprintf("Classes: %d over %d weeks", schedule.ActualClassDays, schedule.TotalWeeks),
		},
		Headers: []string{"Class", "Date", "Weekday", "Duration (min)"},
		Rows:    make([][]string, 0, len(schedule.Schedule)),
	}
	if len(schedule.HolidaysExcluded) > 0 {
		days := make([]string, len(schedule.HolidaysExcluded))
		for i, d := range schedule.HolidaysExcluded {
			days[i] = d.String()
		}
		data.Summary = append(data.Summary, fmt.Sprintf("Holidays skipped: %v", days))
	}
	for _, class := range schedule.Schedule {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(class.ClassIndex),
			class.Date.String(),
			class.Date.Weekday().String(),
			strconv.Itoa(class.DurationMinutes),
		})
	}
	return data
}
