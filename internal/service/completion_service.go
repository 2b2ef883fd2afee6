package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
)

// DefaultCompletionThresholdDays is the "one month remaining" horizon.
const DefaultCompletionThresholdDays = 30

const (
	labelOneMonthRemaining = "One month remaining"
	labelLastClass         = "Last class"
)

// CalculateCompletionStatus classifies endDate relative to today. daysRemaining
// is reported for any end date not yet passed.
func CalculateCompletionStatus(endDate, today calendar.Date, thresholdDays int) models.CompletionStatus {
	remaining := today.DaysUntil(endDate)
	if remaining < 0 {
		return models.CompletionStatus{Type: models.CompletionNone}
	}
	if remaining <= thresholdDays {
		return models.CompletionStatus{
			Type:             models.CompletionOneMonthRemaining,
			Label:            labelOneMonthRemaining,
			DaysRemaining:    remaining,
			IsWithinOneMonth: true,
		}
	}
	return models.CompletionStatus{Type: models.CompletionNone, DaysRemaining: remaining}
}

// CompletionStatusForClass marks the session held on the end date as the last class.
func CompletionStatusForClass(endDate calendar.Date, classDate *calendar.Date, today calendar.Date, thresholdDays int) models.CompletionStatus {
	status := CalculateCompletionStatus(endDate, today, thresholdDays)
	if classDate != nil && classDate.Equal(endDate) {
		status.Type = models.CompletionLastClass
		status.Label = labelLastClass
		status.IsLastClass = true
	}
	return status
}

// StudentIndicators keeps the enrollments that carry a completion badge.
func StudentIndicators(students []models.EnrollmentEndDate, classDate *calendar.Date, today calendar.Date, thresholdDays int) []models.StudentIndicator {
	out := make([]models.StudentIndicator, 0, len(students))
	for _, st := range students {
		status := CompletionStatusForClass(st.EndDate, classDate, today, thresholdDays)
		if status.Type == models.CompletionNone {
			continue
		}
		out = append(out, models.StudentIndicator{
			StudentID:     st.StudentID,
			StudentName:   st.StudentName,
			EnrollmentID:  st.EnrollmentID,
			IndicatorType: status.Type,
			EndDate:       st.EndDate,
			DaysRemaining: status.DaysRemaining,
		})
	}
	return out
}

type endDateLister interface {
	ListActiveEndDates(ctx context.Context, teacherID string) ([]models.EnrollmentEndDate, error)
}

// CompletionStatusRequest classifies one enrollment. Dates are ISO strings;
// CurrentDate defaults to today in the service's time zone.
type CompletionStatusRequest struct {
	EndDate     string `json:"end_date" validate:"required"`
	ClassDate   string `json:"class_date"`
	CurrentDate string `json:"current_date"`
}

// IndicatorsRequest lists enrollments to badge.
type IndicatorsRequest struct {
	Students    []models.EnrollmentEndDate `json:"students" validate:"dive"`
	ClassDate   string                     `json:"class_date"`
	CurrentDate string                     `json:"current_date"`
}

// CompletionService exposes the classifier over ISO inputs and the enrollment store.
type CompletionService struct {
	enrollments   endDateLister
	thresholdDays int
	loc           *time.Location
	now           func() time.Time
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewCompletionService constructs the service.
func NewCompletionService(enrollments endDateLister, thresholdDays int, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *CompletionService {
	if thresholdDays <= 0 {
		thresholdDays = DefaultCompletionThresholdDays
	}
	if loc == nil {
		loc = time.UTC
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{
		enrollments:   enrollments,
		thresholdDays: thresholdDays,
		loc:           loc,
		now:           time.Now,
		validator:     validate,
		logger:        logger,
	}
}

// Status classifies a single enrollment end date.
func (s *CompletionService) Status(req CompletionStatusRequest) (models.CompletionStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.CompletionStatus{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "End date is required")
	}
	end, err := calendar.ParseISODate(req.EndDate)
	if err != nil {
		return models.CompletionStatus{}, err
	}
	classDate, err := optionalDate(req.ClassDate)
	if err != nil {
		return models.CompletionStatus{}, err
	}
	today, err := s.today(req.CurrentDate)
	if err != nil {
		return models.CompletionStatus{}, err
	}
	return CompletionStatusForClass(end, classDate, today, s.thresholdDays), nil
}

// Indicators badges the supplied enrollments.
func (s *CompletionService) Indicators(req IndicatorsRequest) ([]models.StudentIndicator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid indicator payload")
	}
	for _, st := range req.Students {
		if st.EndDate.IsZero() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "End date is required")
		}
	}
	classDate, err := optionalDate(req.ClassDate)
	if err != nil {
		return nil, err
	}
	today, err := s.today(req.CurrentDate)
	if err != nil {
		return nil, err
	}
	return StudentIndicators(req.Students, classDate, today, s.thresholdDays), nil
}

// TeacherIndicators badges every active enrollment in the teacher's slots.
func (s *CompletionService) TeacherIndicators(ctx context.Context, teacherID, classDate string) ([]models.StudentIndicator, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}
	class, err := optionalDate(classDate)
	if err != nil {
		return nil, err
	}
	students, err := s.enrollments.ListActiveEndDates(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Store(err, "Failed to fetch enrollments")
	}
	return StudentIndicators(students, class, calendar.Today(s.loc), s.thresholdDays), nil
}

func (s *CompletionService) today(raw string) (calendar.Date, error) {
	if raw == "" {
		return calendar.DateOf(s.now().In(s.loc)), nil
	}
	return calendar.ParseISODate(raw)
}

func optionalDate(raw string) (*calendar.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.ParseISODate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
