package service

import (
	"context"

	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
)

const maxBusinessDaysStep = 1000

// CalendarService answers business-day questions against the stored holidays.
type CalendarService struct {
	holidays holidayDateResolver
}

// NewCalendarService constructs the service.
func NewCalendarService(holidays holidayDateResolver) *CalendarService {
	return &CalendarService{holidays: holidays}
}

// WorkingDays counts the days of [start, end] by kind.
func (s *CalendarService) WorkingDays(ctx context.Context, start, end calendar.Date) (calendar.WorkingDays, error) {
	if start.After(end) {
		return calendar.WorkingDays{}, appErrors.Clone(appErrors.ErrRange, "Start date must be before or equal to end date")
	}
	holidays, err := s.holidays.DatesInRange(ctx, start, end)
	if err != nil {
		return calendar.WorkingDays{}, err
	}
	return calendar.CalculateWorkingDays(start, end, holidays)
}

// AddBusinessDays moves n business days past start. The holiday window grows
// until the result lands inside it.
func (s *CalendarService) AddBusinessDays(ctx context.Context, start calendar.Date, n int) (calendar.Date, error) {
	if n < 0 {
		return calendar.Date{}, appErrors.Clone(appErrors.ErrValidation, "Business days must be non-negative")
	}
	if n > maxBusinessDaysStep {
		return calendar.Date{}, appErrors.Clone(appErrors.ErrValidation, "Business days must not exceed 1000")
	}
	if n == 0 {
		return start, nil
	}

	span := n*2 + 31
	for {
		windowEnd := start.AddDays(span)
		holidays, err := s.holidays.DatesInRange(ctx, start, windowEnd)
		if err != nil {
			return calendar.Date{}, err
		}
		result, err := calendar.AddBusinessDays(start, n, holidays)
		if err != nil {
			return calendar.Date{}, err
		}
		if !result.After(windowEnd) {
			return result, nil
		}
		span *= 2
	}
}

// NextBusinessDay returns the first business day strictly after d.
func (s *CalendarService) NextBusinessDay(ctx context.Context, d calendar.Date) (calendar.Date, error) {
	return s.AddBusinessDays(ctx, d, 1)
}
