package calendar

import (
	"sort"
	"time"

	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
)

// Set is a collection of calendar days, typically holidays.
type Set map[Date]struct{}

// NewSet builds a set from the given dates.
func NewSet(dates ...Date) Set {
	s := make(Set, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Contains reports membership; a nil set contains nothing.
func (s Set) Contains(d Date) bool {
	if s == nil {
		return false
	}
	_, ok := s[d]
	return ok
}

// Add inserts d.
func (s Set) Add(d Date) {
	s[d] = struct{}{}
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Range is an inclusive span of days.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies in [Start, End].
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the inclusive number of days in the range.
func (r Range) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsBusinessDay is false on weekends and on any day present in holidays.
func IsBusinessDay(d Date, holidays Set) bool {
	return !IsWeekend(d) && !holidays.Contains(d)
}

// AddBusinessDays steps forward from start until n business days have been passed.
// The start day itself never counts.
func AddBusinessDays(start Date, n int, holidays Set) (Date, error) {
	if n < 0 {
		return Date{}, appErrors.Clone(appErrors.ErrValidation, "Business days must be non-negative")
	}
	current := start
	for added := 0; added < n; {
		current = current.AddDays(1)
		if IsBusinessDay(current, holidays) {
			added++
		}
	}
	return current, nil
}

// NextBusinessDay returns the first business day strictly after d.
func NextBusinessDay(d Date, holidays Set) Date {
	next := d.AddDays(1)
	for !IsBusinessDay(next, holidays) {
		next = next.AddDays(1)
	}
	return next
}

// WorkingDays summarises an inclusive span.
type WorkingDays struct {
	TotalDays        int `json:"total_days"`
	WorkingDays      int `json:"working_days"`
	ExcludedWeekends int `json:"excluded_weekends"`
	ExcludedHolidays int `json:"excluded_holidays"`
}

// CalculateWorkingDays counts weekends, holidays and business days in [start, end].
// A holiday falling on a weekend is counted as a weekend.
func CalculateWorkingDays(start, end Date, holidays Set) (WorkingDays, error) {
	if start.After(end) {
		return WorkingDays{}, appErrors.Clone(appErrors.ErrRange, "Start date must be before or equal to end date")
	}
	var out WorkingDays
	for d := start; !d.After(end); d = d.AddDays(1) {
		out.TotalDays++
		switch {
		case IsWeekend(d):
			out.ExcludedWeekends++
		case holidays.Contains(d):
			out.ExcludedHolidays++
		default:
			out.WorkingDays++
		}
	}
	return out, nil
}

// BusinessDaysBetween is the inclusive business day count, 0 for a reversed range.
func BusinessDaysBetween(start, end Date, holidays Set) int {
	result, err := CalculateWorkingDays(start, end, holidays)
	if err != nil {
		return 0
	}
	return result.WorkingDays
}
