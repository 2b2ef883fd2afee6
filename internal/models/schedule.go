package models

import "github.com/noah-isme/sma-scheduling-api/pkg/calendar"

// ClassDurationMinutes is the fixed length of a class session.
const ClassDurationMinutes = 120

// ScheduledClass is one class session of a course.
type ScheduledClass struct {
	Date            calendar.Date `json:"date"`
	ClassIndex      int           `json:"class_index"`
	DurationMinutes int           `json:"duration_minutes"`
}

// CourseSchedule is the output of the business-day scheduler.
type CourseSchedule struct {
	StartDate        calendar.Date    `json:"start_date"`
	EndDate          calendar.Date    `json:"end_date"`
	ActualClassDays  int              `json:"actual_class_days"`
	TotalWeeks       int              `json:"total_weeks"`
	Schedule         []ScheduledClass `json:"schedule"`
	HolidaysExcluded []calendar.Date  `json:"holidays_excluded"`
}
