package models

import (
	"time"

	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
)

// DayNames maps day_of_week (0=Sunday) to display names.
var DayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName returns the display name or "Unknown".
func DayName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek >= len(DayNames) {
		return "Unknown"
	}
	return DayNames[dayOfWeek]
}

// AvailabilityPattern is a recurring weekly teaching window of a teacher.
type AvailabilityPattern struct {
	ID          string         `db:"id" json:"id"`
	TeacherID   string         `db:"teacher_id" json:"teacher_id"`
	DayOfWeek   int            `db:"day_of_week" json:"day_of_week"`
	StartTime   calendar.Clock `db:"start_time" json:"start_time"`
	EndTime     calendar.Clock `db:"end_time" json:"end_time"`
	MaxStudents int            `db:"max_students" json:"max_students"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ResolvedSlot is one dated occurrence of an AvailabilityPattern.
type ResolvedSlot struct {
	AvailabilityPatternID string         `json:"availability_pattern_id"`
	TeacherID             string         `json:"teacher_id"`
	Date                  calendar.Date  `json:"date"`
	DayOfWeek             int            `json:"day_of_week"`
	DayOfWeekName         string         `json:"day_of_week_name"`
	StartTime             calendar.Clock `json:"start_time"`
	EndTime               calendar.Clock `json:"end_time"`
	MaxStudents           int            `json:"max_students"`
	CurrentEnrollment     int            `json:"current_enrollment"`
	AvailableSpots        int            `json:"available_spots"`
	IsBlockedByHoliday    bool           `json:"is_blocked_by_holiday"`
}

// CapacityInfo summarises seats for a slot or a whole day.
type CapacityInfo struct {
	MaxStudents        int  `json:"max_students"`
	CurrentEnrollments int  `json:"current_enrollments"`
	AvailableSpots     int  `json:"available_spots"`
	IsAtCapacity       bool `json:"is_at_capacity"`
}

// DayAvailability aggregates the resolved slots of a single date.
type DayAvailability struct {
	Date           calendar.Date  `json:"date"`
	TotalSlots     int            `json:"total_slots"`
	AvailableSlots int            `json:"available_slots"`
	FullSlots      int            `json:"full_slots"`
	Capacity       CapacityInfo   `json:"capacity"`
	Slots          []ResolvedSlot `json:"slots"`
}

// CalendarMonthAvailability is the month view of a teacher's slots.
type CalendarMonthAvailability struct {
	TeacherID string            `json:"teacher_id"`
	Month     int               `json:"month"`
	Year      int               `json:"year"`
	Days      []DayAvailability `json:"days"`
}

// OverlapReport flags two same-weekday patterns whose windows intersect.
type OverlapReport struct {
	PatternIDA     string `json:"pattern_id_a"`
	PatternIDB     string `json:"pattern_id_b"`
	DayOfWeek      int    `json:"day_of_week"`
	OverlapMinutes int    `json:"overlap_minutes"`
}

// AvailabilityValidation lists consistency problems in a teacher's patterns.
type AvailabilityValidation struct {
	TeacherID string   `json:"teacher_id"`
	IsValid   bool     `json:"is_valid"`
	Issues    []string `json:"issues"`
	Warnings  []string `json:"warnings"`
}

// SlotKey identifies one dated occurrence of a pattern.
type SlotKey struct {
	PatternID string
	Date      calendar.Date
}
