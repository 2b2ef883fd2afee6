package models

import "github.com/noah-isme/sma-scheduling-api/pkg/calendar"

// CompletionType classifies how close an enrollment is to its end date.
type CompletionType string

// Completion types.
const (
	CompletionNone              CompletionType = "none"
	CompletionOneMonthRemaining CompletionType = "one_month_remaining"
	CompletionLastClass         CompletionType = "last_class"
)

// CompletionStatus is the derived completion-proximity label of an enrollment.
type CompletionStatus struct {
	Type             CompletionType `json:"type"`
	Label            string         `json:"label"`
	DaysRemaining    int            `json:"days_remaining"`
	IsLastClass      bool           `json:"is_last_class"`
	IsWithinOneMonth bool           `json:"is_within_one_month"`
}

// EnrollmentEndDate identifies a student enrollment and its course end date.
type EnrollmentEndDate struct {
	StudentID    string        `db:"student_id" json:"student_id" validate:"required"`
	StudentName  string        `db:"student_name" json:"student_name"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollment_id" validate:"required"`
	EndDate      calendar.Date `db:"end_date" json:"end_date"`
}

// StudentIndicator is a completion badge for calendar rendering.
type StudentIndicator struct {
	StudentID     string         `json:"student_id"`
	StudentName   string         `json:"student_name"`
	EnrollmentID  string         `json:"enrollment_id"`
	IndicatorType CompletionType `json:"indicator_type"`
	EndDate       calendar.Date  `json:"end_date"`
	DaysRemaining int            `json:"days_remaining"`
}
