package models

import (
	"time"

	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
)

// Holiday is a non-teaching calendar day owned by the holiday store.
type Holiday struct {
	ID         string        `db:"id" json:"id"`
	Date       calendar.Date `db:"date" json:"date"`
	Name       string        `db:"name" json:"name"`
	Year       int           `db:"year" json:"year"`
	IsNational bool          `db:"is_national" json:"is_national"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// HolidayDates collapses holidays into a set of calendar days.
func HolidayDates(holidays []Holiday) calendar.Set {
	set := make(calendar.Set, len(holidays))
	for _, h := range holidays {
		set.Add(h.Date)
	}
	return set
}
