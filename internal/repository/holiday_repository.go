package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
)

const holidayColumns = "id, date, name, year, is_national, created_at, updated_at"

// ErrDuplicateHoliday is returned when a holiday already exists for the date.
var ErrDuplicateHoliday = errors.New("holiday already exists for date")

// HolidayRepository reads and writes the holidays table.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListByYear returns the holidays of one calendar year.
func (r *HolidayRepository) ListByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	query := "SELECT " + holidayColumns + " FROM holidays WHERE year = $1 ORDER BY date ASC"
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, year); err != nil {
		return nil, fmt.Errorf("list holidays for %d: %w", year, err)
	}
	return holidays, nil
}

// ListInRange returns holidays dated within [start, end].
func (r *HolidayRepository) ListInRange(ctx context.Context, start, end calendar.Date) ([]models.Holiday, error) {
	query := "SELECT " + holidayColumns + " FROM holidays WHERE date BETWEEN $1 AND $2 ORDER BY date ASC"
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, start, end); err != nil {
		return nil, fmt.Errorf("list holidays in range: %w", err)
	}
	return holidays, nil
}

// GetByID fetches one holiday. sql.ErrNoRows is returned unwrapped, also for
// ids that are not UUIDs.
func (r *HolidayRepository) GetByID(ctx context.Context, id string) (*models.Holiday, error) {
	query := "SELECT " + holidayColumns + " FROM holidays WHERE id = $1"
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		if isInvalidID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &holiday, nil
}

// Create inserts a holiday; Year is derived from Date.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	holiday.Year = holiday.Date.Year
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now
	query := `INSERT INTO holidays (id, date, name, year, is_national, created_at, updated_at)
VALUES (:id, :date, :name, :year, :is_national, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateHoliday
		}
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday and reports whether a row existed.
func (r *HolidayRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = $1", id)
	if err != nil {
		if isInvalidID(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete holiday: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete holiday: %w", err)
	}
	return affected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isInvalidID reports a malformed key literal, e.g. a non-UUID id.
func isInvalidID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
