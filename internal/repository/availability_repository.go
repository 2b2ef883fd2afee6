package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
)

const availabilityColumns = "id, teacher_id, day_of_week, start_time, end_time, max_students, is_active, created_at, updated_at"

// AvailabilityRepository persists teacher_availability patterns.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListActiveByTeacher returns the active patterns of a teacher by weekday then start time.
func (r *AvailabilityRepository) ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityPattern, error) {
	query := "SELECT " + availabilityColumns + ` FROM teacher_availability
WHERE teacher_id = $1 AND is_active = TRUE ORDER BY day_of_week ASC, start_time ASC`
	var patterns []models.AvailabilityPattern
	if err := r.db.SelectContext(ctx, &patterns, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return patterns, nil
}

// GetByID fetches a pattern regardless of its active flag. sql.ErrNoRows is
// returned unwrapped; a malformed id is reported the same way.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityPattern, error) {
	query := "SELECT " + availabilityColumns + " FROM teacher_availability WHERE id = $1"
	var pattern models.AvailabilityPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		if isInvalidID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &pattern, nil
}

// Create inserts a pattern.
func (r *AvailabilityRepository) Create(ctx context.Context, pattern *models.AvailabilityPattern) error {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = now
	}
	pattern.UpdatedAt = now
	query := `INSERT INTO teacher_availability (id, teacher_id, day_of_week, start_time, end_time, max_students, is_active, created_at, updated_at)
VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :max_students, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("create teacher availability: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a pattern.
func (r *AvailabilityRepository) Update(ctx context.Context, pattern *models.AvailabilityPattern) error {
	pattern.UpdatedAt = time.Now().UTC()
	query := `UPDATE teacher_availability SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
max_students = :max_students, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("update teacher availability: %w", err)
	}
	return nil
}

// Delete removes a pattern.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM teacher_availability WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete teacher availability: %w", err)
	}
	return nil
}
