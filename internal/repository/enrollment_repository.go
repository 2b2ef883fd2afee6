package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
)

const enrollmentStatusActive = "active"

// EnrollmentRepository answers seat-count questions over course_enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CountActive counts active enrollments booked on a pattern across all dates.
func (r *EnrollmentRepository) CountActive(ctx context.Context, patternID string) (int, error) {
	const query = `SELECT COUNT(*) FROM course_enrollments WHERE availability_slot_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, patternID, enrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// CountActiveOn counts active enrollments of one dated occurrence.
func (r *EnrollmentRepository) CountActiveOn(ctx context.Context, patternID string, date calendar.Date) (int, error) {
	const query = `SELECT COUNT(*) FROM course_enrollments WHERE availability_slot_id = $1 AND class_date = $2 AND status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, patternID, date, enrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// CountActiveInRange counts active enrollments per (pattern, date) in one round trip.
// Occurrences with no enrollments are absent from the map.
func (r *EnrollmentRepository) CountActiveInRange(ctx context.Context, patternIDs []string, start, end calendar.Date) (map[models.SlotKey]int, error) {
	counts := make(map[models.SlotKey]int)
	if len(patternIDs) == 0 {
		return counts, nil
	}
	const query = `SELECT availability_slot_id, class_date, COUNT(*) AS total FROM course_enrollments
WHERE availability_slot_id = ANY($1) AND class_date BETWEEN $2 AND $3 AND status = $4
GROUP BY availability_slot_id, class_date`
	var rows []struct {
		PatternID string        `db:"availability_slot_id"`
		ClassDate calendar.Date `db:"class_date"`
		Total     int           `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(patternIDs), start, end, enrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("count enrollments in range: %w", err)
	}
	for _, row := range rows {
		counts[models.SlotKey{PatternID: row.PatternID, Date: row.ClassDate}] = row.Total
	}
	return counts, nil
}

// ListActiveEndDates returns the course end date of every active enrollment taught by a teacher.
func (r *EnrollmentRepository) ListActiveEndDates(ctx context.Context, teacherID string) ([]models.EnrollmentEndDate, error) {
	const query = `SELECT e.id AS enrollment_id, e.student_id, e.student_name, e.end_date
FROM course_enrollments e
JOIN teacher_availability a ON a.id = e.availability_slot_id
WHERE a.teacher_id = $1 AND e.status = $2 AND e.end_date IS NOT NULL
ORDER BY e.end_date ASC, e.student_name ASC`
	var rows []models.EnrollmentEndDate
	if err := r.db.SelectContext(ctx, &rows, query, teacherID, enrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollment end dates: %w", err)
	}
	return rows, nil
}
