package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/internal/service"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
)

type availabilityServiceMock struct {
	teacherID  string
	month      int
	year       int
	capacity   service.CapacityCheckRequest
	exceeds    bool
	patternReq service.AvailabilityPatternRequest
	patternID  string
	next       *models.ResolvedSlot
	err        error
}

func (m *availabilityServiceMock) AvailableSlots(ctx context.Context, teacherID string, start, end calendar.Date) ([]models.ResolvedSlot, error) {
	m.teacherID = teacherID
	if m.err != nil {
		return nil, m.err
	}
	return []models.ResolvedSlot{{AvailabilityPatternID: "p1", Date: start, AvailableSpots: 3}}, nil
}

func (m *availabilityServiceMock) AggregateAvailabilityForCalendar(ctx context.Context, teacherID string, month, year int) (*models.CalendarMonthAvailability, error) {
	m.month, m.year = month, year
	return &models.CalendarMonthAvailability{TeacherID: teacherID, Month: month, Year: year}, m.err
}

func (m *availabilityServiceMock) NextAvailableSlot(ctx context.Context, teacherID string, after calendar.Date) (*models.ResolvedSlot, error) {
	return m.next, m.err
}

func (m *availabilityServiceMock) DetectAvailabilityOverlaps(ctx context.Context, teacherID string) ([]models.OverlapReport, error) {
	return []models.OverlapReport{{PatternIDA: "a", PatternIDB: "b", DayOfWeek: 1, OverlapMinutes: 60}}, m.err
}

func (m *availabilityServiceMock) ValidateTeacherAvailability(ctx context.Context, teacherID string) (*models.AvailabilityValidation, error) {
	return &models.AvailabilityValidation{TeacherID: teacherID, IsValid: true}, m.err
}

func (m *availabilityServiceMock) CheckCapacityConflicts(ctx context.Context, slotID string, req service.CapacityCheckRequest) (bool, error) {
	m.capacity = req
	return m.exceeds, m.err
}

func (m *availabilityServiceMock) CreatePattern(ctx context.Context, teacherID string, req service.AvailabilityPatternRequest) (*models.AvailabilityPattern, error) {
	m.teacherID, m.patternReq = teacherID, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AvailabilityPattern{ID: "p1", TeacherID: teacherID, DayOfWeek: *req.DayOfWeek}, nil
}

func (m *availabilityServiceMock) UpdatePattern(ctx context.Context, teacherID, patternID string, req service.AvailabilityPatternRequest) (*models.AvailabilityPattern, error) {
	m.patternID = patternID
	if m.err != nil {
		return nil, m.err
	}
	return &models.AvailabilityPattern{ID: patternID, TeacherID: teacherID}, nil
}

func (m *availabilityServiceMock) DeletePattern(ctx context.Context, teacherID, patternID string) error {
	m.patternID = patternID
	return m.err
}

func availabilityRouter(m *availabilityServiceMock) http.Handler {
	h := NewAvailabilityHandler(m)
	r := newRouter()
	r.GET("/teachers/:id/availability", h.Slots)
	r.POST("/teachers/:id/availability", h.Create)
	r.GET("/teachers/:id/availability/calendar", h.Calendar)
	r.GET("/teachers/:id/availability/next", h.Next)
	r.GET("/teachers/:id/availability/overlaps", h.Overlaps)
	r.GET("/teachers/:id/availability/validation", h.Validation)
	r.PUT("/teachers/:id/availability/:slotId", h.Update)
	r.DELETE("/teachers/:id/availability/:slotId", h.Delete)
	r.POST("/availability/:slotId/capacity-check", h.CapacityCheck)
	return r
}

func TestAvailabilityHandlerSlots(t *testing.T) {
	m := &availabilityServiceMock{}
	w := perform(availabilityRouter(m), http.MethodGet, "/teachers/t1/availability?start_date=2025-01-06&end_date=2025-01-31", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", m.teacherID)
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"availability_pattern_id":"p1"`)
	assert.EqualValues(t, 1, env.Meta["count"])

	m.err = appErrors.Store(assert.AnError, "Failed to fetch teacher availability")
	w = perform(availabilityRouter(m), http.MethodGet, "/teachers/t1/availability?start_date=2025-01-06&end_date=2025-01-31", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error.Message, assert.AnError.Error())
}

func TestAvailabilityHandlerCalendarAndNext(t *testing.T) {
	m := &availabilityServiceMock{}
	r := availabilityRouter(m)

	w := perform(r, http.MethodGet, "/teachers/t1/availability/calendar?month=2&year=2025", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, m.month)
	assert.Equal(t, 2025, m.year)

	w = perform(r, http.MethodGet, "/teachers/t1/availability/calendar?month=feb&year=2025", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/teachers/t1/availability/next?after=2025-01-06", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"slot":null}`, string(decodeEnvelope(t, w).Data))
}

func TestAvailabilityHandlerOverlapsAndValidation(t *testing.T) {
	r := availabilityRouter(&availabilityServiceMock{})

	w := perform(r, http.MethodGet, "/teachers/t1/availability/overlaps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"overlap_minutes":60`)

	w = perform(r, http.MethodGet, "/teachers/t1/availability/validation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"is_valid":true`)
}

func TestAvailabilityHandlerCapacityCheck(t *testing.T) {
	m := &availabilityServiceMock{exceeds: true}
	w := perform(availabilityRouter(m), http.MethodPost, "/availability/slot-1/capacity-check", `{"requested_capacity":5}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, m.capacity.RequestedCapacity)
	assert.JSONEq(t, `{"slot_id":"slot-1","requested_capacity":5,"exceeds_capacity":true}`, string(decodeEnvelope(t, w).Data))

	m.err = appErrors.Clone(appErrors.ErrNotFound, "Availability slot not found")
	w = perform(availabilityRouter(m), http.MethodPost, "/availability/slot-1/capacity-check", `{"requested_capacity":5}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailabilityHandlerPatternWrites(t *testing.T) {
	m := &availabilityServiceMock{}
	r := availabilityRouter(m)

	w := perform(r, http.MethodPost, "/teachers/t1/availability", `{"day_of_week":0,"start_time":"09:00","end_time":"11:00","max_students":5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, m.patternReq.DayOfWeek)
	assert.Equal(t, 0, *m.patternReq.DayOfWeek)

	w = perform(r, http.MethodPut, "/teachers/t1/availability/p9", `{"day_of_week":2,"start_time":"09:00","end_time":"11:00","max_students":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p9", m.patternID)

	w = perform(r, http.MethodDelete, "/teachers/t1/availability/p9", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = perform(r, http.MethodPost, "/teachers/t1/availability", `[]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
