package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/internal/service"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	"github.com/noah-isme/sma-scheduling-api/pkg/response"
)

type availabilityService interface {
	AvailableSlots(ctx context.Context, teacherID string, start, end calendar.Date) ([]models.ResolvedSlot, error)
	AggregateAvailabilityForCalendar(ctx context.Context, teacherID string, month, year int) (*models.CalendarMonthAvailability, error)
	NextAvailableSlot(ctx context.Context, teacherID string, after calendar.Date) (*models.ResolvedSlot, error)
	DetectAvailabilityOverlaps(ctx context.Context, teacherID string) ([]models.OverlapReport, error)
	ValidateTeacherAvailability(ctx context.Context, teacherID string) (*models.AvailabilityValidation, error)
	CheckCapacityConflicts(ctx context.Context, slotID string, req service.CapacityCheckRequest) (bool, error)
	CreatePattern(ctx context.Context, teacherID string, req service.AvailabilityPatternRequest) (*models.AvailabilityPattern, error)
	UpdatePattern(ctx context.Context, teacherID, patternID string, req service.AvailabilityPatternRequest) (*models.AvailabilityPattern, error)
	DeletePattern(ctx context.Context, teacherID, patternID string) error
}

// AvailabilityHandler exposes teacher availability, capacity and overlap endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Slots godoc
// @Summary Resolve a teacher's bookable slots in a date range
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	slots, err := h.service.AvailableSlots(c.Request.Context(), id, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots, map[string]interface{}{"count": len(slots)})
}

// Calendar godoc
// @Summary Month view of a teacher's slots grouped by date
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year (2020-2050)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/calendar [get]
func (h *AvailabilityHandler) Calendar(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return
	}
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	view, err := h.service.AggregateAvailabilityForCalendar(c.Request.Context(), id, month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Next godoc
// @Summary First slot with free seats after a date
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param after query string true "Search start (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/next [get]
func (h *AvailabilityHandler) Next(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	after, ok := queryDate(c, "after")
	if !ok {
		return
	}
	slot, err := h.service.NextAvailableSlot(c.Request.Context(), id, after)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"slot": slot})
}

// Overlaps godoc
// @Summary Same-weekday patterns whose time windows intersect
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/overlaps [get]
func (h *AvailabilityHandler) Overlaps(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	reports, err := h.service.DetectAvailabilityOverlaps(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reports)
}

// Validation godoc
// @Summary Audit a teacher's availability configuration
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/validation [get]
func (h *AvailabilityHandler) Validation(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	result, err := h.service.ValidateTeacherAvailability(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// CapacityCheck godoc
// @Summary Check whether more students fit an availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param slotId path string true "Availability slot ID"
// @Param payload body service.CapacityCheckRequest true "Requested seats"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /availability/{slotId}/capacity-check [post]
func (h *AvailabilityHandler) CapacityCheck(c *gin.Context) {
	slotID := strings.TrimSpace(c.Param("slotId"))
	var req service.CapacityCheckRequest
	if !bindJSON(c, &req, "invalid capacity check payload") {
		return
	}
	exceeds, err := h.service.CheckCapacityConflicts(c.Request.Context(), slotID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"slot_id": slotID, "requested_capacity": req.RequestedCapacity, "exceeds_capacity": exceeds})
}

// Create godoc
// @Summary Add a weekly availability pattern
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.AvailabilityPatternRequest true "Pattern"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req service.AvailabilityPatternRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	pattern, err := h.service.CreatePattern(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

// Update godoc
// @Summary Replace a weekly availability pattern
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param slotId path string true "Pattern ID"
// @Param payload body service.AvailabilityPatternRequest true "Pattern"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/{slotId} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req service.AvailabilityPatternRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	pattern, err := h.service.UpdatePattern(c.Request.Context(), id, strings.TrimSpace(c.Param("slotId")), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pattern)
}

// Delete godoc
// @Summary Remove a weekly availability pattern
// @Tags Availability
// @Param id path string true "Teacher ID"
// @Param slotId path string true "Pattern ID"
// @Success 204
// @Router /teachers/{id}/availability/{slotId} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	if err := h.service.DeletePattern(c.Request.Context(), id, strings.TrimSpace(c.Param("slotId"))); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
