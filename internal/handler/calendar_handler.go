package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	"github.com/noah-isme/sma-scheduling-api/pkg/response"
)

type calendarService interface {
	WorkingDays(ctx context.Context, start, end calendar.Date) (calendar.WorkingDays, error)
	AddBusinessDays(ctx context.Context, start calendar.Date, n int) (calendar.Date, error)
	NextBusinessDay(ctx context.Context, d calendar.Date) (calendar.Date, error)
}

// CalendarHandler exposes business-day arithmetic.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// BusinessDays godoc
// @Summary Count working days, weekends and holidays in a range
// @Tags Calendar
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar/business-days [get]
func (h *CalendarHandler) BusinessDays(c *gin.Context) {
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	result, err := h.service.WorkingDays(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// AddBusinessDays godoc
// @Summary Move a date forward by business days
// @Tags Calendar
// @Produce json
// @Param date query string true "Start date (YYYY-MM-DD)"
// @Param days query int true "Business days to add"
// @Success 200 {object} response.Envelope
// @Router /calendar/add-business-days [get]
func (h *CalendarHandler) AddBusinessDays(c *gin.Context) {
	start, ok := queryDate(c, "date")
	if !ok {
		return
	}
	days, ok := queryInt(c, "days")
	if !ok {
		return
	}
	result, err := h.service.AddBusinessDays(c.Request.Context(), start, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"date": start, "days": days, "result": result})
}

// NextBusinessDay godoc
// @Summary First business day after a date
// @Tags Calendar
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar/next-business-day [get]
func (h *CalendarHandler) NextBusinessDay(c *gin.Context) {
	d, ok := queryDate(c, "date")
	if !ok {
		return
	}
	result, err := h.service.NextBusinessDay(c.Request.Context(), d)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"date": d, "result": result})
}
