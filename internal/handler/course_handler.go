package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/internal/service"
	"github.com/noah-isme/sma-scheduling-api/pkg/response"
)

type courseScheduleService interface {
	Calculate(ctx context.Context, req service.CourseScheduleRequest) (*models.CourseSchedule, error)
	Export(ctx context.Context, req service.CourseScheduleRequest, format string) (*service.ExportedFile, error)
}

// CourseHandler exposes the course scheduler.
type CourseHandler struct {
	service courseScheduleService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service courseScheduleService) *CourseHandler {
	return &CourseHandler{service: service}
}

// Schedule godoc
// @Summary Compute the class calendar and end date of a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseScheduleRequest true "Course parameters"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/schedule [post]
func (h *CourseHandler) Schedule(c *gin.Context) {
	var req service.CourseScheduleRequest
	if !bindJSON(c, &req, "invalid course schedule payload") {
		return
	}
	schedule, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// Export godoc
// @Summary Download the course schedule as CSV or PDF
// @Tags Courses
// @Accept json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param payload body service.CourseScheduleRequest true "Course parameters"
// @Success 200 {file} file
// @Router /courses/schedule/export [post]
func (h *CourseHandler) Export(c *gin.Context) {
	var req service.CourseScheduleRequest
	if !bindJSON(c, &req, "invalid course schedule payload") {
		return
	}
	file, err := h.service.Export(c.Request.Context(), req, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
