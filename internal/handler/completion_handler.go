package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/internal/service"
	"github.com/noah-isme/sma-scheduling-api/pkg/response"
)

type completionService interface {
	Status(req service.CompletionStatusRequest) (models.CompletionStatus, error)
	Indicators(req service.IndicatorsRequest) ([]models.StudentIndicator, error)
	TeacherIndicators(ctx context.Context, teacherID, classDate string) ([]models.StudentIndicator, error)
}

// CompletionHandler exposes the completion-status classifier.
type CompletionHandler struct {
	service completionService
}

// NewCompletionHandler constructs the handler.
func NewCompletionHandler(service completionService) *CompletionHandler {
	return &CompletionHandler{service: service}
}

// Status godoc
// @Summary Classify how close an enrollment is to completion
// @Tags Completion
// @Accept json
// @Produce json
// @Param payload body service.CompletionStatusRequest true "End date and optional class date"
// @Success 200 {object} response.Envelope
// @Router /completion/status [post]
func (h *CompletionHandler) Status(c *gin.Context) {
	var req service.CompletionStatusRequest
	if !bindJSON(c, &req, "invalid completion payload") {
		return
	}
	status, err := h.service.Status(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Indicators godoc
// @Summary Completion badges for a list of enrollments
// @Tags Completion
// @Accept json
// @Produce json
// @Param payload body service.IndicatorsRequest true "Enrollments"
// @Success 200 {object} response.Envelope
// @Router /completion/indicators [post]
func (h *CompletionHandler) Indicators(c *gin.Context) {
	var req service.IndicatorsRequest
	if !bindJSON(c, &req, "invalid indicator payload") {
		return
	}
	indicators, err := h.service.Indicators(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, indicators)
}

// TeacherIndicators godoc
// @Summary Completion badges for every active enrollment of a teacher
// @Tags Completion
// @Produce json
// @Param id path string true "Teacher ID"
// @Param class_date query string false "Class date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/completion-indicators [get]
func (h *CompletionHandler) TeacherIndicators(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	indicators, err := h.service.TeacherIndicators(c.Request.Context(), id, c.Query("class_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, indicators)
}
