package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
	"github.com/noah-isme/sma-scheduling-api/pkg/response"
)

// queryDate reads an ISO date query parameter, writing the error response on failure.
func queryDate(c *gin.Context, key string) (calendar.Date, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", key)))
		return calendar.Date{}, false
	}
	d, err := calendar.ParseISODate(raw)
	if err != nil {
		response.Error(c, err)
		return calendar.Date{}, false
	}
	return d, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", key)))
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be an integer", key)))
		return 0, false
	}
	return v, true
}

func teacherID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required"))
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrFormat.Code {
			response.Error(c, appErr)
			return false
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
