package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-scheduling-api/internal/service"
)

func TestMetricsObservesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/holidays/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/holidays/1", "/holidays/2", "/missing"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}
