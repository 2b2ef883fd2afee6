package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-scheduling-api/internal/middleware"
	"github.com/noah-isme/sma-scheduling-api/internal/service"
	"github.com/noah-isme/sma-scheduling-api/pkg/config"
	"github.com/noah-isme/sma-scheduling-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-scheduling-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	holiday      *handler.HolidayHandler
	calendar     *handler.CalendarHandler
	course       *handler.CourseHandler
	availability *handler.AvailabilityHandler
	completion   *handler.CompletionHandler
	stream       *handler.StreamHandler
	metrics      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h routeHandlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	r.GET("/metrics/summary", h.metrics.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.RateLimit.Enabled {
		api.Use(internalmiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logr).Middleware())
	}

	holidays := api.Group("/holidays")
	holidays.GET("", h.holiday.List)
	holidays.POST("", h.holiday.Create)
	holidays.DELETE("/:id", h.holiday.Delete)

	cal := api.Group("/calendar")
	cal.GET("/business-days", h.calendar.BusinessDays)
	cal.GET("/add-business-days", h.calendar.AddBusinessDays)
	cal.GET("/next-business-day", h.calendar.NextBusinessDay)

	courses := api.Group("/courses")
	courses.POST("/schedule", h.course.Schedule)
	if cfg.Exports.Enabled {
		courses.POST("/schedule/export", h.course.Export)
	}

	completion := api.Group("/completion")
	completion.POST("/status", h.completion.Status)
	completion.POST("/indicators", h.completion.Indicators)

	api.POST("/availability/:slotId/capacity-check", h.availability.CapacityCheck)

	teachers := api.Group("/teachers/:id")
	teachers.GET("/completion-indicators", h.completion.TeacherIndicators)

	availability := teachers.Group("/availability")
	availability.GET("", h.availability.Slots)
	availability.POST("", h.availability.Create)
	availability.GET("/calendar", h.availability.Calendar)
	availability.GET("/next", h.availability.Next)
	availability.GET("/overlaps", h.availability.Overlaps)
	availability.GET("/validation", h.availability.Validation)
	availability.GET("/stream", h.stream.Stream)
	availability.PUT("/:slotId", h.availability.Update)
	availability.DELETE("/:slotId", h.availability.Delete)

	return r
}
