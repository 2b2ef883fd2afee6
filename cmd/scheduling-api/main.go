package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-scheduling-api/api/swagger"
	"github.com/noah-isme/sma-scheduling-api/internal/handler"
	"github.com/noah-isme/sma-scheduling-api/internal/repository"
	"github.com/noah-isme/sma-scheduling-api/internal/service"
	"github.com/noah-isme/sma-scheduling-api/pkg/cache"
	"github.com/noah-isme/sma-scheduling-api/pkg/config"
	"github.com/noah-isme/sma-scheduling-api/pkg/database"
	"github.com/noah-isme/sma-scheduling-api/pkg/logger"
	"github.com/noah-isme/sma-scheduling-api/pkg/realtime"
)

// @title SMA Scheduling API
// @version 1.0.0
// @description Holidays, business days, course schedules and teacher availability
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Holidays.CacheTTL, logr, redisClient != nil)

	bus, err := newBus(cfg, db, redisClient, logr)
	if err != nil {
		return fmt.Errorf("realtime transport %q: %w", cfg.Realtime.Transport, err)
	}
	defer bus.Close()

	registry := realtime.NewChannelRegistry(bus, logr)
	defer registry.Close()
	metricsSvc.TrackRealtime(registry)

	dispatcher := realtime.NewEventDispatcher(bus, realtime.DispatcherConfig{
		Workers:    cfg.Realtime.DispatchWorkers,
		MaxRetries: cfg.Realtime.DispatchRetries,
		RetryDelay: cfg.Realtime.RetryDelay,
	}, logr)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	validate := validator.New()
	loc := cfg.Location()

	holidayRepo := repository.NewHolidayRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	holidaySvc := service.NewHolidayService(holidayRepo, cacheSvc, metricsSvc, service.HolidayConfig{
		CacheSize: cfg.Holidays.CacheSize,
		CacheTTL:  cfg.Holidays.CacheTTL,
		Location:  loc,
	}, validate, logr)
	calendarSvc := service.NewCalendarService(holidaySvc)
	courseSvc := service.NewCourseScheduleService(holidaySvc, cfg.Scheduling.MaxSpanYears, metricsSvc, logr)
	availabilitySvc := service.NewAvailabilityService(
		availabilityRepo,
		enrollmentRepo,
		holidaySvc,
		dispatcher,
		metricsSvc,
		service.AvailabilityConfig{NextSlotWindowDays: cfg.Scheduling.NextSlotWindowDays},
		validate,
		logr,
	)
	completionSvc := service.NewCompletionService(enrollmentRepo, cfg.Scheduling.CompletionThresholdDays, loc, validate, logr)

	scheduler := cron.New(cron.WithLocation(loc))
	if cfg.Holidays.RefreshSpec != "" {
		if _, err := holidaySvc.ScheduleRefresh(scheduler, cfg.Holidays.RefreshSpec); err != nil {
			return fmt.Errorf("schedule holiday refresh: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	probes := map[string]handler.Probe{"database": db.PingContext}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, metricsSvc, routeHandlers{
		holiday:      handler.NewHolidayHandler(holidaySvc),
		calendar:     handler.NewCalendarHandler(calendarSvc),
		course:       handler.NewCourseHandler(courseSvc),
		availability: handler.NewAvailabilityHandler(availabilitySvc),
		completion:   handler.NewCompletionHandler(completionSvc),
		stream:       handler.NewStreamHandler(registry, cfg.Realtime.Heartbeat, logr),
		metrics:      handler.NewMetricsHandler(metricsSvc, probes),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// open event streams end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "transport", cfg.Realtime.Transport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBus(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (realtime.Bus, error) {
	switch cfg.Realtime.Transport {
	case "", config.TransportMemory:
		return realtime.NewMemoryBus(), nil
	case config.TransportPostgres:
		listener := realtime.NewPQListener(database.DSN(cfg.Database), logr)
		return realtime.NewPostgresBus(db, listener, cfg.Realtime.PGChannel, logr)
	case config.TransportRedis:
		if redisClient == nil {
			return nil, errors.New("redis transport requires ENABLE_REDIS=true")
		}
		return realtime.NewRedisBus(redisClient, logr), nil
	case config.TransportAMQP:
		return realtime.DialAMQP(cfg.Realtime.AMQPURI, cfg.Realtime.AMQPExchange, logr)
	default:
		return nil, errors.New("unknown transport")
	}
}
