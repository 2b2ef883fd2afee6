package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/internal/repository"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
)

const (
	holidayCachePrefix  = "holidays:"
	maxHolidaySpanYears = 10
	maxHolidaySpanDays  = 366 * maxHolidaySpanYears
)

// HolidaysInRange keeps the holidays dated within [start, end], preserving input order.
func HolidaysInRange(start, end calendar.Date, holidays []models.Holiday) ([]models.Holiday, error) {
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrRange, "Start date must be before or equal to end date")
	}
	window := calendar.Range{Start: start, End: end}
	out := make([]models.Holiday, 0, len(holidays))
	for _, h := range holidays {
		if window.Contains(h.Date) {
			out = append(out, h)
		}
	}
	return out, nil
}

type holidayRepository interface {
	ListByYear(ctx context.Context, year int) ([]models.Holiday, error)
	GetByID(ctx context.Context, id string) (*models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) (bool, error)
}

// HolidayConfig tunes the in-process year cache.
type HolidayConfig struct {
	CacheSize int
	CacheTTL  time.Duration
	Location  *time.Location
}

// HolidayService resolves holidays year by year through an in-process LRU,
// then the shared cache, then the store.
type HolidayService struct {
	repo      holidayRepository
	cache     *CacheService
	years     *expirable.LRU[int, []models.Holiday]
	ttl       time.Duration
	loc       *time.Location
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// CreateHolidayRequest is the payload for registering a holiday.
type CreateHolidayRequest struct {
	Date       string `json:"date" validate:"required"`
	Name       string `json:"name" validate:"required,max=120"`
	IsNational bool   `json:"is_national"`
}

// NewHolidayService constructs the service. cache and metrics may be nil.
func NewHolidayService(repo holidayRepository, cache *CacheService, metrics *MetricsService, cfg HolidayConfig, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 16
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 12 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &HolidayService{
		repo:      repo,
		cache:     cache,
		years:     expirable.NewLRU[int, []models.Holiday](cfg.CacheSize, nil, cfg.CacheTTL),
		ttl:       cfg.CacheTTL,
		loc:       cfg.Location,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ListInRange returns holidays dated within [start, end] ordered by date.
func (s *HolidayService) ListInRange(ctx context.Context, start, end calendar.Date) ([]models.Holiday, error) {
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrRange, "Start date must be before or equal to end date")
	}
	if start.DaysUntil(end) > maxHolidaySpanDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Date range must not exceed 10 years")
	}
	var all []models.Holiday
	for year := start.Year; year <= end.Year; year++ {
		holidays, err := s.loadYear(ctx, year)
		if err != nil {
			return nil, err
		}
		all = append(all, holidays...)
	}
	return HolidaysInRange(start, end, all)
}

// DatesInRange is ListInRange collapsed to a set of days.
func (s *HolidayService) DatesInRange(ctx context.Context, start, end calendar.Date) (calendar.Set, error) {
	holidays, err := s.ListInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return models.HolidayDates(holidays), nil
}

// Create registers a holiday and drops its year from the caches.
func (s *HolidayService) Create(ctx context.Context, req CreateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	date, err := calendar.ParseISODate(req.Date)
	if err != nil {
		return nil, err
	}
	holiday := &models.Holiday{Date: date, Name: strings.TrimSpace(req.Name), IsNational: req.IsNational}
	if err := s.repo.Create(ctx, holiday); err != nil {
		if errors.Is(err, repository.ErrDuplicateHoliday) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Holiday already exists for %s", date))
		}
		return nil, appErrors.Store(err, "Failed to create holiday")
	}
	s.forgetYear(ctx, date.Year)
	s.logger.Info("holiday created", zap.String("holiday_id", holiday.ID), zap.Stringer("date", date))
	return holiday, nil
}

// Delete removes a holiday and drops its year from the caches.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	holiday, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Holiday not found")
		}
		return appErrors.Store(err, "Failed to fetch holiday")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Store(err, "Failed to delete holiday")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "Holiday not found")
	}
	s.forgetYear(ctx, holiday.Date.Year)
	s.logger.Info("holiday deleted", zap.String("holiday_id", id), zap.Stringer("date", holiday.Date))
	return nil
}

// Refresh purges both caches and re-warms the current and next year.
func (s *HolidayService) Refresh(ctx context.Context) error {
	s.years.Purge()
	_ = s.cache.Invalidate(ctx, holidayCachePrefix+"*")

	year := calendar.Today(s.loc).Year
	for _, y := range []int{year, year + 1} {
		if _, err := s.loadYear(ctx, y); err != nil {
			return err
		}
	}
	s.logger.Sugar().Infow("holiday cache refreshed", "years", []int{year, year + 1})
	return nil
}

// ScheduleRefresh registers Refresh on c using a cron spec such as "@every 6h".
func (s *HolidayService) ScheduleRefresh(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Sugar().Warnw("holiday refresh failed", "error", err)
		}
	})
}

func (s *HolidayService) loadYear(ctx context.Context, year int) ([]models.Holiday, error) {
	if holidays, ok := s.years.Get(year); ok {
		s.metrics.RecordHolidayLoad("lru")
		return holidays, nil
	}

	key := fmt.Sprintf("%s%d", holidayCachePrefix, year)
	var cached []models.Holiday
	if s.cache.Get(ctx, key, &cached) {
		s.years.Add(year, cached)
		s.metrics.RecordHolidayLoad("redis")
		return cached, nil
	}

	queryStart := time.Now()
	holidays, err := s.repo.ListByYear(ctx, year)
	s.metrics.ObserveDBQuery("holidays_by_year", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Store(err, "Failed to fetch holidays")
	}
	if holidays == nil {
		holidays = []models.Holiday{}
	}
	s.years.Add(year, holidays)
	s.cache.Set(ctx, key, holidays, s.ttl)
	s.metrics.RecordHolidayLoad("store")
	return holidays, nil
}

func (s *HolidayService) forgetYear(ctx context.Context, year int) {
	s.years.Remove(year)
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("%s%d", holidayCachePrefix, year))
}
