package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
	"github.com/noah-isme/sma-scheduling-api/pkg/calendar"
	appErrors "github.com/noah-isme/sma-scheduling-api/pkg/errors"
	"github.com/noah-isme/sma-scheduling-api/pkg/realtime"
)

const (
	defaultNextSlotWindowDays = 30
	maxSlotRangeDays          = 366
	maxPatternCapacity        = 50
	earliestUsualHour         = 6
	latestUsualHour           = 22
)

type availabilityRepository interface {
	ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityPattern, error)
	GetByID(ctx context.Context, id string) (*models.AvailabilityPattern, error)
	Create(ctx context.Context, pattern *models.AvailabilityPattern) error
	Update(ctx context.Context, pattern *models.AvailabilityPattern) error
	Delete(ctx context.Context, id string) error
}

type enrollmentCounter interface {
	CountActive(ctx context.Context, patternID string) (int, error)
	CountActiveOn(ctx context.Context, patternID string, date calendar.Date) (int, error)
	CountActiveInRange(ctx context.Context, patternIDs []string, start, end calendar.Date) (map[models.SlotKey]int, error)
}

// EventPublisher hands change events to the notification bridge.
type EventPublisher interface {
	Dispatch(ctx context.Context, e realtime.Event) error
}

// AvailabilityPatternRequest is the payload for creating or replacing a pattern.
type AvailabilityPatternRequest struct {
	DayOfWeek   *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	MaxStudents int    `json:"max_students" validate:"required,min=1,max=50"`
	IsActive    *bool  `json:"is_active"`
}

// CapacityCheckRequest asks whether more students fit a slot, optionally on one class date.
type CapacityCheckRequest struct {
	RequestedCapacity int    `json:"requested_capacity"`
	ClassDate         string `json:"class_date"`
}

// AvailabilityConfig tunes lookahead windows.
type AvailabilityConfig struct {
	NextSlotWindowDays int
}

// AvailabilityService resolves recurring teacher patterns into dated slots and guards capacity.
type AvailabilityService struct {
	patterns    availabilityRepository
	enrollments enrollmentCounter
	holidays    holidayDateResolver
	events      EventPublisher
	windowDays  int
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAvailabilityService constructs the service. events and metrics may be nil.
func NewAvailabilityService(
	patterns availabilityRepository,
	enrollments enrollmentCounter,
	holidays holidayDateResolver,
	events EventPublisher,
	metrics *MetricsService,
	cfg AvailabilityConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NextSlotWindowDays <= 0 {
		cfg.NextSlotWindowDays = defaultNextSlotWindowDays
	}
	return &AvailabilityService{
		patterns:    patterns,
		enrollments: enrollments,
		holidays:    holidays,
		events:      events,
		windowDays:  cfg.NextSlotWindowDays,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// ResolveSlots expands patterns into one slot per matching weekday in [start, end],
// leaving out holidays. enrollments is keyed by pattern and date; missing keys count as 0.
func ResolveSlots(patterns []models.AvailabilityPattern, start, end calendar.Date, holidays calendar.Set, enrollments map[models.SlotKey]int) []models.ResolvedSlot {
	slots := make([]models.ResolvedSlot, 0)
	for _, p := range patterns {
		if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
			continue
		}
		offset := (p.DayOfWeek - int(start.Weekday()) + 7) % 7
		for d := start.AddDays(offset); !d.After(end); d = d.AddDays(7) {
			if holidays.Contains(d) {
				continue
			}
			current := enrollments[models.SlotKey{PatternID: p.ID, Date: d}]
			spots := p.MaxStudents - current
			if spots < 0 {
				spots = 0
			}
			slots = append(slots, models.ResolvedSlot{
				AvailabilityPatternID: p.ID,
				TeacherID:             p.TeacherID,
				Date:                  d,
				DayOfWeek:             p.DayOfWeek,
				DayOfWeekName:         models.DayName(p.DayOfWeek),
				StartTime:             p.StartTime,
				EndTime:               p.EndTime,
				MaxStudents:           p.MaxStudents,
				CurrentEnrollment:     current,
				AvailableSpots:        spots,
			})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if c := slots[i].Date.Compare(slots[j].Date); c != 0 {
			return c < 0
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots
}

// DetectOverlaps reports every same-weekday pair of patterns whose windows intersect.
func DetectOverlaps(patterns []models.AvailabilityPattern) []models.OverlapReport {
	reports := make([]models.OverlapReport, 0)
	if len(patterns) < 2 {
		return reports
	}
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			a, b := patterns[i], patterns[j]
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			minutes := calendar.OverlapMinutes(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			if minutes > 0 {
				reports = append(reports, models.OverlapReport{
					PatternIDA:     a.ID,
					PatternIDB:     b.ID,
					DayOfWeek:      a.DayOfWeek,
					OverlapMinutes: minutes,
				})
			}
		}
	}
	return reports
}

// CalculateAvailableSlots resolves the teacher's active patterns over [start, end]
// against the supplied holidays and the current enrollment counts.
func (s *AvailabilityService) CalculateAvailableSlots(ctx context.Context, teacherID string, start, end calendar.Date, holidays calendar.Set) ([]models.ResolvedSlot, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before or equal to end date")
	}

	patterns, err := s.patterns.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Store(err, "Failed to fetch teacher availability")
	}
	if len(patterns) == 0 {
		return []models.ResolvedSlot{}, nil
	}

	ids := make([]string, len(patterns))
	for i, p := range patterns {
		ids[i] = p.ID
	}
	queryStart := time.Now()
	counts, err := s.enrollments.CountActiveInRange(ctx, ids, start, end)
	s.metrics.ObserveDBQuery("enrollment_counts", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Store(err, "Failed to count enrollments")
	}

	slots := ResolveSlots(patterns, start, end, holidays, counts)
	s.metrics.RecordSlotsResolved(len(slots))
	return slots, nil
}

// AvailableSlots is CalculateAvailableSlots with holidays loaded from the holiday store.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, teacherID string, start, end calendar.Date) ([]models.ResolvedSlot, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Start date must be before or equal to end date")
	}
	if start.DaysUntil(end) > maxSlotRangeDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Date range must not exceed %d days", maxSlotRangeDays))
	}
	holidays, err := s.holidays.DatesInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.CalculateAvailableSlots(ctx, teacherID, start, end, holidays)
}

// AggregateAvailabilityForCalendar groups a month of slots by date.
func (s *AvailabilityService) AggregateAvailabilityForCalendar(ctx context.Context, teacherID string, month, year int) (*models.CalendarMonthAvailability, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Month must be between 1 and 12")
	}
	if year < 2020 || year > 2050 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Year must be between 2020 and 2050")
	}

	first := calendar.NewDate(year, time.Month(month), 1)
	slots, err := s.AvailableSlots(ctx, teacherID, first, first.EndOfMonth())
	if err != nil {
		return nil, err
	}

	out := &models.CalendarMonthAvailability{TeacherID: teacherID, Month: month, Year: year, Days: []models.DayAvailability{}}
	for _, slot := range slots {
		n := len(out.Days)
		if n == 0 || !out.Days[n-1].Date.Equal(slot.Date) {
			out.Days = append(out.Days, models.DayAvailability{Date: slot.Date, Slots: []models.ResolvedSlot{}})
			n++
		}
		day := &out.Days[n-1]
		day.TotalSlots++
		if slot.AvailableSpots > 0 {
			day.AvailableSlots++
		} else {
			day.FullSlots++
		}
		day.Capacity.MaxStudents += slot.MaxStudents
		day.Capacity.CurrentEnrollments += slot.CurrentEnrollment
		day.Capacity.AvailableSpots += slot.AvailableSpots
		day.Slots = append(day.Slots, slot)
	}
	for i := range out.Days {
		out.Days[i].Capacity.IsAtCapacity = out.Days[i].Capacity.AvailableSpots == 0
	}
	return out, nil
}

// GetNextAvailableSlot returns the first slot with free seats in the lookahead
// window starting at after, or nil when there is none.
func (s *AvailabilityService) GetNextAvailableSlot(ctx context.Context, teacherID string, after calendar.Date, holidays calendar.Set) (*models.ResolvedSlot, error) {
	slots, err := s.CalculateAvailableSlots(ctx, teacherID, after, after.AddDays(s.windowDays), holidays)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].AvailableSpots > 0 && !slots[i].IsBlockedByHoliday {
			return &slots[i], nil
		}
	}
	return nil, nil
}

// NextAvailableSlot is GetNextAvailableSlot with holidays loaded from the holiday store.
func (s *AvailabilityService) NextAvailableSlot(ctx context.Context, teacherID string, after calendar.Date) (*models.ResolvedSlot, error) {
	holidays, err := s.holidays.DatesInRange(ctx, after, after.AddDays(s.windowDays))
	if err != nil {
		return nil, err
	}
	return s.GetNextAvailableSlot(ctx, teacherID, after, holidays)
}

// CheckCapacityConflicts reports whether requested more students would overflow the slot.
// The answer is advisory; the store remains the enforcement point for the cap.
func (s *AvailabilityService) CheckCapacityConflicts(ctx context.Context, slotID string, req CapacityCheckRequest) (bool, error) {
	if req.RequestedCapacity <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "Requested capacity must be greater than 0")
	}
	var classDate calendar.Date
	if req.ClassDate != "" {
		d, err := calendar.ParseISODate(req.ClassDate)
		if err != nil {
			return false, err
		}
		classDate = d
	}

	pattern, err := s.patterns.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "Availability slot not found")
		}
		return false, appErrors.Store(err, "Failed to fetch availability slot")
	}

	var current int
	if classDate.IsZero() {
		current, err = s.enrollments.CountActive(ctx, pattern.ID)
	} else {
		current, err = s.enrollments.CountActiveOn(ctx, pattern.ID, classDate)
	}
	if err != nil {
		return false, appErrors.Store(err, "Failed to count enrollments")
	}

	exceeds := current+req.RequestedCapacity > pattern.MaxStudents
	s.metrics.RecordCapacityCheck(exceeds)
	return exceeds, nil
}

// DetectAvailabilityOverlaps loads the teacher's active patterns and reports intersecting pairs.
func (s *AvailabilityService) DetectAvailabilityOverlaps(ctx context.Context, teacherID string) ([]models.OverlapReport, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}
	patterns, err := s.patterns.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Store(err, "Failed to fetch availabilities")
	}
	return DetectOverlaps(patterns), nil
}

// ValidateTeacherAvailability audits the active patterns of a teacher. Store
// failures are reported as issues rather than errors.
func (s *AvailabilityService) ValidateTeacherAvailability(ctx context.Context, teacherID string) (*models.AvailabilityValidation, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}
	result := &models.AvailabilityValidation{TeacherID: teacherID, Issues: []string{}, Warnings: []string{}}

	patterns, err := s.patterns.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		result.Issues = append(result.Issues, fmt.Sprintf("Failed to fetch availability data: %s", err.Error()))
		return result, nil
	}

	if overlaps := DetectOverlaps(patterns); len(overlaps) > 0 {
		result.Issues = append(result.Issues, fmt.Sprintf("Found %d overlapping availability slots", len(overlaps)))
	}
	if len(patterns) == 0 {
		result.Warnings = append(result.Warnings, "No active availability slots configured")
	}
	for _, p := range patterns {
		day := models.DayName(p.DayOfWeek)
		if p.StartTime.Hour < earliestUsualHour || p.EndTime.Hour > latestUsualHour {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Unusual hours: %s-%s on %s", p.StartTime, p.EndTime, day))
		}
		if p.MaxStudents > maxPatternCapacity {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Very high capacity (%d) for %s slot", p.MaxStudents, day))
		}
		if p.MaxStudents < 1 {
			result.Issues = append(result.Issues, fmt.Sprintf("Invalid capacity (%d) for %s slot", p.MaxStudents, day))
		}
	}
	result.IsValid = len(result.Issues) == 0
	return result, nil
}

// CreatePattern stores a new weekly pattern for teacherID.
func (s *AvailabilityService) CreatePattern(ctx context.Context, teacherID string, req AvailabilityPatternRequest) (*models.AvailabilityPattern, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}
	pattern := &models.AvailabilityPattern{TeacherID: teacherID, IsActive: true}
	if err := s.applyPattern(pattern, req); err != nil {
		return nil, err
	}
	if err := s.patterns.Create(ctx, pattern); err != nil {
		return nil, appErrors.Store(err, "Failed to create teacher availability")
	}
	s.logger.Info("availability pattern created", zap.String("teacher_id", teacherID), zap.String("pattern_id", pattern.ID))
	s.publish(ctx, realtime.OpInsert, pattern)
	return pattern, nil
}

// UpdatePattern replaces the mutable fields of a pattern owned by teacherID.
func (s *AvailabilityService) UpdatePattern(ctx context.Context, teacherID, patternID string, req AvailabilityPatternRequest) (*models.AvailabilityPattern, error) {
	pattern, err := s.ownedPattern(ctx, teacherID, patternID)
	if err != nil {
		return nil, err
	}
	if err := s.applyPattern(pattern, req); err != nil {
		return nil, err
	}
	if err := s.patterns.Update(ctx, pattern); err != nil {
		return nil, appErrors.Store(err, "Failed to update teacher availability")
	}
	s.logger.Info("availability pattern updated", zap.String("teacher_id", teacherID), zap.String("pattern_id", pattern.ID))
	s.publish(ctx, realtime.OpUpdate, pattern)
	return pattern, nil
}

// DeletePattern removes a pattern owned by teacherID.
func (s *AvailabilityService) DeletePattern(ctx context.Context, teacherID, patternID string) error {
	pattern, err := s.ownedPattern(ctx, teacherID, patternID)
	if err != nil {
		return err
	}
	if err := s.patterns.Delete(ctx, pattern.ID); err != nil {
		return appErrors.Store(err, "Failed to delete teacher availability")
	}
	s.logger.Info("availability pattern deleted", zap.String("teacher_id", teacherID), zap.String("pattern_id", pattern.ID))
	s.publish(ctx, realtime.OpDelete, pattern)
	return nil
}

func (s *AvailabilityService) ownedPattern(ctx context.Context, teacherID, patternID string) (*models.AvailabilityPattern, error) {
	pattern, err := s.patterns.GetByID(ctx, patternID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Availability slot not found")
		}
		return nil, appErrors.Store(err, "Failed to fetch availability slot")
	}
	if pattern.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Availability slot not found")
	}
	return pattern, nil
}

func (s *AvailabilityService) applyPattern(pattern *models.AvailabilityPattern, req AvailabilityPatternRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	start, err := calendar.ParseClock(req.StartTime)
	if err != nil {
		return err
	}
	end, err := calendar.ParseClock(req.EndTime)
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "Start time must be before end time")
	}
	pattern.DayOfWeek = *req.DayOfWeek
	pattern.StartTime = start
	pattern.EndTime = end
	pattern.MaxStudents = req.MaxStudents
	if req.IsActive != nil {
		pattern.IsActive = *req.IsActive
	}
	return nil
}

// publish is best effort: the change is already stored when it runs.
func (s *AvailabilityService) publish(ctx context.Context, op realtime.Operation, pattern *models.AvailabilityPattern) {
	if s.events == nil {
		return
	}
	event, err := realtime.NewEvent(realtime.TableAvailability, op, pattern.TeacherID, pattern.ID, pattern)
	if err != nil {
		s.logger.Warn("availability event not built", zap.Error(err))
		return
	}
	if err := s.events.Dispatch(ctx, event); err != nil {
		s.logger.Warn("availability event not dispatched", zap.String("pattern_id", pattern.ID), zap.Error(err))
	}
}
