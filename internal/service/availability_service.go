package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/internal/timegrid"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

type availabilityRepository interface {
	ListWeekly(ctx context.Context, instructorID string) ([]models.WeeklyAvailability, error)
	ReplaceWeekly(ctx context.Context, instructorID string, rows []models.WeeklyAvailability) error
	ListAbsences(ctx context.Context, instructorID string) ([]models.Absence, error)
	CreateAbsence(ctx context.Context, absence *models.Absence) error
	DeleteAbsence(ctx context.Context, instructorID, absenceID string) error
	FindSpecial(ctx context.Context, dayOfWeek string, date time.Time) (*models.GlobalAvailability, error)
	ListSpecialForDay(ctx context.Context, dayOfWeek string) ([]models.GlobalAvailability, error)
	FindGlobalDefault(ctx context.Context, dayOfWeek string) (*models.GlobalAvailability, error)
	ListGlobal(ctx context.Context) ([]models.GlobalAvailability, error)
	UpsertGlobalDefault(ctx context.Context, row *models.GlobalAvailability) error
	CreateSpecial(ctx context.Context, row *models.GlobalAvailability) error
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// WeeklyAvailabilityEntry is one weekday row in a PutWeekly payload.
type WeeklyAvailabilityEntry struct {
	DayOfWeek   string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// PutWeeklyRequest replaces an instructor's weekly availability.
type PutWeeklyRequest struct {
	Entries []WeeklyAvailabilityEntry `json:"entries" validate:"required,min=1,dive"`
}

// CreateAbsenceRequest blocks an instructor for a date range.
type CreateAbsenceRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason"`
}

// PutGlobalDefaultRequest sets the school-wide default for one weekday.
type PutGlobalDefaultRequest struct {
	DayOfWeek   string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// CreateSpecialRequest adds a date-ranged override of the global default.
type CreateSpecialRequest struct {
	DayOfWeek   string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// AvailabilityService resolves the effective working window for an
// instructor and date, and owns the write paths for every availability
// source. Resolution precedence is fixed: absence beats special date ranges,
// which beat the global default, which beats the instructor's own weekly
// rows.
type AvailabilityService struct {
	repo        availabilityRepository
	instructors instructorReader
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService. The redis client
// is optional; without it every resolution hits the database.
func NewAvailabilityService(repo availabilityRepository, instructors instructorReader, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &AvailabilityService{repo: repo, instructors: instructors, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ResolveWindow returns the effective window for the instructor on the date.
func (s *AvailabilityService) ResolveWindow(ctx context.Context, instructorID string, date time.Time) (models.DayWindow, error) {
	if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DayWindow{}, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return models.DayWindow{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	key := windowCacheKey(instructorID, date)
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, nil
	}

	window, err := s.resolve(ctx, instructorID, date)
	if err != nil {
		return models.DayWindow{}, err
	}

	s.cacheSet(ctx, key, window)
	return window, nil
}

func (s *AvailabilityService) resolve(ctx context.Context, instructorID string, date time.Time) (models.DayWindow, error) {
	absences, err := s.repo.ListAbsences(ctx, instructorID)
	if err != nil {
		return models.DayWindow{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absences")
	}
	for _, absence := range absences {
		if absence.Covers(date) {
			return models.DayWindow{IsAvailable: false, Source: models.WindowSourceAbsence}, nil
		}
	}

	day := models.WeekdayOf(date)

	special, err := s.repo.FindSpecial(ctx, day, date)
	if err != nil {
		return models.DayWindow{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load special availability")
	}
	if special != nil {
		return windowFromGlobal(*special, models.WindowSourceSpecial), nil
	}

	global, err := s.repo.FindGlobalDefault(ctx, day)
	if err != nil {
		return models.DayWindow{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load global availability")
	}
	if global != nil {
		return windowFromGlobal(*global, models.WindowSourceGlobal), nil
	}

	weekly, err := s.repo.ListWeekly(ctx, instructorID)
	if err != nil {
		return models.DayWindow{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly availability")
	}
	for _, row := range weekly {
		if row.DayOfWeek == day {
			return models.DayWindow{
				StartTime:   row.StartTime,
				EndTime:     row.EndTime,
				IsAvailable: row.IsAvailable,
				Source:      models.WindowSourceWeekly,
			}, nil
		}
	}

	return models.DayWindow{IsAvailable: false, Source: models.WindowSourceNone}, nil
}

// ListWeekly returns the instructor's weekly rows.
func (s *AvailabilityService) ListWeekly(ctx context.Context, instructorID string) ([]models.WeeklyAvailability, error) {
	rows, err := s.repo.ListWeekly(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly availability")
	}
	return rows, nil
}

// PutWeekly replaces the instructor's weekly availability.
func (s *AvailabilityService) PutWeekly(ctx context.Context, instructorID string, req PutWeeklyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly availability payload")
	}
	seen := make(map[string]bool, len(req.Entries))
	rows := make([]models.WeeklyAvailability, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if seen[entry.DayOfWeek] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate weekday %s", entry.DayOfWeek))
		}
		seen[entry.DayOfWeek] = true
		if entry.IsAvailable {
			if _, err := timegrid.ParseSpan(entry.StartTime, entry.EndTime); err != nil {
				return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly availability window")
			}
		}
		rows = append(rows, models.WeeklyAvailability{
			DayOfWeek:   entry.DayOfWeek,
			StartTime:   entry.StartTime,
			EndTime:     entry.EndTime,
			IsAvailable: entry.IsAvailable,
		})
	}

	if err := s.repo.ReplaceWeekly(ctx, instructorID, rows); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store weekly availability")
	}
	s.invalidate(ctx, "window:"+instructorID+":*")
	return nil
}

// ListAbsences returns the instructor's absence periods.
func (s *AvailabilityService) ListAbsences(ctx context.Context, instructorID string) ([]models.Absence, error) {
	rows, err := s.repo.ListAbsences(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return rows, nil
}

// CreateAbsence records an absence period for the instructor.
func (s *AvailabilityService) CreateAbsence(ctx context.Context, instructorID string, req CreateAbsenceRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "absence end date precedes start date")
	}

	absence := &models.Absence{
		InstructorID: instructorID,
		StartDate:    start,
		EndDate:      end,
		Reason:       req.Reason,
	}
	if err := s.repo.CreateAbsence(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store absence")
	}
	s.invalidate(ctx, "window:"+instructorID+":*")
	return absence, nil
}

// DeleteAbsence removes an absence period.
func (s *AvailabilityService) DeleteAbsence(ctx context.Context, instructorID, absenceID string) error {
	if err := s.repo.DeleteAbsence(ctx, instructorID, absenceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence")
	}
	s.invalidate(ctx, "window:"+instructorID+":*")
	return nil
}

// ListGlobal returns all school-wide rows, defaults and specials.
func (s *AvailabilityService) ListGlobal(ctx context.Context) ([]models.GlobalAvailability, error) {
	rows, err := s.repo.ListGlobal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list global availability")
	}
	return rows, nil
}

// PutGlobalDefault creates or updates the default window for a weekday.
func (s *AvailabilityService) PutGlobalDefault(ctx context.Context, req PutGlobalDefaultRequest) (*models.GlobalAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid global availability payload")
	}
	if req.IsAvailable {
		if _, err := timegrid.ParseSpan(req.StartTime, req.EndTime); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid global availability window")
		}
	}

	row := &models.GlobalAvailability{
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: req.IsAvailable,
	}
	if err := s.repo.UpsertGlobalDefault(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store global availability")
	}
	s.invalidate(ctx, "window:*")
	return row, nil
}

// CreateSpecial adds a date-ranged override. Ranges for the same weekday
// must not overlap; the invariant is enforced here so the resolver can
// assume at most one match on read.
func (s *AvailabilityService) CreateSpecial(ctx context.Context, req CreateSpecialRequest) (*models.GlobalAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special availability payload")
	}
	if req.IsAvailable {
		if _, err := timegrid.ParseSpan(req.StartTime, req.EndTime); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special availability window")
		}
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "special availability end date precedes start date")
	}

	existing, err := s.repo.ListSpecialForDay(ctx, req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load special availability")
	}
	for _, row := range existing {
		if row.StartDate == nil || row.EndDate == nil {
			continue
		}
		if !start.After(models.DateOnly(*row.EndDate)) && !end.Before(models.DateOnly(*row.StartDate)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("special availability overlaps existing range for %s", req.DayOfWeek))
		}
	}

	row := &models.GlobalAvailability{
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: req.IsAvailable,
		StartDate:   &start,
		EndDate:     &end,
	}
	if err := s.repo.CreateSpecial(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store special availability")
	}
	s.invalidate(ctx, "window:*")
	return row, nil
}

func windowFromGlobal(row models.GlobalAvailability, source string) models.DayWindow {
	return models.DayWindow{
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		IsAvailable: row.IsAvailable,
		Source:      source,
	}
}

func windowCacheKey(instructorID string, date time.Time) string {
	return "window:" + instructorID + ":" + models.DateOnly(date).Format("2006-01-02")
}

func (s *AvailabilityService) cacheGet(ctx context.Context, key string) (models.DayWindow, bool) {
	if s.cache == nil {
		return models.DayWindow{}, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return models.DayWindow{}, false
	}
	var window models.DayWindow
	if err := json.Unmarshal(raw, &window); err != nil {
		return models.DayWindow{}, false
	}
	return window, true
}

func (s *AvailabilityService) cacheSet(ctx context.Context, key string, window models.DayWindow) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(window)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Sugar().Debugw("window cache set failed", "key", key, "error", err)
	}
}

func (s *AvailabilityService) invalidate(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := s.cache.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.logger.Sugar().Debugw("window cache scan failed", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := s.cache.Del(ctx, keys...).Err(); err != nil {
				s.logger.Sugar().Debugw("window cache invalidation failed", "pattern", pattern, "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
