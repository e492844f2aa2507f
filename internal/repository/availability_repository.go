package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roadready/drive-booking-api/internal/models"
)

const weeklyColumns = "id, instructor_id, day_of_week, start_time, end_time, is_available, created_at, updated_at"
const globalColumns = "id, day_of_week, start_time, end_time, is_available, start_date, end_date, created_at, updated_at"
const absenceColumns = "id, instructor_id, start_date, end_date, reason, created_at"

// AvailabilityRepository persists the three availability sources the
// resolver merges: instructor weekly rows, global defaults with optional
// special date ranges, and absences.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListWeekly returns the instructor's weekly availability rows.
func (r *AvailabilityRepository) ListWeekly(ctx context.Context, instructorID string) ([]models.WeeklyAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM weekly_availability WHERE instructor_id = $1 ORDER BY day_of_week ASC", weeklyColumns)
	var rows []models.WeeklyAvailability
	if err := r.db.SelectContext(ctx, &rows, query, instructorID); err != nil {
		return nil, fmt.Errorf("list weekly availability: %w", err)
	}
	return rows, nil
}

// ReplaceWeekly swaps the instructor's weekly rows in one transaction.
func (r *AvailabilityRepository) ReplaceWeekly(ctx context.Context, instructorID string, rows []models.WeeklyAvailability) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace weekly: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_availability WHERE instructor_id = $1`, instructorID); err != nil {
		return fmt.Errorf("clear weekly availability: %w", err)
	}

	now := time.Now().UTC()
	query := fmt.Sprintf("INSERT INTO weekly_availability (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)", weeklyColumns)
	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.InstructorID = instructorID
		row.CreatedAt = now
		row.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, query, row.ID, row.InstructorID, row.DayOfWeek, row.StartTime, row.EndTime, row.IsAvailable, row.CreatedAt, row.UpdatedAt); err != nil {
			return fmt.Errorf("insert weekly availability: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace weekly: %w", err)
	}
	return nil
}

// ListAbsences returns the instructor's absence periods.
func (r *AvailabilityRepository) ListAbsences(ctx context.Context, instructorID string) ([]models.Absence, error) {
	query := fmt.Sprintf("SELECT %s FROM absences WHERE instructor_id = $1 ORDER BY start_date ASC", absenceColumns)
	var rows []models.Absence
	if err := r.db.SelectContext(ctx, &rows, query, instructorID); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return rows, nil
}

// CreateAbsence stores an absence period.
func (r *AvailabilityRepository) CreateAbsence(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}
	query := fmt.Sprintf("INSERT INTO absences (%s) VALUES ($1, $2, $3, $4, $5, $6)", absenceColumns)
	if _, err := r.db.ExecContext(ctx, query, absence.ID, absence.InstructorID, models.DateOnly(absence.StartDate), models.DateOnly(absence.EndDate), absence.Reason, absence.CreatedAt); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// DeleteAbsence removes an absence period.
func (r *AvailabilityRepository) DeleteAbsence(ctx context.Context, instructorID, absenceID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM absences WHERE id = $1 AND instructor_id = $2`, absenceID, instructorID)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindSpecial returns the date-ranged override for the weekday that contains
// the date, if any. Ranges for one weekday never overlap, so at most one row
// matches.
func (r *AvailabilityRepository) FindSpecial(ctx context.Context, dayOfWeek string, date time.Time) (*models.GlobalAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM global_availability WHERE day_of_week = $1 AND start_date IS NOT NULL AND start_date <= $2 AND end_date >= $2 LIMIT 1", globalColumns)
	var row models.GlobalAvailability
	err := r.db.GetContext(ctx, &row, query, dayOfWeek, models.DateOnly(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find special availability: %w", err)
	}
	return &row, nil
}

// ListSpecialForDay returns every date-ranged override for a weekday, used
// for overlap validation at write time.
func (r *AvailabilityRepository) ListSpecialForDay(ctx context.Context, dayOfWeek string) ([]models.GlobalAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM global_availability WHERE day_of_week = $1 AND start_date IS NOT NULL ORDER BY start_date ASC", globalColumns)
	var rows []models.GlobalAvailability
	if err := r.db.SelectContext(ctx, &rows, query, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list special availability: %w", err)
	}
	return rows, nil
}

// FindGlobalDefault returns the school-wide default row for a weekday.
func (r *AvailabilityRepository) FindGlobalDefault(ctx context.Context, dayOfWeek string) (*models.GlobalAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM global_availability WHERE day_of_week = $1 AND start_date IS NULL LIMIT 1", globalColumns)
	var row models.GlobalAvailability
	err := r.db.GetContext(ctx, &row, query, dayOfWeek)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find global default: %w", err)
	}
	return &row, nil
}

// ListGlobal returns every global row, defaults and specials alike.
func (r *AvailabilityRepository) ListGlobal(ctx context.Context) ([]models.GlobalAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM global_availability ORDER BY day_of_week ASC, start_date ASC NULLS FIRST", globalColumns)
	var rows []models.GlobalAvailability
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list global availability: %w", err)
	}
	return rows, nil
}

// UpsertGlobalDefault creates or updates the plain default for a weekday.
func (r *AvailabilityRepository) UpsertGlobalDefault(ctx context.Context, row *models.GlobalAvailability) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	const query = `INSERT INTO global_availability (id, day_of_week, start_time, end_time, is_available, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, $7)
		ON CONFLICT (day_of_week) WHERE start_date IS NULL
		DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, is_available = EXCLUDED.is_available, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, row.ID, row.DayOfWeek, row.StartTime, row.EndTime, row.IsAvailable, row.CreatedAt, row.UpdatedAt); err != nil {
		return fmt.Errorf("upsert global default: %w", err)
	}
	return nil
}

// CreateSpecial stores a date-ranged override.
func (r *AvailabilityRepository) CreateSpecial(ctx context.Context, row *models.GlobalAvailability) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	query := fmt.Sprintf("INSERT INTO global_availability (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)", globalColumns)
	if _, err := r.db.ExecContext(ctx, query, row.ID, row.DayOfWeek, row.StartTime, row.EndTime, row.IsAvailable, row.StartDate, row.EndDate, row.CreatedAt, row.UpdatedAt); err != nil {
		return fmt.Errorf("create special availability: %w", err)
	}
	return nil
}
