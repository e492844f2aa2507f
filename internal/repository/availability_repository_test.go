package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadready/drive-booking-api/internal/models"
)

func globalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "day_of_week", "start_time", "end_time", "is_available",
		"start_date", "end_date", "created_at", "updated_at",
	})
}

func TestAvailabilityRepositoryListWeekly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "instructor_id", "day_of_week", "start_time", "end_time", "is_available", "created_at", "updated_at"}).
		AddRow("w1", "inst-1", "MONDAY", "09:00", "17:00", true, now, now).
		AddRow("w2", "inst-1", "SUNDAY", "", "", false, now, now)
	mock.ExpectQuery("SELECT (.+) FROM weekly_availability WHERE instructor_id = \\$1 ORDER BY day_of_week ASC").
		WithArgs("inst-1").
		WillReturnRows(rows)

	list, err := repo.ListWeekly(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "MONDAY", list[0].DayOfWeek)
	assert.False(t, list[1].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceWeekly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_availability WHERE instructor_id = $1")).
		WithArgs("inst-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO weekly_availability").
		WithArgs(sqlmock.AnyArg(), "inst-1", "MONDAY", "09:00", "17:00", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO weekly_availability").
		WithArgs(sqlmock.AnyArg(), "inst-1", "SUNDAY", "", "", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceWeekly(context.Background(), "inst-1", []models.WeeklyAvailability{
		{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
		{DayOfWeek: "SUNDAY", IsAvailable: false},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteAbsence(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM absences WHERE id = $1 AND instructor_id = $2")).
		WithArgs("abs-1", "inst-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteAbsence(context.Background(), "inst-1", "abs-1"))

	mock.ExpectExec("DELETE FROM absences").
		WithArgs("missing", "inst-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.DeleteAbsence(context.Background(), "inst-1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryFindSpecial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	start := date.AddDate(0, 0, -3)
	end := date.AddDate(0, 0, 3)
	mock.ExpectQuery("WHERE day_of_week = \\$1 AND start_date IS NOT NULL AND start_date <= \\$2 AND end_date >= \\$2 LIMIT 1").
		WithArgs("MONDAY", date).
		WillReturnRows(globalRows().AddRow("g1", "MONDAY", "10:00", "14:00", true, start, end, now, now))

	row, err := repo.FindSpecial(context.Background(), "MONDAY", date)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IsSpecial())
	assert.Equal(t, "10:00", row.StartTime)

	// No matching range comes back as nil, not an error.
	mock.ExpectQuery("WHERE day_of_week = \\$1 AND start_date IS NOT NULL").
		WithArgs("TUESDAY", date).
		WillReturnError(sql.ErrNoRows)

	row, err = repo.FindSpecial(context.Background(), "TUESDAY", date)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryFindGlobalDefault(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)
	now := time.Now()

	mock.ExpectQuery("WHERE day_of_week = \\$1 AND start_date IS NULL LIMIT 1").
		WithArgs("MONDAY").
		WillReturnRows(globalRows().AddRow("g1", "MONDAY", "09:00", "17:00", true, nil, nil, now, now))

	row, err := repo.FindGlobalDefault(context.Background(), "MONDAY")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.False(t, row.IsSpecial())

	mock.ExpectQuery("WHERE day_of_week = \\$1 AND start_date IS NULL").
		WithArgs("SATURDAY").
		WillReturnError(sql.ErrNoRows)

	row, err = repo.FindGlobalDefault(context.Background(), "SATURDAY")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpsertGlobalDefault(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO global_availability (.+) ON CONFLICT").
		WithArgs(sqlmock.AnyArg(), "MONDAY", "09:00", "17:00", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	row := &models.GlobalAvailability{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "17:00", IsAvailable: true}
	require.NoError(t, repo.UpsertGlobalDefault(context.Background(), row))
	assert.NotEmpty(t, row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateSpecial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO global_availability").
		WithArgs(sqlmock.AnyArg(), "MONDAY", "10:00", "14:00", true, &start, &end, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	row := &models.GlobalAvailability{
		DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "14:00", IsAvailable: true,
		StartDate: &start, EndDate: &end,
	}
	require.NoError(t, repo.CreateSpecial(context.Background(), row))
	assert.NoError(t, mock.ExpectationsWereMet())
}
