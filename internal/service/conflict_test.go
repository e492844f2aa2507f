package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/internal/timegrid"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

func candidateSpan(t *testing.T, start string, duration int) timegrid.Span {
	t.Helper()
	span, err := timegrid.NewSpan(start, duration)
	require.NoError(t, err)
	return span
}

func dayBooking(id, start, end string, status models.BookingStatus) models.Booking {
	return models.Booking{
		ID:           id,
		InstructorID: "inst-1",
		StudentID:    "stud-1",
		Date:         time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime:    start,
		EndTime:      end,
		Status:       status,
	}
}

func TestCheckWindow(t *testing.T) {
	checker := NewConflictChecker(15)
	window := models.DayWindow{StartTime: "09:00", EndTime: "17:00", IsAvailable: true, Source: models.WindowSourceWeekly}

	assert.NoError(t, checker.CheckWindow(candidateSpan(t, "10:00", 60), window))
	assert.NoError(t, checker.CheckWindow(candidateSpan(t, "16:00", 60), window))

	err := checker.CheckWindow(candidateSpan(t, "08:00", 60), window)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAvailability))

	err = checker.CheckWindow(candidateSpan(t, "16:30", 60), window)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAvailability))

	closed := models.DayWindow{IsAvailable: false, Source: models.WindowSourceAbsence}
	err = checker.CheckWindow(candidateSpan(t, "10:00", 60), closed)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAvailability))
}

func TestCheckAgainstBufferedOverlap(t *testing.T) {
	checker := NewConflictChecker(15)
	existing := []models.Booking{dayBooking("b1", "10:00", "11:00", models.BookingApproved)}

	// Direct overlap.
	err := checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "10:30", 60), existing, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	// Only the buffer overlaps: 11:10 start is inside the widened 09:45-11:15.
	err = checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "11:10", 60), existing, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	// Starting exactly at the buffer edge is fine (half-open).
	assert.NoError(t, checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "11:15", 60), existing, ""))
	assert.NoError(t, checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "08:45", 60), existing, ""))
}

func TestCheckAgainstSkipsCancelledAndExcluded(t *testing.T) {
	checker := NewConflictChecker(15)
	existing := []models.Booking{
		dayBooking("b1", "10:00", "11:00", models.BookingCancelled),
		dayBooking("b2", "13:00", "14:00", models.BookingPending),
	}

	// Cancelled lessons never block.
	assert.NoError(t, checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "10:00", 60), existing, ""))

	// A booking being rescheduled does not conflict with itself.
	assert.NoError(t, checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "13:00", 60), existing, "b2"))

	err := checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "13:00", 60), existing, "")
	require.Error(t, err)
}

func TestCheckAgainstConflictDetail(t *testing.T) {
	checker := NewConflictChecker(0)
	existing := []models.Booking{dayBooking("b7", "10:00", "11:00", models.BookingApproved)}

	err := checker.CheckAgainst(conflictDimensionStudent, candidateSpan(t, "10:00", 60), existing, "")
	require.Error(t, err)

	var conflictErr *models.BookingConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, conflictDimensionStudent, conflictErr.Dimension)
	assert.Equal(t, "b7", conflictErr.Conflict.BookingID)
	assert.Equal(t, "2026-09-07", conflictErr.Conflict.Date)
	assert.Equal(t, "10:00", conflictErr.Conflict.StartTime)
}

func TestCheckAgainstZeroBuffer(t *testing.T) {
	checker := NewConflictChecker(0)
	existing := []models.Booking{dayBooking("b1", "10:00", "11:00", models.BookingApproved)}

	// Back to back lessons are allowed without a buffer.
	assert.NoError(t, checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "11:00", 60), existing, ""))
	assert.NoError(t, checker.CheckAgainst(conflictDimensionInstructor, candidateSpan(t, "09:00", 60), existing, ""))
}
