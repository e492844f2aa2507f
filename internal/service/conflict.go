package service

import (
	"fmt"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/internal/timegrid"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

// Conflict dimensions identify which party is double-booked.
const (
	conflictDimensionInstructor = "INSTRUCTOR"
	conflictDimensionStudent    = "STUDENT"
)

// ConflictChecker decides whether a candidate lesson may occupy a time span.
// Existing lessons are widened by the configured buffer (travel and cleanup
// time) before comparison; the buffer is never persisted.
type ConflictChecker struct {
	bufferMinutes int
}

// NewConflictChecker builds a checker with the given buffer.
func NewConflictChecker(bufferMinutes int) *ConflictChecker {
	if bufferMinutes < 0 {
		bufferMinutes = 0
	}
	return &ConflictChecker{bufferMinutes: bufferMinutes}
}

// CheckWindow verifies the candidate span lies inside the resolved working
// window for the day.
func (c *ConflictChecker) CheckWindow(candidate timegrid.Span, window models.DayWindow) error {
	if !window.IsAvailable {
		return appErrors.Clone(appErrors.ErrAvailability, "instructor is not available on this date")
	}
	windowSpan, err := timegrid.ParseSpan(window.StartTime, window.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolved availability window is malformed")
	}
	if !candidate.Within(windowSpan) {
		return appErrors.Clone(appErrors.ErrAvailability,
			fmt.Sprintf("requested time %s falls outside the working window %s", candidate, windowSpan))
	}
	return nil
}

// CheckAgainst rejects the candidate span when it overlaps any non-cancelled
// booking in the list, ignoring excludeID (used when a booking is being
// rescheduled and must not conflict with itself).
func (c *ConflictChecker) CheckAgainst(dimension string, candidate timegrid.Span, existing []models.Booking, excludeID string) error {
	for _, booking := range existing {
		if booking.ID == excludeID || booking.Status == models.BookingCancelled {
			continue
		}
		span, err := timegrid.ParseSpan(booking.StartTime, booking.EndTime)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("stored booking %s has a malformed time range", booking.ID))
		}
		if candidate.Overlaps(span.ExpandedBy(c.bufferMinutes)) {
			return c.wrapConflict(dimension, booking)
		}
	}
	return nil
}

func (c *ConflictChecker) wrapConflict(dimension string, blocking models.Booking) error {
	message := "instructor already has a lesson in this time slot"
	if dimension == conflictDimensionStudent {
		message = "student already has a lesson in this time slot"
	}
	domainErr := &models.BookingConflictError{
		Dimension: dimension,
		Message:   message,
		Conflict: models.BookingConflict{
			BookingID:    blocking.ID,
			InstructorID: blocking.InstructorID,
			StudentID:    blocking.StudentID,
			Date:         blocking.Date.Format("2006-01-02"),
			StartTime:    blocking.StartTime,
			EndTime:      blocking.EndTime,
			Dimension:    dimension,
		},
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
		fmt.Sprintf("booking conflict: %s", message))
}
