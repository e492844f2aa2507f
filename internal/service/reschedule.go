package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/internal/timegrid"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

// RescheduleBookingRequest moves an existing booking to a new slot. The
// lesson keeps its duration, class type, location, price and package
// bookkeeping; only instructor, date and time change.
type RescheduleBookingRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required"`
}

// Reschedule re-runs availability and conflict validation against the new
// instructor/date/time before moving the booking in place. The booking being
// moved is excluded from its own conflict set. On any failure the original
// booking is left untouched.
func (s *BookingService) Reschedule(ctx context.Context, id string, req RescheduleBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingApproved {
		return nil, appErrors.Clone(appErrors.ErrState,
			"only pending or approved bookings can be rescheduled")
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	span, err := timegrid.NewSpan(req.StartTime, booking.DurationMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson time")
	}

	instructor, err := s.loadInstructor(ctx, req.InstructorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignment(instructor, booking.ClassType, booking.Location); err != nil {
		return nil, err
	}

	window, err := s.resolver.ResolveWindow(ctx, req.InstructorID, date)
	if err != nil {
		return nil, err
	}

	err = s.withSerializableTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.validateSlot(ctx, tx, slotCandidate{
			instructorID: req.InstructorID,
			studentID:    booking.StudentID,
			date:         date,
			span:         span,
			window:       window,
			excludeID:    booking.ID,
		}); err != nil {
			s.rejected(err)
			return err
		}

		if err := s.repo.UpdateSlot(ctx, tx, booking.ID, req.InstructorID, date, span.Start.Clock(), span.End.Clock()); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	moved := *booking
	moved.InstructorID = req.InstructorID
	moved.Date = date
	moved.StartTime = span.Start.Clock()
	moved.EndTime = span.End.Clock()

	s.logger.Sugar().Infow("booking rescheduled",
		"booking_id", moved.ID,
		"instructor_id", moved.InstructorID,
		"date", req.Date,
		"slot", span.String(),
	)
	return &moved, nil
}
