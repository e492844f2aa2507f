package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/internal/timegrid"
	"github.com/roadready/drive-booking-api/pkg/config"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	ListForInstructorOnDate(ctx context.Context, exec sqlx.ExtContext, instructorID string, date time.Time, forUpdate bool) ([]models.Booking, error)
	ListForStudentOnDate(ctx context.Context, exec sqlx.ExtContext, studentID string, date time.Time, forUpdate bool) ([]models.Booking, error)
	ExistsPending(ctx context.Context, exec sqlx.ExtContext, studentID, excludeID string) (bool, error)
	ListPackageHistory(ctx context.Context, exec sqlx.ExtContext, studentID string, classType models.ClassType, durationMinutes int) ([]models.Booking, error)
	Create(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error
	UpdateSlot(ctx context.Context, exec sqlx.ExtContext, id, instructorID string, date time.Time, startTime, endTime string) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	AppendNote(ctx context.Context, exec sqlx.ExtContext, id, note string) error
	CancelPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type windowResolver interface {
	ResolveWindow(ctx context.Context, instructorID string, date time.Time) (models.DayWindow, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type bookingMetrics interface {
	BookingCreated()
	BookingRejected(reason string)
	BookingsSwept(count int)
}

// CreateBookingRequest describes the payload for booking a lesson.
type CreateBookingRequest struct {
	StudentID       string           `json:"student_id" validate:"required"`
	InstructorID    string           `json:"instructor_id" validate:"required"`
	Location        string           `json:"location" validate:"required"`
	ClassType       models.ClassType `json:"class_type" validate:"required,oneof=class4 class5 class7"`
	DurationMinutes int              `json:"duration_minutes" validate:"required,oneof=60 90 120"`
	Date            string           `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string           `json:"start_time" validate:"required"`
	Price           *float64         `json:"price" validate:"omitempty,gt=0"`
	Notes           string           `json:"notes"`
	TermsAccepted   bool             `json:"terms_accepted"`
}

// ChangeStatusRequest moves a booking through its lifecycle.
type ChangeStatusRequest struct {
	Status models.BookingStatus `json:"status" validate:"required,oneof=pending approved completed cancelled"`
}

// CancelBookingRequest cancels a booking, optionally noting why.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// ChangePaymentStatusRequest advances the orthogonal payment flow.
type ChangePaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"required,oneof=requested invoice-sent approved rejected completed"`
}

// Legal lifecycle transitions. Cancelled and completed are terminal.
var statusTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:  {models.BookingApproved, models.BookingCancelled},
	models.BookingApproved: {models.BookingCompleted, models.BookingCancelled},
}

// Legal payment transitions, independent of the booking lifecycle.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentRequested:   {models.PaymentInvoiceSent},
	models.PaymentInvoiceSent: {models.PaymentApproved, models.PaymentRejected},
	models.PaymentApproved:    {models.PaymentCompleted},
}

// BookingService owns the booking lifecycle: validated creation, status and
// payment transitions, the expiry sweep and rescheduling. The conflict check
// and the write always share one serializable transaction: row locks on the
// candidate day cover the common case, and the isolation level aborts the
// loser when both writers started from an empty conflict set, so two
// concurrent requests can never both commit overlapping lessons.
type BookingService struct {
	db          txProvider
	repo        bookingRepository
	instructors instructorReader
	resolver    windowResolver
	checker     *ConflictChecker
	valuator    *PackageValuator
	cfg         config.BookingConfig
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     bookingMetrics
}

// NewBookingService instantiates BookingService. Metrics may be nil.
func NewBookingService(db txProvider, repo bookingRepository, instructors instructorReader, resolver windowResolver, checker *ConflictChecker, valuator *PackageValuator, cfg config.BookingConfig, validate *validator.Validate, logger *zap.Logger, metrics bookingMetrics) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if checker == nil {
		checker = NewConflictChecker(cfg.BufferMinutes)
	}
	return &BookingService{
		db:          db,
		repo:        repo,
		instructors: instructors,
		resolver:    resolver,
		checker:     checker,
		valuator:    valuator,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// Get loads a single booking.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// List returns bookings with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// Create validates the candidate against availability, conflicts and the
// single-pending rule, prices it via the package valuator and persists it as
// pending. All checks and writes share one transaction.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	span, err := timegrid.NewSpan(req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson time")
	}

	instructor, err := s.loadInstructor(ctx, req.InstructorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignment(instructor, req.ClassType, req.Location); err != nil {
		return nil, err
	}

	window, err := s.resolver.ResolveWindow(ctx, req.InstructorID, date)
	if err != nil {
		return nil, err
	}

	var (
		booking   *models.Booking
		completes bool
	)
	err = s.withSerializableTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.validateSlot(ctx, tx, slotCandidate{
			instructorID: req.InstructorID,
			studentID:    req.StudentID,
			date:         date,
			span:         span,
			window:       window,
		}); err != nil {
			s.rejected(err)
			return err
		}

		pending, err := s.repo.ExistsPending(ctx, tx, req.StudentID, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending bookings")
		}
		if pending {
			s.rejected(appErrors.ErrDuplicatePending)
			return appErrors.Clone(appErrors.ErrDuplicatePending, "")
		}

		prior, err := s.repo.ListPackageHistory(ctx, tx, req.StudentID, req.ClassType, req.DurationMinutes)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson history")
		}
		valuation, err := s.valuator.Evaluate(ctx, prior, req.ClassType, req.DurationMinutes, req.Price)
		if err != nil {
			return err
		}
		completes = valuation.CompletesPackage

		booking = &models.Booking{
			StudentID:       req.StudentID,
			InstructorID:    req.InstructorID,
			Location:        req.Location,
			ClassType:       req.ClassType,
			PackageLabel:    valuation.PackageLabel,
			DurationMinutes: req.DurationMinutes,
			Date:            date,
			StartTime:       span.Start.Clock(),
			EndTime:         span.End.Clock(),
			Status:          models.BookingPending,
			PaymentStatus:   models.PaymentRequested,
			Price:           valuation.Price,
			Notes:           joinNotes(req.Notes, valuation.Note),
		}
		if req.TermsAccepted {
			now := time.Now().UTC()
			booking.TermsAcceptedAt = &now
		}

		if err := s.repo.Create(ctx, tx, booking); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
		}
		for _, priorID := range valuation.PriorIDs {
			if err := s.repo.AppendNote(ctx, tx, priorID, valuation.PriorNote); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to annotate package lessons")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingCreated()
	}
	s.logger.Sugar().Infow("booking created",
		"booking_id", booking.ID,
		"instructor_id", booking.InstructorID,
		"student_id", booking.StudentID,
		"date", req.Date,
		"slot", span.String(),
		"completes_package", completes,
	)
	return booking, nil
}

// Transition moves a booking to a new lifecycle status.
func (s *BookingService) Transition(ctx context.Context, id string, req ChangeStatusRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(statusTransitions[booking.Status], req.Status) {
		return nil, appErrors.Clone(appErrors.ErrState,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, req.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	booking.Status = req.Status
	s.logger.Sugar().Infow("booking status changed", "booking_id", id, "status", req.Status)
	return booking, nil
}

// TransitionPayment advances the payment sub-state machine.
func (s *BookingService) TransitionPayment(ctx context.Context, id string, req ChangePaymentStatusRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment status payload")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !paymentTransitionAllowed(paymentTransitions[booking.PaymentStatus], req.PaymentStatus) {
		return nil, appErrors.Clone(appErrors.ErrState,
			fmt.Sprintf("cannot move payment from %s to %s", booking.PaymentStatus, req.PaymentStatus))
	}

	if err := s.repo.UpdatePaymentStatus(ctx, id, req.PaymentStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	booking.PaymentStatus = req.PaymentStatus
	s.logger.Sugar().Infow("payment status changed", "booking_id", id, "payment_status", req.PaymentStatus)
	return booking, nil
}

// Cancel moves a booking to cancelled, recording the reason as a note when
// one is given. The usual transition rules apply: completed and cancelled
// bookings stay where they are.
func (s *BookingService) Cancel(ctx context.Context, id string, req CancelBookingRequest) (*models.Booking, error) {
	booking, err := s.Transition(ctx, id, ChangeStatusRequest{Status: models.BookingCancelled})
	if err != nil {
		return nil, err
	}
	if req.Reason != "" {
		note := "cancelled: " + req.Reason
		if err := s.repo.AppendNote(ctx, nil, id, note); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record cancellation reason")
		}
		booking.Notes = joinNotes(booking.Notes, note)
	}
	return booking, nil
}

// SweepExpired cancels pending bookings older than the configured TTL in a
// single batch statement. Running it twice in a row is a no-op the second
// time, and it is safe alongside concurrent creates: the update only touches
// rows that were already stale when it started.
func (s *BookingService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.cfg.PendingTTL)
	count, err := s.repo.CancelPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep expired bookings")
	}
	if count > 0 {
		if s.metrics != nil {
			s.metrics.BookingsSwept(int(count))
		}
		s.logger.Sugar().Infow("expired pending bookings cancelled", "count", count, "cutoff", cutoff)
	}
	return count, nil
}

// Postgres aborts the loser of two racing serializable transactions with
// SQLSTATE 40001. The loser re-runs its checks from scratch against the
// winner's committed rows, a bounded number of times.
const serializationRetries = 3

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

// withSerializableTx runs fn inside a SERIALIZABLE transaction and commits
// it, retrying fn on serialization failure. Exhausting the retries surfaces
// as a conflict.
func (s *BookingService) withSerializableTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= serializationRetries; attempt++ {
		if err = s.runSerializableTx(ctx, fn); err == nil || !isSerializationFailure(err) {
			return err
		}
		s.logger.Sugar().Warnw("booking transaction lost a serialization race, retrying", "attempt", attempt)
	}
	if s.metrics != nil {
		s.metrics.BookingRejected(appErrors.ErrConflict.Code)
	}
	return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "booking conflicts with a concurrent request")
}

func (s *BookingService) runSerializableTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open booking transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit booking transaction")
	}
	return nil
}

// slotCandidate bundles what the transactional slot validation needs.
type slotCandidate struct {
	instructorID string
	studentID    string
	date         time.Time
	span         timegrid.Span
	window       models.DayWindow
	excludeID    string
}

// validateSlot runs the window and both conflict checks with day rows
// locked. Must be called inside a transaction.
func (s *BookingService) validateSlot(ctx context.Context, tx *sqlx.Tx, candidate slotCandidate) error {
	if err := s.checker.CheckWindow(candidate.span, candidate.window); err != nil {
		return err
	}

	instructorDay, err := s.repo.ListForInstructorOnDate(ctx, tx, candidate.instructorID, candidate.date, true)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor bookings")
	}
	if err := s.checker.CheckAgainst(conflictDimensionInstructor, candidate.span, instructorDay, candidate.excludeID); err != nil {
		return err
	}

	studentDay, err := s.repo.ListForStudentOnDate(ctx, tx, candidate.studentID, candidate.date, true)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student bookings")
	}
	return s.checker.CheckAgainst(conflictDimensionStudent, candidate.span, studentDay, candidate.excludeID)
}

func (s *BookingService) loadInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

func (s *BookingService) checkAssignment(instructor *models.Instructor, classType models.ClassType, location string) error {
	if !instructor.Active {
		return appErrors.Clone(appErrors.ErrValidation, "instructor is not active")
	}
	if !instructor.Teaches(classType) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("instructor does not teach %s", classType))
	}
	if !instructor.Serves(location) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("instructor does not serve %s", location))
	}
	if len(s.cfg.Locations) > 0 {
		known := false
		for _, l := range s.cfg.Locations {
			if l == location {
				known = true
				break
			}
		}
		if !known {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown location %s", location))
		}
	}
	return nil
}

func (s *BookingService) rejected(err error) {
	// Serialization failures are retried, not rejected.
	if s.metrics == nil || isSerializationFailure(err) {
		return
	}
	s.metrics.BookingRejected(appErrors.FromError(err).Code)
}

func transitionAllowed(allowed []models.BookingStatus, target models.BookingStatus) bool {
	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

func paymentTransitionAllowed(allowed []models.PaymentStatus, target models.PaymentStatus) bool {
	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

func joinNotes(notes, extra string) string {
	switch {
	case notes == "":
		return extra
	case extra == "":
		return notes
	default:
		return notes + "; " + extra
	}
}
