package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roadready/drive-booking-api/internal/models"
)

const bookingColumns = "id, student_id, instructor_id, location, class_type, package_label, duration_minutes, lesson_date, start_time, end_time, status, payment_status, price, notes, terms_accepted_at, created_at, updated_at"

// BookingRepository provides persistence for bookings. Methods that take an
// sqlx.ExtContext participate in the caller's transaction so the conflict
// check and the insert form one atomic unit.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("lesson_date = $%d", len(args)+1))
		args = append(args, models.DateOnly(*filter.Date))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ClassType != "" {
		conditions = append(conditions, fmt.Sprintf("class_type = $%d", len(args)+1))
		args = append(args, filter.ClassType)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY lesson_date ASC, start_time ASC LIMIT %d OFFSET %d", bookingColumns, base, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// ListForInstructorOnDate returns every non-cancelled booking for the
// instructor on the given date. With forUpdate the rows are locked so two
// concurrent creates for the same instructor/day serialize.
func (r *BookingRepository) ListForInstructorOnDate(ctx context.Context, exec sqlx.ExtContext, instructorID string, date time.Time, forUpdate bool) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE instructor_id = $1 AND lesson_date = $2 AND status <> 'cancelled' ORDER BY start_time ASC", bookingColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, instructorID, models.DateOnly(date)); err != nil {
		return nil, fmt.Errorf("list instructor day bookings: %w", err)
	}
	return bookings, nil
}

// ListForStudentOnDate returns every non-cancelled booking for the student on
// the given date, regardless of instructor or location.
func (r *BookingRepository) ListForStudentOnDate(ctx context.Context, exec sqlx.ExtContext, studentID string, date time.Time, forUpdate bool) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE student_id = $1 AND lesson_date = $2 AND status <> 'cancelled' ORDER BY start_time ASC", bookingColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, studentID, models.DateOnly(date)); err != nil {
		return nil, fmt.Errorf("list student day bookings: %w", err)
	}
	return bookings, nil
}

// ExistsPending reports whether the student already has a pending booking,
// optionally ignoring one booking id.
func (r *BookingRepository) ExistsPending(ctx context.Context, exec sqlx.ExtContext, studentID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM bookings WHERE student_id = $1 AND status = 'pending'"
	args := []interface{}{studentID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var one int
	err := sqlx.GetContext(ctx, r.exec(exec), &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check pending booking: %w", err)
	}
	return true, nil
}

// ListPackageHistory returns the student's non-cancelled bookings for one
// class/duration pair ordered by date then start time ascending. The package
// valuator depends on this exact ordering.
func (r *BookingRepository) ListPackageHistory(ctx context.Context, exec sqlx.ExtContext, studentID string, classType models.ClassType, durationMinutes int) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE student_id = $1 AND class_type = $2 AND duration_minutes = $3 AND status <> 'cancelled' ORDER BY lesson_date ASC, start_time ASC", bookingColumns)
	var bookings []models.Booking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, studentID, classType, durationMinutes); err != nil {
		return nil, fmt.Errorf("list package history: %w", err)
	}
	return bookings, nil
}

// Create stores a new booking record.
func (r *BookingRepository) Create(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	query := fmt.Sprintf("INSERT INTO bookings (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)", bookingColumns)
	_, err := r.exec(exec).ExecContext(ctx, query,
		booking.ID,
		booking.StudentID,
		booking.InstructorID,
		booking.Location,
		booking.ClassType,
		booking.PackageLabel,
		booking.DurationMinutes,
		models.DateOnly(booking.Date),
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.PaymentStatus,
		booking.Price,
		booking.Notes,
		booking.TermsAcceptedAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// UpdateSlot moves a booking to a new instructor/date/time in place,
// preserving identity, pricing and package bookkeeping.
func (r *BookingRepository) UpdateSlot(ctx context.Context, exec sqlx.ExtContext, id, instructorID string, date time.Time, startTime, endTime string) error {
	const query = `UPDATE bookings SET instructor_id = $2, lesson_date = $3, start_time = $4, end_time = $5, updated_at = $6 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, id, instructorID, models.DateOnly(date), startTime, endTime, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking slot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("booking %s not found", id)
	}
	return nil
}

// UpdateStatus sets the lifecycle status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const query = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// UpdatePaymentStatus sets the orthogonal payment state.
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	const query = `UPDATE bookings SET payment_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking payment status: %w", err)
	}
	return nil
}

// AppendNote adds an annotation to a booking without touching its price.
func (r *BookingRepository) AppendNote(ctx context.Context, exec sqlx.ExtContext, id, note string) error {
	const query = `UPDATE bookings SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || '; ' || $2 END, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, note, time.Now().UTC()); err != nil {
		return fmt.Errorf("append booking note: %w", err)
	}
	return nil
}

// CancelPendingBefore cancels every pending booking created before the
// cutoff in a single statement, returning the number of rows changed. The
// statement is idempotent: a second run matches nothing.
func (r *BookingRepository) CancelPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `UPDATE bookings SET status = 'cancelled', updated_at = $2 WHERE status = 'pending' AND created_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cancel expired pending bookings: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cancelled bookings: %w", err)
	}
	return count, nil
}
