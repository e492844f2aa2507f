package models

import "time"

// ClassType is the licence class a lesson prepares for.
type ClassType string

const (
	ClassType4 ClassType = "class4"
	ClassType5 ClassType = "class5"
	ClassType7 ClassType = "class7"
)

// ValidClassTypes is the closed set accepted at the API boundary.
var ValidClassTypes = []ClassType{ClassType4, ClassType5, ClassType7}

// IsValid reports whether the class type belongs to the closed set.
func (c ClassType) IsValid() bool {
	for _, v := range ValidClassTypes {
		if c == v {
			return true
		}
	}
	return false
}

// LessonDurations lists the allowed lesson lengths in minutes.
var LessonDurations = []int{60, 90, 120}

// BookingStatus is the lesson lifecycle state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks the invoicing flow, orthogonal to BookingStatus.
type PaymentStatus string

const (
	PaymentRequested   PaymentStatus = "requested"
	PaymentInvoiceSent PaymentStatus = "invoice-sent"
	PaymentApproved    PaymentStatus = "approved"
	PaymentRejected    PaymentStatus = "rejected"
	PaymentCompleted   PaymentStatus = "completed"
)

// Booking represents a driving lesson reservation. EndTime is always
// StartTime plus the duration; the conflict buffer is never stored here.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"student_id"`
	InstructorID    string        `db:"instructor_id" json:"instructor_id"`
	Location        string        `db:"location" json:"location"`
	ClassType       ClassType     `db:"class_type" json:"class_type"`
	PackageLabel    string        `db:"package_label" json:"package_label,omitempty"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Date            time.Time     `db:"lesson_date" json:"date"`
	StartTime       string        `db:"start_time" json:"start_time"`
	EndTime         string        `db:"end_time" json:"end_time"`
	Status          BookingStatus `db:"status" json:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
	Price           *float64      `db:"price" json:"price,omitempty"`
	Notes           string        `db:"notes" json:"notes,omitempty"`
	TermsAcceptedAt *time.Time    `db:"terms_accepted_at" json:"terms_accepted_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	InstructorID string
	StudentID    string
	Date         *time.Time
	Status       BookingStatus
	ClassType    ClassType
	Page         int
	PageSize     int
}

// BookingConflict describes the existing lesson that blocks a candidate.
type BookingConflict struct {
	BookingID    string `json:"booking_id"`
	InstructorID string `json:"instructor_id"`
	StudentID    string `json:"student_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Dimension    string `json:"dimension"`
}

// BookingConflictError is returned when a candidate lesson collides with an
// existing one on either the instructor or the student dimension.
type BookingConflictError struct {
	Dimension string          `json:"dimension"`
	Message   string          `json:"message"`
	Conflict  BookingConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
