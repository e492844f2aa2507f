package models

import (
	"time"

	"github.com/lib/pq"
)

// Instructor is a member of the teaching roster. Locations and ClassTypes
// bound which bookings the instructor may take.
type Instructor struct {
	ID         string         `db:"id" json:"id"`
	FullName   string         `db:"full_name" json:"full_name"`
	Email      string         `db:"email" json:"email"`
	Phone      *string        `db:"phone" json:"phone,omitempty"`
	Locations  pq.StringArray `db:"locations" json:"locations"`
	ClassTypes pq.StringArray `db:"class_types" json:"class_types"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Teaches reports whether the instructor covers the class type.
func (i Instructor) Teaches(classType ClassType) bool {
	for _, c := range i.ClassTypes {
		if c == string(classType) {
			return true
		}
	}
	return false
}

// Serves reports whether the instructor picks up at the location.
func (i Instructor) Serves(location string) bool {
	for _, l := range i.Locations {
		if l == location {
			return true
		}
	}
	return false
}

// InstructorFilter describes query params for listing instructors.
type InstructorFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
