package models

import (
	"strings"
	"time"
)

// WeekdayOf normalises a calendar date to the uppercase weekday name used in
// availability rows ("MONDAY" .. "SUNDAY").
func WeekdayOf(date time.Time) string {
	return strings.ToUpper(date.Weekday().String())
}

// WeeklyAvailability is one instructor-specific weekday working window.
type WeeklyAvailability struct {
	ID           string    `db:"id" json:"id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	IsAvailable  bool      `db:"is_available" json:"is_available"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Absence blocks an instructor entirely for every date in [StartDate, EndDate].
// It overrides every other availability source.
type Absence struct {
	ID           string    `db:"id" json:"id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Reason       string    `db:"reason" json:"reason,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the absence includes the given calendar date.
func (a Absence) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(a.StartDate)) && !d.After(DateOnly(a.EndDate))
}

// GlobalAvailability is a school-wide weekday default. When StartDate and
// EndDate are set the row is a special date-ranged override that takes
// precedence over the plain default; ranges for one weekday never overlap
// (enforced when the row is written).
type GlobalAvailability struct {
	ID          string     `db:"id" json:"id"`
	DayOfWeek   string     `db:"day_of_week" json:"day_of_week"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	IsAvailable bool       `db:"is_available" json:"is_available"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsSpecial reports whether the row is a date-ranged override.
func (g GlobalAvailability) IsSpecial() bool {
	return g.StartDate != nil && g.EndDate != nil
}

// DayWindow is the effective working window resolved for one instructor and
// one calendar date.
type DayWindow struct {
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	IsAvailable bool   `json:"is_available"`
	// Source records which rule won: absence, special, global, weekly, none.
	Source string `json:"source"`
}

// Window sources in precedence order.
const (
	WindowSourceAbsence = "absence"
	WindowSourceSpecial = "special"
	WindowSourceGlobal  = "global"
	WindowSourceWeekly  = "weekly"
	WindowSourceNone    = "none"
)

// DateOnly strips the time-of-day component, keeping the location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
