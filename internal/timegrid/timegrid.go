// Package timegrid provides minute-of-day arithmetic for the HH:MM clock
// strings the booking engine stores. All comparisons treat intervals as
// half-open [start, end).
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every clock value handled by the engine.
const MinutesPerDay = 24 * 60

// Minutes is a clock time expressed as minutes since midnight.
type Minutes int

// ParseClock converts an "HH:MM" string into Minutes.
func ParseClock(raw string) (Minutes, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock value %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return Minutes(hour*60 + minute), nil
}

// Clock renders the value back as "HH:MM".
func (m Minutes) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Add returns the clock value shifted by the given number of minutes.
func (m Minutes) Add(minutes int) Minutes {
	return m + Minutes(minutes)
}

// Span is a half-open interval within a single day.
type Span struct {
	Start Minutes
	End   Minutes
}

// NewSpan builds a span from a start clock and a duration in minutes. The
// span must end within the same day.
func NewSpan(start string, durationMinutes int) (Span, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Span{}, err
	}
	if durationMinutes <= 0 {
		return Span{}, fmt.Errorf("duration must be positive, got %d", durationMinutes)
	}
	end := s.Add(durationMinutes)
	if end > MinutesPerDay {
		return Span{}, fmt.Errorf("lesson starting at %s with %d minutes runs past midnight", start, durationMinutes)
	}
	return Span{Start: s, End: end}, nil
}

// ParseSpan builds a span from explicit start and end clocks.
func ParseSpan(start, end string) (Span, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Span{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Span{}, err
	}
	if e <= s {
		return Span{}, fmt.Errorf("span %s-%s is empty or inverted", start, end)
	}
	return Span{Start: s, End: e}, nil
}

// Overlaps reports whether two half-open spans intersect.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// ExpandedBy widens the span by buffer minutes on both sides, clamped to the
// day. Used only for conflict comparison, never stored.
func (s Span) ExpandedBy(bufferMinutes int) Span {
	out := Span{Start: s.Start - Minutes(bufferMinutes), End: s.End + Minutes(bufferMinutes)}
	if out.Start < 0 {
		out.Start = 0
	}
	if out.End > MinutesPerDay {
		out.End = MinutesPerDay
	}
	return out
}

// Within reports whether the span lies entirely inside the window.
func (s Span) Within(window Span) bool {
	return s.Start >= window.Start && s.End <= window.End
}

// String renders the span for logs and error messages.
func (s Span) String() string {
	return s.Start.Clock() + "-" + s.End.Clock()
}
