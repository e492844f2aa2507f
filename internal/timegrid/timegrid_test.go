package timegrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		raw     string
		want    Minutes
		wantErr bool
	}{
		{raw: "00:00", want: 0},
		{raw: "09:30", want: 570},
		{raw: "23:59", want: 1439},
		{raw: "24:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "9:30", wantErr: true},
		{raw: "09:3", wantErr: true},
		{raw: "0930", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "aa:bb", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestMinutesClockRoundTrip(t *testing.T) {
	for _, raw := range []string{"00:00", "08:05", "13:45", "23:59"} {
		m, err := ParseClock(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, m.Clock())
	}
}

func TestNewSpan(t *testing.T) {
	span, err := NewSpan("10:00", 90)
	require.NoError(t, err)
	assert.Equal(t, "10:00-11:30", span.String())

	_, err = NewSpan("10:00", 0)
	assert.Error(t, err)

	_, err = NewSpan("10:00", -60)
	assert.Error(t, err)

	// 23:30 + 60 crosses midnight.
	_, err = NewSpan("23:30", 60)
	assert.Error(t, err)

	// Ending exactly at midnight is allowed.
	span, err = NewSpan("23:00", 60)
	require.NoError(t, err)
	assert.Equal(t, Minutes(MinutesPerDay), span.End)
}

func TestParseSpan(t *testing.T) {
	span, err := ParseSpan("09:00", "17:00")
	require.NoError(t, err)
	assert.Equal(t, Minutes(540), span.Start)
	assert.Equal(t, Minutes(1020), span.End)

	_, err = ParseSpan("17:00", "09:00")
	assert.Error(t, err)

	_, err = ParseSpan("09:00", "09:00")
	assert.Error(t, err)

	_, err = ParseSpan("", "09:00")
	assert.Error(t, err)
}

func TestSpanOverlaps(t *testing.T) {
	base := mustSpan(t, "10:00", "11:00")

	cases := []struct {
		start, end string
		want       bool
	}{
		{"10:30", "11:30", true},
		{"09:30", "10:30", true},
		{"10:15", "10:45", true},
		{"09:00", "12:00", true},
		// Half-open: touching endpoints do not overlap.
		{"11:00", "12:00", false},
		{"09:00", "10:00", false},
		{"12:00", "13:00", false},
	}
	for _, tc := range cases {
		other := mustSpan(t, tc.start, tc.end)
		assert.Equal(t, tc.want, base.Overlaps(other), "%s vs %s", base, other)
		assert.Equal(t, tc.want, other.Overlaps(base), "%s vs %s reversed", other, base)
	}
}

func TestSpanExpandedBy(t *testing.T) {
	span := mustSpan(t, "10:00", "11:00")
	expanded := span.ExpandedBy(15)
	assert.Equal(t, "09:45-11:15", expanded.String())

	// Clamped at the day boundaries.
	early := mustSpan(t, "00:10", "01:00")
	assert.Equal(t, Minutes(0), early.ExpandedBy(30).Start)
	late := Span{Start: 1380, End: 1440}
	assert.Equal(t, Minutes(MinutesPerDay), late.ExpandedBy(30).End)

	assert.Equal(t, span, span.ExpandedBy(0))
}

func TestSpanWithin(t *testing.T) {
	window := mustSpan(t, "09:00", "17:00")

	assert.True(t, mustSpan(t, "09:00", "10:00").Within(window))
	assert.True(t, mustSpan(t, "16:00", "17:00").Within(window))
	assert.True(t, mustSpan(t, "09:00", "17:00").Within(window))
	assert.False(t, mustSpan(t, "08:30", "09:30").Within(window))
	assert.False(t, mustSpan(t, "16:30", "17:30").Within(window))
	assert.False(t, mustSpan(t, "08:00", "18:00").Within(window))
}

func mustSpan(t *testing.T, start, end string) Span {
	t.Helper()
	span, err := ParseSpan(start, end)
	require.NoError(t, err)
	return span
}
