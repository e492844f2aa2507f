package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadready/drive-booking-api/internal/models"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

func rosterFixture() (*bookingRepoStub, *instructorReaderStub) {
	repo := newBookingRepoStub()
	repo.bookings["b1"] = &models.Booking{
		ID: "b1", StudentID: "stud-1", InstructorID: "inst-1", Location: "downtown",
		ClassType: models.ClassType5, DurationMinutes: 90, Date: monday,
		StartTime: "10:00", EndTime: "11:30", Status: models.BookingApproved,
	}
	repo.bookings["b2"] = &models.Booking{
		ID: "b2", StudentID: "stud-2", InstructorID: "inst-1", Location: "downtown",
		ClassType: models.ClassType5, DurationMinutes: 60, Date: monday,
		StartTime: "13:00", EndTime: "14:00", Status: models.BookingCancelled,
	}
	return repo, knownInstructors()
}

func TestDayRosterCSV(t *testing.T) {
	repo, instructors := rosterFixture()
	svc := NewExportService(repo, instructors, nil)

	result, err := svc.DayRoster(context.Background(), "inst-1", monday, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "roster-inst-1-2026-09-07.csv", result.Filename)

	content := string(result.Content)
	assert.True(t, strings.HasPrefix(content, "Start,End,Student,Class,Duration,Location,Status"))
	assert.Contains(t, content, "10:00,11:30,stud-1,class5,90 min,downtown,approved")
	// Cancelled lessons are left off the roster.
	assert.NotContains(t, content, "stud-2")
}

func TestDayRosterPDF(t *testing.T) {
	repo, instructors := rosterFixture()
	svc := NewExportService(repo, instructors, nil)

	result, err := svc.DayRoster(context.Background(), "inst-1", monday, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "roster-inst-1-2026-09-07.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestDayRosterUnknownInstructor(t *testing.T) {
	repo, instructors := rosterFixture()
	svc := NewExportService(repo, instructors, nil)

	_, err := svc.DayRoster(context.Background(), "ghost", monday, ExportCSV)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDayRosterInstructorLookupFailure(t *testing.T) {
	repo, instructors := rosterFixture()
	instructors.err = sql.ErrConnDone
	svc := NewExportService(repo, instructors, nil)

	// Infrastructure failures are not reported as a missing instructor.
	_, err := svc.DayRoster(context.Background(), "inst-1", monday, ExportCSV)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestDayRosterUnsupportedFormat(t *testing.T) {
	repo, instructors := rosterFixture()
	svc := NewExportService(repo, instructors, nil)

	_, err := svc.DayRoster(context.Background(), "inst-1", monday, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
