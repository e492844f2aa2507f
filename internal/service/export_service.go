package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roadready/drive-booking-api/internal/models"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
	"github.com/roadready/drive-booking-api/pkg/export"
)

type rosterReader interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

// ExportFormat selects the roster rendering.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus HTTP metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders an instructor's day roster for download.
type ExportService struct {
	bookings    rosterReader
	instructors instructorReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService instantiates ExportService.
func NewExportService(bookings rosterReader, instructors instructorReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings:    bookings,
		instructors: instructors,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// DayRoster renders all non-cancelled lessons for one instructor and date.
func (s *ExportService) DayRoster(ctx context.Context, instructorID string, date time.Time, format ExportFormat) (*ExportResult, error) {
	instructor, err := s.instructors.FindByID(ctx, instructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	bookings, _, err := s.bookings.List(ctx, models.BookingFilter{
		InstructorID: instructorID,
		Date:         &date,
		PageSize:     100,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := export.Dataset{
		Headers: []string{"Start", "End", "Student", "Class", "Duration", "Location", "Status"},
	}
	for _, b := range bookings {
		if b.Status == models.BookingCancelled {
			continue
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Start":    b.StartTime,
			"End":      b.EndTime,
			"Student":  b.StudentID,
			"Class":    string(b.ClassType),
			"Duration": fmt.Sprintf("%d min", b.DurationMinutes),
			"Location": b.Location,
			"Status":   string(b.Status),
		})
	}

	day := models.DateOnly(date).Format("2006-01-02")
	switch format {
	case ExportCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("roster-%s-%s.csv", instructor.ID, day),
		}, nil
	case ExportPDF:
		title := fmt.Sprintf("%s - %s", instructor.FullName, day)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("roster-%s-%s.pdf", instructor.ID, day),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
