package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/roadready/drive-booking-api/internal/models"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
}

// CreateInstructorRequest describes payload for adding an instructor.
type CreateInstructorRequest struct {
	FullName   string   `json:"full_name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      *string  `json:"phone"`
	Locations  []string `json:"locations" validate:"required,min=1"`
	ClassTypes []string `json:"class_types" validate:"required,min=1,dive,oneof=class4 class5 class7"`
}

// InstructorService manages the teaching roster.
type InstructorService struct {
	repo      instructorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService instantiates InstructorService.
func NewInstructorService(repo instructorRepository, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, validator: validate, logger: logger}
}

// List returns instructors with pagination metadata.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
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
	return instructors, pagination, nil
}

// Get loads an instructor by id.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create adds a new instructor to the roster.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	for _, c := range req.ClassTypes {
		if !models.ClassType(c).IsValid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class type %s", c))
		}
	}

	instructor := &models.Instructor{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Locations:  pq.StringArray(req.Locations),
		ClassTypes: pq.StringArray(req.ClassTypes),
		Active:     true,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	s.logger.Sugar().Infow("instructor created", "instructor_id", instructor.ID)
	return instructor, nil
}
