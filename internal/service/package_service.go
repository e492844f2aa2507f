package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/pkg/config"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
)

type priceReader interface {
	Find(ctx context.Context, classType models.ClassType, durationMinutes int, packageLabel string) (*models.PriceRule, error)
}

// Valuation is the pricing outcome for one candidate booking.
type Valuation struct {
	// Price to store on the new booking. Nil when the caller supplied none
	// and the booking does not complete a package.
	Price *float64
	// Note and PackageLabel are set only on a completing booking.
	Note         string
	PackageLabel string
	// CompletesPackage is true when the new booking is the final lesson of a
	// multi-lesson package.
	CompletesPackage bool
	PackageSize      int
	// PriorIDs lists the earlier lessons of the completed package that must
	// be annotated with PriorNote. Their prices are never touched.
	PriorIDs  []string
	PriorNote string
}

// PackageValuator prices a booking against the student's lesson history.
// Package sizes are fixed per class/duration pair; a booking completes a
// package when it is the Nth, 2Nth, ... lesson of that pair.
type PackageValuator struct {
	prices   priceReader
	fallback config.BookingConfig
	logger   *zap.Logger
}

// NewPackageValuator instantiates PackageValuator.
func NewPackageValuator(prices priceReader, cfg config.BookingConfig, logger *zap.Logger) *PackageValuator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageValuator{prices: prices, fallback: cfg, logger: logger}
}

// Evaluate computes the valuation for a new booking given the student's
// prior non-cancelled lessons of the same class/duration, ordered by date
// then start time ascending. That ordering decides which lessons belong to
// the completed package, so callers must not re-sort.
func (v *PackageValuator) Evaluate(ctx context.Context, prior []models.Booking, classType models.ClassType, durationMinutes int, callerPrice *float64) (Valuation, error) {
	size := models.PackageSizeFor(classType, durationMinutes)
	if size <= 1 {
		return Valuation{Price: callerPrice, PackageSize: 1}, nil
	}

	if (len(prior)+1)%size != 0 {
		return Valuation{Price: callerPrice, PackageSize: size}, nil
	}

	label := models.PackageLabelFor(size)
	price, err := v.lookupPrice(ctx, classType, durationMinutes, label)
	if err != nil {
		return Valuation{}, err
	}

	valuation := Valuation{
		Price:            &price,
		Note:             fmt.Sprintf("last booking in a %d-lesson package", size),
		PackageLabel:     label,
		CompletesPackage: true,
		PackageSize:      size,
		PriorNote:        fmt.Sprintf("part of a %d-lesson package; regular price applied", size),
	}
	// The size-1 most recent prior lessons form the rest of this package.
	for _, booking := range prior[len(prior)-(size-1):] {
		valuation.PriorIDs = append(valuation.PriorIDs, booking.ID)
	}
	return valuation, nil
}

func (v *PackageValuator) lookupPrice(ctx context.Context, classType models.ClassType, durationMinutes int, label string) (float64, error) {
	rule, err := v.prices.Find(ctx, classType, durationMinutes, label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fallback := v.fallback.FallbackPackagePrice(string(classType), durationMinutes)
			v.logger.Sugar().Warnw("price rule missing, using fallback",
				"class_type", classType, "duration", durationMinutes, "package", label, "fallback", fallback)
			return fallback, nil
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up package price")
	}
	return rule.Price, nil
}
