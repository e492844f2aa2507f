package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadready/drive-booking-api/internal/models"
	"github.com/roadready/drive-booking-api/pkg/config"
)

type priceReaderStub struct {
	rules map[string]*models.PriceRule
	err   error
}

func (s *priceReaderStub) Find(ctx context.Context, classType models.ClassType, durationMinutes int, packageLabel string) (*models.PriceRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	if rule, ok := s.rules[packageLabel]; ok {
		return rule, nil
	}
	return nil, sql.ErrNoRows
}

func priorLessons(n int) []models.Booking {
	out := make([]models.Booking, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Booking{ID: "prior-" + string(rune('a'+i))})
	}
	return out
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		FallbackPackagePrices: map[string]float64{
			"class5-90": 280,
			"class7-60": 850,
		},
	}
}

func TestEvaluateSingleLesson(t *testing.T) {
	valuator := NewPackageValuator(&priceReaderStub{}, testBookingConfig(), nil)

	price := 95.0
	valuation, err := valuator.Evaluate(context.Background(), nil, models.ClassType4, 60, &price)
	require.NoError(t, err)
	assert.False(t, valuation.CompletesPackage)
	assert.Equal(t, 1, valuation.PackageSize)
	require.NotNil(t, valuation.Price)
	assert.Equal(t, 95.0, *valuation.Price)
	assert.Empty(t, valuation.Note)
	assert.Empty(t, valuation.PriorIDs)
}

func TestEvaluateNonCompletingLesson(t *testing.T) {
	valuator := NewPackageValuator(&priceReaderStub{}, testBookingConfig(), nil)

	valuation, err := valuator.Evaluate(context.Background(), priorLessons(1), models.ClassType5, 90, nil)
	require.NoError(t, err)
	assert.False(t, valuation.CompletesPackage)
	assert.Equal(t, 3, valuation.PackageSize)
	assert.Nil(t, valuation.Price)
	assert.Empty(t, valuation.PriorIDs)
}

func TestEvaluateCompletesClass5Package(t *testing.T) {
	prices := &priceReaderStub{rules: map[string]*models.PriceRule{
		"3-lesson-package": {ClassType: models.ClassType5, DurationMinutes: 90, PackageLabel: "3-lesson-package", Price: 265},
	}}
	valuator := NewPackageValuator(prices, testBookingConfig(), nil)

	// Two prior lessons, the third completes the 3-lesson package.
	valuation, err := valuator.Evaluate(context.Background(), priorLessons(2), models.ClassType5, 90, nil)
	require.NoError(t, err)
	assert.True(t, valuation.CompletesPackage)
	assert.Equal(t, "3-lesson-package", valuation.PackageLabel)
	require.NotNil(t, valuation.Price)
	assert.Equal(t, 265.0, *valuation.Price)
	assert.Equal(t, "last booking in a 3-lesson package", valuation.Note)
	assert.Equal(t, "part of a 3-lesson package; regular price applied", valuation.PriorNote)
	assert.Len(t, valuation.PriorIDs, 2)
}

func TestEvaluateCompletesSecondPackage(t *testing.T) {
	prices := &priceReaderStub{rules: map[string]*models.PriceRule{
		"3-lesson-package": {Price: 265},
	}}
	valuator := NewPackageValuator(prices, testBookingConfig(), nil)

	// Five prior lessons: the sixth closes the second package, annotating only
	// lessons four and five.
	prior := priorLessons(5)
	valuation, err := valuator.Evaluate(context.Background(), prior, models.ClassType5, 90, nil)
	require.NoError(t, err)
	assert.True(t, valuation.CompletesPackage)
	assert.Equal(t, []string{prior[3].ID, prior[4].ID}, valuation.PriorIDs)
}

func TestEvaluateCompletesClass7Package(t *testing.T) {
	prices := &priceReaderStub{rules: map[string]*models.PriceRule{
		"10-lesson-package": {Price: 820},
	}}
	valuator := NewPackageValuator(prices, testBookingConfig(), nil)

	valuation, err := valuator.Evaluate(context.Background(), priorLessons(9), models.ClassType7, 60, nil)
	require.NoError(t, err)
	assert.True(t, valuation.CompletesPackage)
	assert.Equal(t, 10, valuation.PackageSize)
	assert.Equal(t, "10-lesson-package", valuation.PackageLabel)
	require.NotNil(t, valuation.Price)
	assert.Equal(t, 820.0, *valuation.Price)
	assert.Len(t, valuation.PriorIDs, 9)
}

func TestEvaluateFallbackPriceWhenRuleMissing(t *testing.T) {
	valuator := NewPackageValuator(&priceReaderStub{}, testBookingConfig(), nil)

	valuation, err := valuator.Evaluate(context.Background(), priorLessons(2), models.ClassType5, 90, nil)
	require.NoError(t, err)
	assert.True(t, valuation.CompletesPackage)
	require.NotNil(t, valuation.Price)
	assert.Equal(t, 280.0, *valuation.Price)
}

func TestEvaluateCallerPriceIgnoredOnCompletion(t *testing.T) {
	prices := &priceReaderStub{rules: map[string]*models.PriceRule{
		"3-lesson-package": {Price: 265},
	}}
	valuator := NewPackageValuator(prices, testBookingConfig(), nil)

	caller := 999.0
	valuation, err := valuator.Evaluate(context.Background(), priorLessons(2), models.ClassType5, 90, &caller)
	require.NoError(t, err)
	require.NotNil(t, valuation.Price)
	assert.Equal(t, 265.0, *valuation.Price)
}

func TestEvaluateSurfacesLookupFailure(t *testing.T) {
	prices := &priceReaderStub{err: sql.ErrConnDone}
	valuator := NewPackageValuator(prices, testBookingConfig(), nil)

	_, err := valuator.Evaluate(context.Background(), priorLessons(2), models.ClassType5, 90, nil)
	assert.Error(t, err)
}
