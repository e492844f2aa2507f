package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/roadready/drive-booking-api/internal/models"
)

// PriceRepository reads the externally managed price rule table.
type PriceRepository struct {
	db *sqlx.DB
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Find returns the price rule for a class/duration/package triple. A miss
// surfaces sql.ErrNoRows so the valuator can fall back to configured prices.
func (r *PriceRepository) Find(ctx context.Context, classType models.ClassType, durationMinutes int, packageLabel string) (*models.PriceRule, error) {
	const query = `SELECT id, class_type, duration_minutes, package_label, price FROM price_rules WHERE class_type = $1 AND duration_minutes = $2 AND package_label = $3 LIMIT 1`
	var rule models.PriceRule
	if err := r.db.GetContext(ctx, &rule, query, classType, durationMinutes, packageLabel); err != nil {
		return nil, err
	}
	return &rule, nil
}
