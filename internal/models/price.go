package models

import "fmt"

// PriceRule maps (classType, duration, package label) to a price. Rules are
// managed outside this service; the valuator only reads them.
type PriceRule struct {
	ID              string    `db:"id" json:"id"`
	ClassType       ClassType `db:"class_type" json:"class_type"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	PackageLabel    string    `db:"package_label" json:"package_label"`
	Price           float64   `db:"price" json:"price"`
}

// PackageSizeFor returns the lesson-package size for a class/duration pair.
// Only two combinations sell as multi-lesson packages; everything else is a
// single lesson with no discount logic.
func PackageSizeFor(classType ClassType, durationMinutes int) int {
	switch {
	case classType == ClassType5 && durationMinutes == 90:
		return 3
	case classType == ClassType7 && durationMinutes == 60:
		return 10
	default:
		return 1
	}
}

// PackageLabelFor names the package a completing lesson belongs to, matching
// the labels used in the price rule table.
func PackageLabelFor(size int) string {
	return fmt.Sprintf("%d-lesson-package", size)
}
