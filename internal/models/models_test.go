package models

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, "MONDAY", WeekdayOf(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "SUNDAY", WeekdayOf(time.Date(2026, 9, 6, 23, 59, 0, 0, time.UTC)))
}

func TestAbsenceCovers(t *testing.T) {
	absence := Absence{
		StartDate: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, absence.Covers(time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, absence.Covers(time.Date(2026, 9, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, absence.Covers(time.Date(2026, 9, 7, 12, 30, 0, 0, time.UTC)))
	assert.False(t, absence.Covers(time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, absence.Covers(time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)))
}

func TestPackageSizeFor(t *testing.T) {
	assert.Equal(t, 3, PackageSizeFor(ClassType5, 90))
	assert.Equal(t, 10, PackageSizeFor(ClassType7, 60))
	assert.Equal(t, 1, PackageSizeFor(ClassType5, 60))
	assert.Equal(t, 1, PackageSizeFor(ClassType7, 90))
	assert.Equal(t, 1, PackageSizeFor(ClassType4, 90))
}

func TestPackageLabelFor(t *testing.T) {
	assert.Equal(t, "3-lesson-package", PackageLabelFor(3))
	assert.Equal(t, "10-lesson-package", PackageLabelFor(10))
}

func TestClassTypeIsValid(t *testing.T) {
	assert.True(t, ClassType5.IsValid())
	assert.True(t, ClassType("class4").IsValid())
	assert.False(t, ClassType("class9").IsValid())
	assert.False(t, ClassType("").IsValid())
}

func TestInstructorTeachesAndServes(t *testing.T) {
	inst := Instructor{
		Locations:  pq.StringArray{"downtown"},
		ClassTypes: pq.StringArray{"class5", "class7"},
	}

	assert.True(t, inst.Teaches(ClassType5))
	assert.False(t, inst.Teaches(ClassType4))
	assert.True(t, inst.Serves("downtown"))
	assert.False(t, inst.Serves("westside"))
}
