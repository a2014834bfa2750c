package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayFromTime(t *testing.T) {
	// 2026-08-24 is a Monday, 2026-08-30 a Sunday.
	assert.Equal(t, Monday, WeekdayFromTime(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Saturday, WeekdayFromTime(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, WeekdayFromTime(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)))
}

func TestWeekdaysCanonicalOrder(t *testing.T) {
	days := Weekdays()
	assert.Equal(t, Monday, days[0])
	assert.Equal(t, Sunday, days[6])
	for i := 1; i < len(days); i++ {
		assert.Greater(t, int(days[i]), int(days[i-1]))
	}
}

func TestWeekdayValid(t *testing.T) {
	assert.True(t, Wednesday.Valid())
	assert.False(t, Weekday(0).Valid())
	assert.False(t, Weekday(8).Valid())
}

func TestAvailableCapacity(t *testing.T) {
	s := SessionDetail{Session: Session{MaxCapacity: 8}, ActiveCount: 5}
	assert.Equal(t, 3, s.AvailableCapacity())
}
