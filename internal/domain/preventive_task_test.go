package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreventiveAdvance(t *testing.T) {
	from := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		unit     RecurrenceUnit
		interval int
		want     time.Time
	}{
		{RecurrenceDays, 3, time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC)},
		{RecurrenceWeeks, 2, time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)},
		{RecurrenceMonths, 1, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)},
		{RecurrenceDays, 0, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		task := &PreventiveTask{RecurrenceType: tt.unit, RecurrenceInterval: tt.interval}
		assert.Equal(t, tt.want, task.Advance(from), "%s x%d", tt.unit, tt.interval)
	}
}

func TestNextDueAfterFire(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	task := &PreventiveTask{RecurrenceType: RecurrenceWeeks, RecurrenceInterval: 1}

	assert.Equal(t, now.AddDate(0, 0, 7), task.NextDueAfterFire(now))

	overdue := now.AddDate(0, 0, -10)
	task.NextScheduledAt = &overdue
	assert.Equal(t, now.AddDate(0, 0, 7), task.NextDueAfterFire(now))

	early := now.AddDate(0, 0, 3)
	task.NextScheduledAt = &early
	assert.Equal(t, early.AddDate(0, 0, 7), task.NextDueAfterFire(now))
}
