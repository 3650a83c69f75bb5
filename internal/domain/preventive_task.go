package domain

import "time"

// RecurrenceUnit is the calendar unit of a preventive schedule.
type RecurrenceUnit string

const (
	RecurrenceDays   RecurrenceUnit = "days"
	RecurrenceWeeks  RecurrenceUnit = "weeks"
	RecurrenceMonths RecurrenceUnit = "months"
)

// PreventiveTask is a recurring maintenance schedule that a person fires
// into a ticket by hand.
type PreventiveTask struct {
	ID                 string
	PropertyID         string
	UnitID             *string
	Category           TicketCategory
	Description        string
	RecurrenceType     RecurrenceUnit
	RecurrenceInterval int
	AssignedToUserID   *string
	LastGeneratedAt    *time.Time
	NextScheduledAt    *time.Time
	IsActive           bool
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Advance returns the due date following from by one recurrence step.
func (p *PreventiveTask) Advance(from time.Time) time.Time {
	interval := p.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}
	switch p.RecurrenceType {
	case RecurrenceWeeks:
		return from.AddDate(0, 0, 7*interval)
	case RecurrenceMonths:
		return from.AddDate(0, interval, 0)
	default:
		return from.AddDate(0, 0, interval)
	}
}

// NextDueAfterFire computes the next due date once the task has been fired at now.
func (p *PreventiveTask) NextDueAfterFire(now time.Time) time.Time {
	base := now
	if p.NextScheduledAt != nil && p.NextScheduledAt.After(now) {
		base = *p.NextScheduledAt
	}
	return p.Advance(base)
}
