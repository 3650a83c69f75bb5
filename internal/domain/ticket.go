package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusReported   TicketStatus = "reported"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is known.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusReported, TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the priority is known.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketType separates reactive repairs from scheduled maintenance.
type TicketType string

const (
	TicketTypeCorrective TicketType = "corrective"
	TicketTypePreventive TicketType = "preventive"
)

// TicketCategory is the closed set of maintenance trades.
type TicketCategory string

const (
	CategoryAC          TicketCategory = "ac"
	CategoryAppliances  TicketCategory = "appliances"
	CategoryPlumbing    TicketCategory = "plumbing"
	CategoryWifi        TicketCategory = "wifi"
	CategoryFurniture   TicketCategory = "furniture"
	CategoryLocks       TicketCategory = "locks"
	CategoryElectricity TicketCategory = "electricity"
	CategoryPainting    TicketCategory = "painting"
	CategoryCleaning    TicketCategory = "cleaning"
	CategoryPestControl TicketCategory = "pest_control"
	CategoryOther       TicketCategory = "other"
)

// Valid reports whether the category is one of the known trades.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryAC, CategoryAppliances, CategoryPlumbing, CategoryWifi, CategoryFurniture, CategoryLocks,
		CategoryElectricity, CategoryPainting, CategoryCleaning, CategoryPestControl, CategoryOther:
		return true
	}
	return false
}

// Ticket is the aggregate for a maintenance issue.
type Ticket struct {
	ID               string
	PropertyID       string
	UnitID           *string
	Type             TicketType
	Category         TicketCategory
	Priority         TicketPriority
	Status           TicketStatus
	Description      string
	RequiresSpend    bool
	AssignedToUserID *string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
}

// overdueAfter is the age after which an open ticket is flagged.
const overdueAfter = 48 * time.Hour

// TicketAge is the human-readable age of a ticket.
type TicketAge struct {
	Label     string
	Hours     int
	IsOverdue bool
}

// Age computes the ticket age relative to now.
func (t *Ticket) Age(now time.Time) TicketAge {
	elapsed := now.Sub(t.CreatedAt)
	hours := int(elapsed.Hours())
	var label string
	switch {
	case hours < 1:
		label = "Just now"
	case hours < 24:
		label = fmt.Sprintf("%dh ago", hours)
	default:
		label = fmt.Sprintf("%dd ago", hours/24)
	}
	return TicketAge{Label: label, Hours: hours, IsOverdue: elapsed > overdueAfter}
}

// ApplyStatus sets the status and maintains the lifecycle timestamps.
func (t *Ticket) ApplyStatus(status TicketStatus, now time.Time) {
	t.Status = status
	switch status {
	case TicketStatusResolved:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
		t.ClosedAt = nil
	case TicketStatusClosed:
		if t.ClosedAt == nil {
			t.ClosedAt = &now
		}
	default:
		t.ResolvedAt = nil
		t.ClosedAt = nil
	}
}

// Snapshot returns the ticket as an audit payload keyed by column name.
func (t *Ticket) Snapshot() map[string]any {
	return map[string]any{
		"id":                  t.ID,
		"property_id":         t.PropertyID,
		"unit_id":             optionalString(t.UnitID),
		"type":                string(t.Type),
		"category":            string(t.Category),
		"priority":            string(t.Priority),
		"status":              string(t.Status),
		"description":         t.Description,
		"requires_spend":      t.RequiresSpend,
		"assigned_to_user_id": optionalString(t.AssignedToUserID),
		"created_by":          t.CreatedBy,
		"created_at":          t.CreatedAt,
		"updated_at":          t.UpdatedAt,
	}
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
