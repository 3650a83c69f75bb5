package domain

import "time"

// Expense is a cost recorded against a ticket.
type Expense struct {
	ID            string
	TicketID      string
	Description   string
	Amount        float64
	AttachmentURL *string
	CreatedBy     string
	CreatedAt     time.Time
}

// Snapshot returns the expense as an audit payload.
func (e *Expense) Snapshot() map[string]any {
	return map[string]any{
		"id":             e.ID,
		"ticket_id":      e.TicketID,
		"description":    e.Description,
		"amount":         e.Amount,
		"attachment_url": optionalString(e.AttachmentURL),
		"created_by":     e.CreatedBy,
		"created_at":     e.CreatedAt,
	}
}
