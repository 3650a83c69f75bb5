package domain

import "time"

// AuditAction is the free-text tag recorded with every audit entry.
type AuditAction string

const (
	ActionCreated            AuditAction = "created"
	ActionStatusChanged      AuditAction = "status_changed"
	ActionPriorityChanged    AuditAction = "priority_changed"
	ActionAssigned           AuditAction = "assigned"
	ActionAssignedToChanged  AuditAction = "assigned_to_changed"
	ActionCategoryChanged    AuditAction = "category_changed"
	ActionDescriptionChanged AuditAction = "description_changed"
	ActionCommentAdded       AuditAction = "comment_added"
	ActionEvidenceAdded      AuditAction = "evidence_added"
	ActionExpenseAdded       AuditAction = "expense_added"
	ActionExpenseRemoved     AuditAction = "expense_removed"
)

// AuditLogEntry is an immutable record of one change made to a ticket.
// FromValue and ToValue hold the JSON snapshots exactly as persisted.
type AuditLogEntry struct {
	ID        string
	TicketID  string
	ActorID   *string
	Action    AuditAction
	FromValue map[string]any
	ToValue   map[string]any
	CreatedAt time.Time
}
