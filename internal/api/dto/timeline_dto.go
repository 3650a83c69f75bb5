package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// TimelineActorResponse names who performed an event.
type TimelineActorResponse struct {
	ID        *string         `json:"id"`
	Name      string          `json:"name"`
	Role      domain.UserRole `json:"role,omitempty"`
	RoleLabel string          `json:"role_label,omitempty"`
	Resolved  bool            `json:"resolved"`
}

// TimelineEventResponse is one rendered row of the activity feed.
type TimelineEventResponse struct {
	ID          string                `json:"id"`
	Action      string                `json:"action"`
	Kind        string                `json:"kind"`
	Actor       TimelineActorResponse `json:"actor"`
	OccurredAt  time.Time             `json:"occurred_at"`
	Synthesized bool                  `json:"synthesized"`
	Summary     string                `json:"summary"`
}

// TimelineResponse is a ticket's activity feed, newest first.
type TimelineResponse struct {
	TicketID     string                  `json:"ticket_id"`
	Events       []TimelineEventResponse `json:"events"`
	Truncated    bool                    `json:"truncated"`
	EmptyMessage string                  `json:"empty_message,omitempty"`
}
