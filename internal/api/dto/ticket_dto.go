package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// MediaRequest references a file already uploaded to blob storage.
type MediaRequest struct {
	Kind domain.AttachmentKind `json:"kind" validate:"required,oneof=image video invoice"`
	URL  string                `json:"url" validate:"required,url"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	PropertyID       string                `json:"property_id" validate:"required,uuid"`
	UnitID           *string               `json:"unit_id" validate:"omitempty,uuid"`
	Type             domain.TicketType     `json:"type" validate:"omitempty,oneof=corrective preventive"`
	Category         domain.TicketCategory `json:"category" validate:"required,oneof=ac appliances plumbing wifi furniture locks electricity painting cleaning pest_control other"`
	Priority         domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Description      string                `json:"description" validate:"required,min=10"`
	RequiresSpend    bool                  `json:"requires_spend"`
	InitialComment   string                `json:"initial_comment"`
	Attachments      []MediaRequest        `json:"attachments" validate:"omitempty,dive"`
	AssignedToUserID *string               `json:"assigned_to_user_id" validate:"omitempty,uuid"`
}

// UpdateTicketRequest is a partial update. assigned_to_user_id: null unassigns.
type UpdateTicketRequest struct {
	Status           *domain.TicketStatus   `json:"status" validate:"omitempty,oneof=reported assigned in_progress resolved closed"`
	Priority         *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category         *domain.TicketCategory `json:"category" validate:"omitempty,oneof=ac appliances plumbing wifi furniture locks electricity painting cleaning pest_control other"`
	Description      *string                `json:"description" validate:"omitempty,min=10"`
	RequiresSpend    *bool                  `json:"requires_spend"`
	AssignedToUserID NullableString         `json:"assigned_to_user_id"`
}

// UpdateStatusRequest payload for PUT /tickets/:id/status.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required,oneof=reported assigned in_progress resolved closed"`
}

// AssignTicketRequest payload for PUT /tickets/:id/assignee. Null unassigns.
type AssignTicketRequest struct {
	AssignedToUserID *string `json:"assigned_to_user_id" validate:"omitempty,uuid"`
}

// QuickNoteRequest payload for POST /tickets/:id/notes.
type QuickNoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// CommentRequest payload for POST /tickets/:id/comments.
type CommentRequest struct {
	Body        string         `json:"body"`
	Attachments []MediaRequest `json:"attachments" validate:"omitempty,dive"`
}

// TicketAgeResponse is the derived age of a ticket.
type TicketAgeResponse struct {
	Label     string `json:"label"`
	Hours     int    `json:"hours"`
	IsOverdue bool   `json:"is_overdue"`
}

// TicketResponse is the full view of a ticket.
type TicketResponse struct {
	ID               string                `json:"id"`
	PropertyID       string                `json:"property_id"`
	UnitID           *string               `json:"unit_id"`
	Type             domain.TicketType     `json:"type"`
	Category         domain.TicketCategory `json:"category"`
	CategoryLabel    string                `json:"category_label"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	StatusLabel      string                `json:"status_label"`
	Description      string                `json:"description"`
	RequiresSpend    bool                  `json:"requires_spend"`
	AssignedToUserID *string               `json:"assigned_to_user_id"`
	CreatedBy        string                `json:"created_by"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	ResolvedAt       *time.Time            `json:"resolved_at"`
	ClosedAt         *time.Time            `json:"closed_at"`
	Age              TicketAgeResponse     `json:"age"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items      []TicketResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// MediaResponse is an attachment reference parsed out of a comment.
type MediaResponse struct {
	Kind domain.AttachmentKind `json:"kind"`
	URL  string                `json:"url"`
}

// CommentResponse is a comment with its rendered HTML.
type CommentResponse struct {
	ID         string          `json:"id"`
	AuthorID   string          `json:"author_id"`
	AuthorName string          `json:"author_name"`
	AuthorRole domain.UserRole `json:"author_role,omitempty"`
	Body       string          `json:"body"`
	HTML       string          `json:"html"`
	Media      []MediaResponse `json:"media"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AttachmentResponse describes recorded evidence.
type AttachmentResponse struct {
	ID         string                `json:"id"`
	URL        string                `json:"url"`
	Kind       domain.AttachmentKind `json:"kind"`
	UploadedBy string                `json:"uploaded_by"`
	CreatedAt  time.Time             `json:"created_at"`
}
