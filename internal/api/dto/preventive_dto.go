package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreatePreventiveRequest payload for POST /preventive.
type CreatePreventiveRequest struct {
	PropertyID         string                `json:"property_id" validate:"required,uuid"`
	UnitID             *string               `json:"unit_id" validate:"omitempty,uuid"`
	Category           domain.TicketCategory `json:"category" validate:"required,oneof=ac appliances plumbing wifi furniture locks electricity painting cleaning pest_control other"`
	Description        string                `json:"description" validate:"required,min=10"`
	RecurrenceType     domain.RecurrenceUnit `json:"recurrence_type" validate:"required,oneof=days weeks months"`
	RecurrenceInterval int                   `json:"recurrence_interval" validate:"required,min=1"`
	AssignedToUserID   *string               `json:"assigned_to_user_id" validate:"omitempty,uuid"`
	NextScheduledAt    *time.Time            `json:"next_scheduled_at"`
}

// UpdatePreventiveRequest is a partial update. assigned_to_user_id: null unassigns.
type UpdatePreventiveRequest struct {
	Category           *domain.TicketCategory `json:"category" validate:"omitempty,oneof=ac appliances plumbing wifi furniture locks electricity painting cleaning pest_control other"`
	Description        *string                `json:"description" validate:"omitempty,min=10"`
	RecurrenceType     *domain.RecurrenceUnit `json:"recurrence_type" validate:"omitempty,oneof=days weeks months"`
	RecurrenceInterval *int                   `json:"recurrence_interval" validate:"omitempty,min=1"`
	NextScheduledAt    *time.Time             `json:"next_scheduled_at"`
	IsActive           *bool                  `json:"is_active"`
	AssignedToUserID   NullableString         `json:"assigned_to_user_id"`
}

// PreventiveResponse is a preventive task.
type PreventiveResponse struct {
	ID                 string                `json:"id"`
	PropertyID         string                `json:"property_id"`
	UnitID             *string               `json:"unit_id"`
	Category           domain.TicketCategory `json:"category"`
	Description        string                `json:"description"`
	RecurrenceType     domain.RecurrenceUnit `json:"recurrence_type"`
	RecurrenceInterval int                   `json:"recurrence_interval"`
	AssignedToUserID   *string               `json:"assigned_to_user_id"`
	LastGeneratedAt    *time.Time            `json:"last_generated_at"`
	NextScheduledAt    *time.Time            `json:"next_scheduled_at"`
	IsActive           bool                  `json:"is_active"`
	CreatedBy          string                `json:"created_by"`
	CreatedAt          time.Time             `json:"created_at"`
}

// FirePreventiveResponse returns the generated ticket and the advanced task.
type FirePreventiveResponse struct {
	Ticket TicketResponse     `json:"ticket"`
	Task   PreventiveResponse `json:"task"`
}
