package dto

import "time"

// ExpenseRequest payload for POST /tickets/:id/expenses.
type ExpenseRequest struct {
	Description   string  `json:"description" validate:"required,max=500"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	AttachmentURL *string `json:"attachment_url" validate:"omitempty,url"`
}

// ExpenseResponse is a recorded cost.
type ExpenseResponse struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	Description   string    `json:"description"`
	Amount        float64   `json:"amount"`
	AttachmentURL *string   `json:"attachment_url"`
	CreatedBy     string    `json:"created_by"`
	CreatorName   string    `json:"creator_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExpenseListResponse lists a ticket's expenses and their sum.
type ExpenseListResponse struct {
	Items []ExpenseResponse `json:"items"`
	Total float64           `json:"total"`
}
