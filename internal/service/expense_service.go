package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// ExpenseInput describes a new expense.
type ExpenseInput struct {
	Description   string
	Amount        float64
	AttachmentURL *string
}

// ExpenseService records costs against tickets.
type ExpenseService struct {
	tickets  repository.TicketRepository
	expenses repository.ExpenseRepository
	audit    auditRecorder
	policy   accessPolicy
}

// ExpenseDependencies bundles collaborators for the expense service.
type ExpenseDependencies struct {
	TicketRepo  repository.TicketRepository
	ExpenseRepo repository.ExpenseRepository
	AuditRepo   repository.AuditLogRepository
	Permissions *auth.Permissions
	Logger      *zap.Logger
}

// NewExpenseService constructs the service.
func NewExpenseService(deps ExpenseDependencies) *ExpenseService {
	return &ExpenseService{
		tickets:  deps.TicketRepo,
		expenses: deps.ExpenseRepo,
		audit:    auditRecorder{repo: deps.AuditRepo, logger: orNop(deps.Logger)},
		policy:   accessPolicy{perms: deps.Permissions},
	}
}

// AddExpense records a cost and writes expense_added.
func (s *ExpenseService) AddExpense(ctx context.Context, caller *Caller, ticketID string, input ExpenseInput) (*domain.Expense, error) {
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	if description == "" {
		details["description"] = "required"
	}
	if !(input.Amount > 0) {
		details["amount"] = "must be greater than zero"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid expense", details)
	}

	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.canEdit(caller, ticket) {
		return nil, apperrors.NewForbidden("not allowed to record expenses on this ticket")
	}

	attachmentURL := input.AttachmentURL
	if attachmentURL != nil && strings.TrimSpace(*attachmentURL) == "" {
		attachmentURL = nil
	}
	expense := &domain.Expense{
		TicketID:      ticket.ID,
		Description:   description,
		Amount:        input.Amount,
		AttachmentURL: attachmentURL,
		CreatedBy:     caller.ID(),
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, apperrors.MapError(err)
	}

	to := map[string]any{"description": description, "amount": input.Amount, "attachment_url": nil}
	if attachmentURL != nil {
		to["attachment_url"] = *attachmentURL
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionExpenseAdded, nil, to)
	return expense, nil
}

// RemoveExpense deletes an expense. The removed row goes into the "from"
// payload of expense_removed so the history keeps it.
func (s *ExpenseService) RemoveExpense(ctx context.Context, caller *Caller, ticketID, expenseID string) error {
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return err
	}
	if !s.policy.canEdit(caller, ticket) {
		return apperrors.NewForbidden("not allowed to remove expenses on this ticket")
	}
	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		return apperrors.NotFoundOr(err, "expense", map[string]any{"expense_id": expenseID})
	}
	if expense.TicketID != ticket.ID {
		return apperrors.NewNotFound("expense", map[string]any{"expense_id": expenseID})
	}
	if err := s.expenses.Delete(ctx, expenseID); err != nil {
		return apperrors.NotFoundOr(err, "expense", map[string]any{"expense_id": expenseID})
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionExpenseRemoved, expense.Snapshot(), nil)
	return nil
}

// ListExpenses returns the ticket's expenses oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, caller *Caller, ticketID string) ([]repository.ExpenseWithCreator, float64, error) {
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, 0, err
	}
	expenses, err := s.expenses.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return expenses, total, nil
}
