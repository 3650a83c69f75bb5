package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func newExpenseFixture(t *testing.T) (*ExpenseService, *fakeTickets, *fakeExpenses, *fakeAudit) {
	t.Helper()
	tickets := newFakeTickets()
	expenses := newFakeExpenses()
	audit := &fakeAudit{}
	svc := NewExpenseService(ExpenseDependencies{
		TicketRepo:  tickets,
		ExpenseRepo: expenses,
		AuditRepo:   audit,
		Permissions: testPermissions(t),
	})
	return svc, tickets, expenses, audit
}

func TestExpenseAddAndRemoveKeepsHistory(t *testing.T) {
	svc, tickets, expenses, audit := newExpenseFixture(t)
	admin := caller(domain.RoleAdmin, "Ada Admin")
	ticket := tickets.put(domain.Ticket{Status: domain.TicketStatusInProgress, CreatedBy: uuid.NewString()})

	receipt := "https://cdn.example.com/receipt.pdf"
	expense, err := svc.AddExpense(context.Background(), admin, ticket.ID, ExpenseInput{
		Description:   " Replacement valve ",
		Amount:        42.5,
		AttachmentURL: &receipt,
	})
	require.NoError(t, err)
	assert.Equal(t, "Replacement valve", expense.Description)

	added := audit.last()
	assert.Equal(t, domain.ActionExpenseAdded, added.Action)
	assert.Nil(t, added.FromValue)
	assert.Equal(t, 42.5, added.ToValue["amount"])
	assert.Equal(t, receipt, added.ToValue["attachment_url"])

	list, total, err := svc.ListExpenses(context.Background(), admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 42.5, total)

	require.NoError(t, svc.RemoveExpense(context.Background(), admin, ticket.ID, expense.ID))
	assert.Empty(t, expenses.items)

	removed := audit.last()
	assert.Equal(t, domain.ActionExpenseRemoved, removed.Action)
	assert.Nil(t, removed.ToValue)
	assert.Equal(t, "Replacement valve", removed.FromValue["description"])
	assert.Equal(t, 42.5, removed.FromValue["amount"])
	assert.Equal(t, expense.ID, removed.FromValue["id"])
}

func TestExpenseValidationAndScope(t *testing.T) {
	svc, tickets, _, audit := newExpenseFixture(t)
	admin := caller(domain.RoleAdmin, "Ada Admin")
	ticket := tickets.put(domain.Ticket{CreatedBy: uuid.NewString()})

	_, err := svc.AddExpense(context.Background(), admin, ticket.ID, ExpenseInput{Description: "Paint", Amount: 0})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	_, err = svc.AddExpense(context.Background(), admin, ticket.ID, ExpenseInput{Amount: 10})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	director := caller(domain.RoleSubDirector, "Sam Director")
	_, err = svc.AddExpense(context.Background(), director, ticket.ID, ExpenseInput{Description: "Paint", Amount: 10})
	assert.Equal(t, "FORBIDDEN", errCode(err))

	assert.Equal(t, "NOT_FOUND", errCode(svc.RemoveExpense(context.Background(), admin, ticket.ID, uuid.NewString())))
	assert.Empty(t, audit.entries)
}

func TestRemoveExpenseFromOtherTicket(t *testing.T) {
	svc, tickets, _, _ := newExpenseFixture(t)
	admin := caller(domain.RoleAdmin, "Ada Admin")
	first := tickets.put(domain.Ticket{CreatedBy: uuid.NewString()})
	second := tickets.put(domain.Ticket{CreatedBy: uuid.NewString()})

	expense, err := svc.AddExpense(context.Background(), admin, first.ID, ExpenseInput{Description: "Paint", Amount: 10})
	require.NoError(t, err)
	err = svc.RemoveExpense(context.Background(), admin, second.ID, expense.ID)
	assert.Equal(t, "NOT_FOUND", errCode(err))
}
