package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// ExpensesHandler exposes ticket expense endpoints.
type ExpensesHandler struct {
	expenses *service.ExpenseService
}

// NewExpensesHandler constructs handler.
func NewExpensesHandler(expenses *service.ExpenseService) *ExpensesHandler {
	return &ExpensesHandler{expenses: expenses}
}

// ListExpenses GET /tickets/:id/expenses.
func (h *ExpensesHandler) ListExpenses(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	items, total, err := h.expenses.ListExpenses(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": expenseListResponse(items, total)})
}

// AddExpense POST /tickets/:id/expenses.
func (h *ExpensesHandler) AddExpense(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.ExpenseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	expense, err := h.expenses.AddExpense(c.UserContext(), caller, c.Params("id"), service.ExpenseInput{
		Description:   req.Description,
		Amount:        req.Amount,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": expenseResponse(expense, caller.Profile.FullName)})
}

// RemoveExpense DELETE /tickets/:id/expenses/:expenseID.
func (h *ExpensesHandler) RemoveExpense(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.expenses.RemoveExpense(c.UserContext(), caller, c.Params("id"), c.Params("expenseID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
