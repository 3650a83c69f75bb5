package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Expenses       *handlers.ExpensesHandler
	Preventive     *handlers.PreventiveHandler
	AuthMiddleware *auth.AuthMiddleware
	Permissions    *auth.Permissions
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Users.Login)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}

	users := app.Group("/users", authenticated...)
	users.Get("/me", cfg.Users.Me)
	users.Get("/assignable", cfg.Users.ListAssignable)
	users.Post("/", auth.RequirePermission(cfg.Permissions, auth.PermManageUsers), cfg.Users.CreateUser)

	tickets := app.Group("/tickets", authenticated...)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", auth.RequirePermission(cfg.Permissions, auth.PermCreateTickets), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assignee", cfg.Tickets.AssignTicket)
	tickets.Post("/:id/notes", cfg.Tickets.AddQuickNote)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/evidence", cfg.Tickets.ListEvidence)
	tickets.Post("/:id/evidence", cfg.Tickets.AddEvidence)
	tickets.Get("/:id/timeline", cfg.Tickets.Timeline)
	tickets.Get("/:id/expenses", cfg.Expenses.ListExpenses)
	tickets.Post("/:id/expenses", cfg.Expenses.AddExpense)
	tickets.Delete("/:id/expenses/:expenseID", cfg.Expenses.RemoveExpense)

	preventive := app.Group("/preventive", authenticated...)
	preventive.Get("/", cfg.Preventive.ListTasks)
	preventive.Post("/", cfg.Preventive.CreateTask)
	preventive.Patch("/:id", cfg.Preventive.UpdateTask)
	preventive.Delete("/:id", cfg.Preventive.DeleteTask)
	preventive.Post("/:id/fire", cfg.Preventive.FireTask)
}
