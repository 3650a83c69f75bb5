package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// PreventiveHandler exposes preventive maintenance schedules.
type PreventiveHandler struct {
	preventive *service.PreventiveService
	now        func() time.Time
}

// NewPreventiveHandler constructs handler.
func NewPreventiveHandler(preventive *service.PreventiveService) *PreventiveHandler {
	return &PreventiveHandler{preventive: preventive, now: time.Now}
}

// ListTasks GET /preventive.
func (h *PreventiveHandler) ListTasks(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tasks, err := h.preventive.ListTasks(c.UserContext(), caller, optionalQuery(c, "property_id"))
	if err != nil {
		return err
	}
	items := make([]dto.PreventiveResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, preventiveResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTask POST /preventive.
func (h *PreventiveHandler) CreateTask(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreatePreventiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.preventive.CreateTask(c.UserContext(), caller, service.PreventiveInput{
		PropertyID:         req.PropertyID,
		UnitID:             req.UnitID,
		Category:           req.Category,
		Description:        req.Description,
		RecurrenceType:     req.RecurrenceType,
		RecurrenceInterval: req.RecurrenceInterval,
		AssignedToUserID:   req.AssignedToUserID,
		NextScheduledAt:    req.NextScheduledAt,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": preventiveResponse(task)})
}

// UpdateTask PATCH /preventive/:id.
func (h *PreventiveHandler) UpdateTask(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePreventiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.preventive.UpdateTask(c.UserContext(), caller, c.Params("id"), service.PreventivePatch{
		Category:           req.Category,
		Description:        req.Description,
		RecurrenceType:     req.RecurrenceType,
		RecurrenceInterval: req.RecurrenceInterval,
		NextScheduledAt:    req.NextScheduledAt,
		IsActive:           req.IsActive,
		AssigneeSet:        req.AssignedToUserID.Set,
		AssignedToUserID:   req.AssignedToUserID.Value,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": preventiveResponse(task)})
}

// DeleteTask DELETE /preventive/:id.
func (h *PreventiveHandler) DeleteTask(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.preventive.DeleteTask(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// FireTask POST /preventive/:id/fire.
func (h *PreventiveHandler) FireTask(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	ticket, task, err := h.preventive.FireTask(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FirePreventiveResponse{
		Ticket: ticketResponse(ticket, h.now()),
		Task:   preventiveResponse(task),
	}})
}
