package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/markup"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// TicketsHandler manages ticket, comment, evidence and timeline endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
	timeline *service.TimelineService
	now      func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, timeline *service.TimelineService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments, timeline: timeline, now: time.Now}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		PropertyID:       req.PropertyID,
		UnitID:           req.UnitID,
		Type:             req.Type,
		Category:         req.Category,
		Priority:         req.Priority,
		Description:      req.Description,
		RequiresSpend:    req.RequiresSpend,
		InitialComment:   req.InitialComment,
		Attachments:      mediaInputs(req.Attachments),
		AssignedToUserID: req.AssignedToUserID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket, h.now())})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	filter := service.TicketListFilter{
		Search:     c.Query("q"),
		PropertyID: optionalQuery(c, "property_id"),
		UnitID:     optionalQuery(c, "unit_id"),
		AssigneeID: optionalQuery(c, "assignee_id"),
		Categories: splitList[domain.TicketCategory](c.Query("category")),
		Priorities: splitList[domain.TicketPriority](c.Query("priority")),
		Statuses:   splitList[domain.TicketStatus](c.Query("status")),
		UrgentOnly: c.QueryBool("urgent"),
		Page:       parseInt(c.Query("page"), 1),
		PageSize:   parseInt(c.Query("page_size"), 20),
	}
	if t := optionalQuery(c, "type"); t != nil {
		ticketType := domain.TicketType(*t)
		filter.Type = &ticketType
	}

	page, err := h.tickets.ListTickets(c.UserContext(), caller, filter)
	if err != nil {
		return err
	}
	now := h.now()
	items := make([]dto.TicketResponse, 0, len(page.Tickets))
	for i := range page.Tickets {
		items = append(items, ticketResponse(&page.Tickets[i], now))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.now())})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.UpdateTicket(c.UserContext(), caller, c.Params("id"), service.TicketPatch{
		Status:           req.Status,
		Priority:         req.Priority,
		Category:         req.Category,
		Description:      req.Description,
		RequiresSpend:    req.RequiresSpend,
		AssigneeSet:      req.AssignedToUserID.Set,
		AssignedToUserID: req.AssignedToUserID.Value,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.now())})
}

// UpdateStatus PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), caller, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.now())})
}

// AssignTicket PUT /tickets/:id/assignee.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.AssignTicket(c.UserContext(), caller, c.Params("id"), req.AssignedToUserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.now())})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddQuickNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddQuickNote(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.QuickNoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.tickets.AddQuickNote(c.UserContext(), caller, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         comment.ID,
		"ticket_id":  comment.TicketID,
		"author_id":  comment.AuthorID,
		"body":       comment.Body,
		"created_at": comment.CreatedAt,
	}})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	comments, err := h.comments.ListComments(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.AddComment(c.UserContext(), caller, c.Params("id"), req.Body, mediaInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         comment.ID,
		"ticket_id":  comment.TicketID,
		"author_id":  comment.AuthorID,
		"body":       comment.Body,
		"created_at": comment.CreatedAt,
	}})
}

// AddEvidence POST /tickets/:id/evidence.
func (h *TicketsHandler) AddEvidence(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.MediaRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := h.tickets.AddEvidence(c.UserContext(), caller, c.Params("id"), markup.Media{Kind: req.Kind, URL: req.URL})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// ListEvidence GET /tickets/:id/evidence.
func (h *TicketsHandler) ListEvidence(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	attachments, err := h.tickets.ListAttachments(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Timeline GET /tickets/:id/timeline.
func (h *TicketsHandler) Timeline(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	result, err := h.timeline.Timeline(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": timelineResponse(result)})
}
