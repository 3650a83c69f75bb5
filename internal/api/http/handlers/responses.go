package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/markup"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/timeline"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

func callerFrom(c *fiber.Ctx) (*service.Caller, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// splitList parses a comma separated query value.
func splitList[T ~string](val string) []T {
	if val == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(part))
		}
	}
	return out
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func mediaInputs(reqs []dto.MediaRequest) []markup.Media {
	out := make([]markup.Media, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, markup.Media{Kind: r.Kind, URL: r.URL})
	}
	return out
}

func ticketResponse(ticket *domain.Ticket, now time.Time) dto.TicketResponse {
	age := ticket.Age(now)
	return dto.TicketResponse{
		ID:               ticket.ID,
		PropertyID:       ticket.PropertyID,
		UnitID:           ticket.UnitID,
		Type:             ticket.Type,
		Category:         ticket.Category,
		CategoryLabel:    timeline.Label(string(ticket.Category)),
		Priority:         ticket.Priority,
		Status:           ticket.Status,
		StatusLabel:      timeline.Label(string(ticket.Status)),
		Description:      ticket.Description,
		RequiresSpend:    ticket.RequiresSpend,
		AssignedToUserID: ticket.AssignedToUserID,
		CreatedBy:        ticket.CreatedBy,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
		ResolvedAt:       ticket.ResolvedAt,
		ClosedAt:         ticket.ClosedAt,
		Age:              dto.TicketAgeResponse{Label: age.Label, Hours: age.Hours, IsOverdue: age.IsOverdue},
	}
}

func profileResponse(profile *domain.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:             profile.ID,
		FullName:       profile.FullName,
		Email:          profile.Email,
		Role:           profile.Role,
		RoleLabel:      timeline.Label(string(profile.Role)),
		TelegramChatID: profile.TelegramChatID,
		CreatedAt:      profile.CreatedAt,
	}
}

func commentResponse(comment service.RenderedComment) dto.CommentResponse {
	media := make([]dto.MediaResponse, 0, len(comment.Media))
	for _, m := range comment.Media {
		media = append(media, dto.MediaResponse{Kind: m.Kind, URL: m.URL})
	}
	return dto.CommentResponse{
		ID:         comment.ID,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		AuthorRole: comment.AuthorRole,
		Body:       comment.Body,
		HTML:       comment.HTML,
		Media:      media,
		CreatedAt:  comment.CreatedAt,
	}
}

func attachmentResponse(a *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         a.ID,
		URL:        a.URL,
		Kind:       a.Kind,
		UploadedBy: a.UploadedBy,
		CreatedAt:  a.CreatedAt,
	}
}

func timelineResponse(t timeline.Timeline) dto.TimelineResponse {
	events := make([]dto.TimelineEventResponse, 0, len(t.Events))
	for _, e := range t.Events {
		events = append(events, dto.TimelineEventResponse{
			ID:     e.ID,
			Action: string(e.Action),
			Kind:   string(e.Kind),
			Actor: dto.TimelineActorResponse{
				ID:        e.Actor.ID,
				Name:      e.Actor.Name,
				Role:      e.Actor.Role,
				RoleLabel: e.Actor.RoleLabel,
				Resolved:  e.Actor.Resolved,
			},
			OccurredAt:  e.OccurredAt,
			Synthesized: e.Synthesized,
			Summary:     e.Summary,
		})
	}
	resp := dto.TimelineResponse{TicketID: t.TicketID, Events: events, Truncated: t.Truncated}
	if t.Empty() {
		resp.EmptyMessage = timeline.EmptyMessage
	}
	return resp
}

func expenseResponse(e *domain.Expense, creatorName string) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:            e.ID,
		TicketID:      e.TicketID,
		Description:   e.Description,
		Amount:        e.Amount,
		AttachmentURL: e.AttachmentURL,
		CreatedBy:     e.CreatedBy,
		CreatorName:   creatorName,
		CreatedAt:     e.CreatedAt,
	}
}

func expenseListResponse(items []repository.ExpenseWithCreator, total float64) dto.ExpenseListResponse {
	out := make([]dto.ExpenseResponse, 0, len(items))
	for i := range items {
		out = append(out, expenseResponse(&items[i].Expense, items[i].CreatorName))
	}
	return dto.ExpenseListResponse{Items: out, Total: total}
}

func preventiveResponse(t *domain.PreventiveTask) dto.PreventiveResponse {
	return dto.PreventiveResponse{
		ID:                 t.ID,
		PropertyID:         t.PropertyID,
		UnitID:             t.UnitID,
		Category:           t.Category,
		Description:        t.Description,
		RecurrenceType:     t.RecurrenceType,
		RecurrenceInterval: t.RecurrenceInterval,
		AssignedToUserID:   t.AssignedToUserID,
		LastGeneratedAt:    t.LastGeneratedAt,
		NextScheduledAt:    t.NextScheduledAt,
		IsActive:           t.IsActive,
		CreatedBy:          t.CreatedBy,
		CreatedAt:          t.CreatedAt,
	}
}
