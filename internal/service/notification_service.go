package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/outbox"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/timeline"
)

// TicketCreatedWebhook is the body POSTed to the ticket-created webhook.
type TicketCreatedWebhook struct {
	TicketID                  string `json:"ticket_id"`
	CreatedBy                 string `json:"created_by"`
	CreatedByID               string `json:"created_by_id"`
	Category                  string `json:"category"`
	Description               string `json:"description"`
	Priority                  string `json:"priority"`
	HousekeeperTelegramChatID string `json:"housekeeper_telegram_chat_id,omitempty"`
	SubDirectorTelegramChatID string `json:"sub_director_telegram_chat_id,omitempty"`
}

// TicketAssignedWebhook is the body POSTed to the ticket-assigned webhook.
type TicketAssignedWebhook struct {
	TicketID                  string `json:"ticket_id"`
	AssignedBy                string `json:"assigned_by"`
	UserID                    string `json:"user_id"`
	UserTelegramChatID        string `json:"user_telegram_chat_id"`
	Category                  string `json:"category"`
	Description               string `json:"description"`
	Priority                  string `json:"priority"`
	SubDirectorTelegramChatID string `json:"sub_director_telegram_chat_id,omitempty"`
}

// NotificationService turns domain events into outbox jobs. Failures are
// logged by the dispatcher and never reach the request that raised the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	profiles   repository.ProfileRepository
	queue      outbox.Queue
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, profiles repository.ProfileRepository, queue outbox.Queue, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		profiles:   profiles,
		queue:      queue,
		logger:     orNop(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.String("priority", string(event.Ticket.Priority)))
	url := strings.TrimSpace(n.cfg.TicketCreatedWebhookURL)
	if url == "" {
		return nil
	}

	ticket := event.Ticket
	payload := TicketCreatedWebhook{
		TicketID:    ticket.ID,
		CreatedBy:   actorName(event.Actor),
		CreatedByID: event.Actor.ID,
		Category:    string(ticket.Category),
		Description: ticket.Description,
		Priority:    string(ticket.Priority),
	}
	chatID, err := n.chatIDForRole(ctx, domain.RoleHousekeeper)
	if err != nil {
		return err
	}
	payload.HousekeeperTelegramChatID = chatID
	if ticket.Priority == domain.TicketPriorityUrgent {
		if payload.SubDirectorTelegramChatID, err = n.chatIDForRole(ctx, domain.RoleSubDirector); err != nil {
			return err
		}
	}
	return n.enqueueWebhook(ctx, url, payload)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	assigned, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || assigned.AssigneeID == "" {
		return nil
	}
	assignee, err := n.profiles.GetByID(ctx, assigned.AssigneeID)
	if err != nil {
		return fmt.Errorf("load assignee: %w", err)
	}
	ticket := event.Ticket

	if url := strings.TrimSpace(n.cfg.TicketAssignedWebhookURL); url != "" && assignee.TelegramChatID != nil {
		payload := TicketAssignedWebhook{
			TicketID:           ticket.ID,
			AssignedBy:         actorName(event.Actor),
			UserID:             assignee.ID,
			UserTelegramChatID: *assignee.TelegramChatID,
			Category:           string(ticket.Category),
			Description:        ticket.Description,
			Priority:           string(ticket.Priority),
		}
		if ticket.Priority == domain.TicketPriorityUrgent {
			if payload.SubDirectorTelegramChatID, err = n.chatIDForRole(ctx, domain.RoleSubDirector); err != nil {
				return err
			}
		}
		if err := n.enqueueWebhook(ctx, url, payload); err != nil {
			return err
		}
	}

	if n.cfg.SMTPEnabled() && assignee.Email != "" {
		subject := fmt.Sprintf("Ticket assigned: %s (%s)", timeline.Label(string(ticket.Category)), ticket.Priority)
		text := fmt.Sprintf("%s assigned you a %s priority ticket.\n\n%s\n\nTicket: %s\n",
			actorName(event.Actor), ticket.Priority, ticket.Description, ticket.ID)
		body := fmt.Sprintf("<p>%s assigned you a <strong>%s</strong> priority ticket.</p><p>%s</p><p>Ticket: %s</p>",
			html.EscapeString(actorName(event.Actor)), ticket.Priority, html.EscapeString(ticket.Description), ticket.ID)
		if err := n.queue.Enqueue(ctx, outbox.NewEmailJob(assignee.Email, subject, text, body)); err != nil {
			return err
		}
	}
	return nil
}

func (n *NotificationService) enqueueWebhook(ctx context.Context, url string, payload any) error {
	job, err := outbox.NewWebhookJob(url, payload)
	if err != nil {
		return err
	}
	return n.queue.Enqueue(ctx, job)
}

// chatIDForRole returns the first telegram chat id held by a profile with role.
func (n *NotificationService) chatIDForRole(ctx context.Context, role domain.UserRole) (string, error) {
	profiles, err := n.profiles.ListByRoles(ctx, []domain.UserRole{role})
	if err != nil {
		return "", fmt.Errorf("load %s contacts: %w", role, err)
	}
	for _, p := range profiles {
		if p.TelegramChatID != nil && *p.TelegramChatID != "" {
			return *p.TelegramChatID, nil
		}
	}
	return "", nil
}

func actorName(actor events.Actor) string {
	if actor.Name == "" {
		return "System"
	}
	return actor.Name
}
