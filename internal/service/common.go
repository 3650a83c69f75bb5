package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// Caller is the authenticated profile performing an operation.
type Caller = auth.Principal

// auditRecorder appends audit entries. A failed append is logged and does
// not undo the mutation that was already committed.
type auditRecorder struct {
	repo   repository.AuditLogRepository
	logger *zap.Logger
}

func (a auditRecorder) record(ctx context.Context, ticketID string, actorID string, action domain.AuditAction, from, to map[string]any) {
	if a.repo == nil {
		return
	}
	entry := &domain.AuditLogEntry{
		TicketID:  ticketID,
		Action:    action,
		FromValue: from,
		ToValue:   to,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		a.logger.Error("audit append failed",
			zap.String("ticket_id", ticketID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// accessPolicy layers row scope (own or assigned tickets) on top of the role table.
type accessPolicy struct {
	perms *auth.Permissions
}

func (p accessPolicy) has(caller *Caller, perm auth.Permission) bool {
	return caller != nil && p.perms.Has(caller.Role(), perm)
}

func (p accessPolicy) canView(caller *Caller, ticket *domain.Ticket) bool {
	if caller == nil {
		return false
	}
	if p.has(caller, auth.PermViewAllTickets) {
		return true
	}
	if ticket.CreatedBy == caller.ID() {
		return true
	}
	return ticket.AssignedToUserID != nil && *ticket.AssignedToUserID == caller.ID()
}

func (p accessPolicy) canEdit(caller *Caller, ticket *domain.Ticket) bool {
	return p.has(caller, auth.PermUpdateTickets) && p.canView(caller, ticket)
}

// canAssign is held by dispatching roles, the ones that see every ticket.
func (p accessPolicy) canAssign(caller *Caller) bool {
	return p.has(caller, auth.PermViewAllTickets)
}

// scope narrows a list filter to the rows caller may see.
func (p accessPolicy) scope(caller *Caller, filter *repository.TicketFilter) {
	if p.has(caller, auth.PermViewAllTickets) {
		return
	}
	id := caller.ID()
	if caller.Role() == domain.RoleMaintenance {
		filter.AssigneeID = &id
		return
	}
	filter.CreatedBy = &id
}

// loadTicket fetches a ticket and checks view access. Hidden tickets read as missing.
func loadTicket(ctx context.Context, tickets repository.TicketRepository, policy accessPolicy, caller *Caller, id string) (*domain.Ticket, error) {
	ticket, err := tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	if !policy.canView(caller, ticket) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

func eventActor(caller *Caller) events.Actor {
	if caller == nil || caller.Profile == nil {
		return events.Actor{Name: "System"}
	}
	return events.Actor{ID: caller.ID(), Name: caller.Profile.FullName}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func orNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
