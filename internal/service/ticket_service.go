package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/markup"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

const minDescriptionLength = 10

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	profiles    repository.ProfileRepository
	audit       auditRecorder
	policy      accessPolicy
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	ProfileRepo    repository.ProfileRepository
	AuditRepo      repository.AuditLogRepository
	Permissions    *auth.Permissions
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		profiles:    deps.ProfileRepo,
		audit:       auditRecorder{repo: deps.AuditRepo, logger: orNop(deps.Logger)},
		policy:      accessPolicy{perms: deps.Permissions},
		dispatcher:  deps.Dispatcher,
		now:         orNow(deps.Now),
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	PropertyID       string
	UnitID           *string
	Type             domain.TicketType
	Category         domain.TicketCategory
	Priority         domain.TicketPriority
	Description      string
	RequiresSpend    bool
	InitialComment   string
	Attachments      []markup.Media
	AssignedToUserID *string
}

// TicketPatch lists the fields a general update may change. Nil leaves a field as is.
type TicketPatch struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	Category      *domain.TicketCategory
	Description   *string
	RequiresSpend *bool
	// AssigneeSet distinguishes "unassign" (true, nil id) from "leave alone".
	AssigneeSet      bool
	AssignedToUserID *string
}

// TicketListFilter describes list and search parameters.
type TicketListFilter struct {
	Search     string
	PropertyID *string
	UnitID     *string
	Categories []domain.TicketCategory
	Priorities []domain.TicketPriority
	Statuses   []domain.TicketStatus
	AssigneeID *string
	UrgentOnly bool
	Type       *domain.TicketType
	Page       int
	PageSize   int
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Tickets    []domain.Ticket
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// CreateTicket validates input and opens a ticket in "reported" state.
func (s *TicketService) CreateTicket(ctx context.Context, caller *Caller, input TicketCreateInput) (*domain.Ticket, error) {
	if !s.policy.has(caller, auth.PermCreateTickets) {
		return nil, apperrors.NewForbidden("not allowed to create tickets")
	}
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		PropertyID:    input.PropertyID,
		UnitID:        input.UnitID,
		Type:          input.Type,
		Category:      input.Category,
		Priority:      input.Priority,
		Status:        domain.TicketStatusReported,
		Description:   strings.TrimSpace(input.Description),
		RequiresSpend: input.RequiresSpend,
		CreatedBy:     caller.ID(),
	}

	var assignee *domain.Profile
	if input.AssignedToUserID != nil {
		profile, err := s.assignee(ctx, *input.AssignedToUserID)
		if err != nil {
			return nil, err
		}
		assignee = profile
		ticket.AssignedToUserID = &profile.ID
		ticket.Status = domain.TicketStatusAssigned
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionCreated, nil,
		map[string]any{"status": string(domain.TicketStatusReported)})
	if assignee != nil {
		s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionAssigned, nil, assignmentPayload(assignee))
	}

	if body := strings.TrimSpace(input.InitialComment); body != "" {
		comment := &domain.Comment{
			TicketID: ticket.ID,
			AuthorID: caller.ID(),
			Body:     markup.AppendAttachments(body, input.Attachments),
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	for _, media := range input.Attachments {
		attachment := &domain.Attachment{
			TicketID:   ticket.ID,
			URL:        media.URL,
			Kind:       media.Kind,
			UploadedBy: caller.ID(),
		}
		if err := s.attachments.Create(ctx, attachment); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	publish(ctx, s.dispatcher, events.New(events.EventTicketCreated, *ticket, eventActor(caller), nil))
	if assignee != nil {
		publish(ctx, s.dispatcher, events.New(events.EventTicketAssigned, *ticket, eventActor(caller),
			events.TicketAssignedPayload{AssigneeID: assignee.ID, AssigneeName: assignee.FullName}))
	}
	return ticket, nil
}

// GetTicket returns a ticket the caller may see.
func (s *TicketService) GetTicket(ctx context.Context, caller *Caller, ticketID string) (*domain.Ticket, error) {
	return loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
}

// ListTickets returns a page of tickets scoped to what the caller may see.
// Without an explicit type filter only corrective tickets are listed.
func (s *TicketService) ListTickets(ctx context.Context, caller *Caller, filter TicketListFilter) (*TicketPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	ticketType := domain.TicketTypeCorrective
	if filter.Type != nil {
		ticketType = *filter.Type
	}

	repoFilter := repository.TicketFilter{
		AssigneeID: filter.AssigneeID,
		PropertyID: filter.PropertyID,
		UnitID:     filter.UnitID,
		Type:       &ticketType,
		Categories: filter.Categories,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		UrgentOnly: filter.UrgentOnly,
		Limit:      size,
		Offset:     (page - 1) * size,
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		repoFilter.SearchTerm = &term
	}
	s.policy.scope(caller, &repoFilter)

	tickets, total, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return &TicketPage{
		Tickets:    tickets,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// UpdateTicket applies a multi-field patch and records one audit entry whose
// tag lists every changed field, e.g. "status_changed, priority_changed".
func (s *TicketService) UpdateTicket(ctx context.Context, caller *Caller, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.canEdit(caller, ticket) {
		return nil, apperrors.NewForbidden("not allowed to update this ticket")
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.AssigneeSet && !s.policy.canAssign(caller) {
		return nil, apperrors.NewForbidden("not allowed to assign tickets")
	}

	// Setting an assignee on a reported ticket moves it to assigned unless
	// the patch names a status itself.
	if patch.AssigneeSet && patch.AssignedToUserID != nil &&
		ticket.Status == domain.TicketStatusReported && patch.Status == nil {
		assigned := domain.TicketStatusAssigned
		patch.Status = &assigned
	}
	if patch.Status != nil && *patch.Status == domain.TicketStatusClosed &&
		ticket.Status != domain.TicketStatusClosed && !s.policy.has(caller, auth.PermCloseTickets) {
		return nil, apperrors.NewForbidden("not allowed to close tickets")
	}

	before := ticket.Snapshot()
	applied := map[string]any{}
	var actions []string
	var assignee *domain.Profile

	if patch.Status != nil {
		applied["status"] = string(*patch.Status)
		if *patch.Status != ticket.Status {
			actions = append(actions, string(domain.ActionStatusChanged))
			ticket.ApplyStatus(*patch.Status, s.now())
		}
	}
	if patch.Priority != nil {
		applied["priority"] = string(*patch.Priority)
		if *patch.Priority != ticket.Priority {
			actions = append(actions, string(domain.ActionPriorityChanged))
			ticket.Priority = *patch.Priority
		}
	}
	if patch.AssigneeSet {
		if patch.AssignedToUserID != nil {
			profile, err := s.assignee(ctx, *patch.AssignedToUserID)
			if err != nil {
				return nil, err
			}
			assignee = profile
			applied["assigned_to_user_id"] = profile.ID
			applied["assigned_to_name"] = profile.FullName
		} else {
			applied["assigned_to_user_id"] = nil
		}
		if !sameID(ticket.AssignedToUserID, patch.AssignedToUserID) {
			actions = append(actions, string(domain.ActionAssignedToChanged))
			ticket.AssignedToUserID = patch.AssignedToUserID
		} else {
			assignee = nil
		}
	}
	if patch.Category != nil {
		applied["category"] = string(*patch.Category)
		if *patch.Category != ticket.Category {
			actions = append(actions, string(domain.ActionCategoryChanged))
			ticket.Category = *patch.Category
		}
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		applied["description"] = description
		if description != ticket.Description {
			actions = append(actions, string(domain.ActionDescriptionChanged))
			ticket.Description = description
		}
	}
	if patch.RequiresSpend != nil {
		applied["requires_spend"] = *patch.RequiresSpend
		ticket.RequiresSpend = *patch.RequiresSpend
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if len(actions) > 0 {
		s.audit.record(ctx, ticket.ID, caller.ID(), domain.AuditAction(strings.Join(actions, ", ")), before, applied)
	}
	if assignee != nil {
		publish(ctx, s.dispatcher, events.New(events.EventTicketAssigned, *ticket, eventActor(caller),
			events.TicketAssignedPayload{AssigneeID: assignee.ID, AssigneeName: assignee.FullName}))
	}
	return ticket, nil
}

// UpdateStatus sets any status. Closing requires the close permission.
func (s *TicketService) UpdateStatus(ctx context.Context, caller *Caller, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.canEdit(caller, ticket) {
		return nil, apperrors.NewForbidden("not allowed to update this ticket")
	}
	if ticket.Status == status {
		return ticket, nil
	}
	if status == domain.TicketStatusClosed && !s.policy.has(caller, auth.PermCloseTickets) {
		return nil, apperrors.NewForbidden("not allowed to close tickets")
	}

	old := ticket.Status
	ticket.ApplyStatus(status, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionStatusChanged,
		map[string]any{"status": string(old)},
		map[string]any{"status": string(status)})
	publish(ctx, s.dispatcher, events.New(events.EventTicketStatusChanged, *ticket, eventActor(caller),
		events.TicketStatusChangedPayload{OldStatus: old, NewStatus: status}))
	return ticket, nil
}

// AssignTicket sets or clears the assignee. Assigning moves the ticket to
// "assigned", clearing moves it back to "reported".
func (s *TicketService) AssignTicket(ctx context.Context, caller *Caller, ticketID string, userID *string) (*domain.Ticket, error) {
	if !s.policy.canAssign(caller) {
		return nil, apperrors.NewForbidden("not allowed to assign tickets")
	}
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}

	var assignee *domain.Profile
	status := domain.TicketStatusReported
	if userID != nil {
		if assignee, err = s.assignee(ctx, *userID); err != nil {
			return nil, err
		}
		status = domain.TicketStatusAssigned
	}

	ticket.AssignedToUserID = nil
	if assignee != nil {
		ticket.AssignedToUserID = &assignee.ID
	}
	ticket.ApplyStatus(status, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	to := map[string]any{"assigned_to_user_id": nil}
	if assignee != nil {
		to = assignmentPayload(assignee)
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionAssigned, nil, to)

	if assignee != nil {
		publish(ctx, s.dispatcher, events.New(events.EventTicketAssigned, *ticket, eventActor(caller),
			events.TicketAssignedPayload{AssigneeID: assignee.ID, AssigneeName: assignee.FullName}))
	}
	return ticket, nil
}

// AddQuickNote posts a plain comment.
func (s *TicketService) AddQuickNote(ctx context.Context, caller *Caller, ticketID, note string) (*domain.Comment, error) {
	body := strings.TrimSpace(note)
	if body == "" {
		return nil, apperrors.NewValidationError("note cannot be empty", nil)
	}
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	comment := &domain.Comment{TicketID: ticket.ID, AuthorID: caller.ID(), Body: body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionCommentAdded, nil, map[string]any{"body": body})
	return comment, nil
}

// AddEvidence records an already uploaded file against the ticket.
func (s *TicketService) AddEvidence(ctx context.Context, caller *Caller, ticketID string, media markup.Media) (*domain.Attachment, error) {
	if err := validateMedia(media); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		URL:        strings.TrimSpace(media.URL),
		Kind:       media.Kind,
		UploadedBy: caller.ID(),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionEvidenceAdded, nil,
		map[string]any{"url": attachment.URL, "kind": string(attachment.Kind)})
	return attachment, nil
}

// ListAttachments returns the evidence on a ticket.
func (s *TicketService) ListAttachments(ctx context.Context, caller *Caller, ticketID string) ([]domain.Attachment, error) {
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// DeleteTicket removes a ticket and, by cascade, its history. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, caller *Caller, ticketID string) error {
	if caller == nil || caller.Role() != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins can delete tickets")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return nil
}

func (s *TicketService) assignee(ctx context.Context, id string) (*domain.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("invalid assignee", map[string]any{"assigned_to_user_id": id})
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee does not exist", map[string]any{"assigned_to_user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

func assignmentPayload(profile *domain.Profile) map[string]any {
	return map[string]any{
		"assigned_to_user_id": profile.ID,
		"assigned_to_name":    profile.FullName,
	}
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validateCreate(input *TicketCreateInput) error {
	details := map[string]any{}
	if _, err := uuid.Parse(input.PropertyID); err != nil {
		details["property_id"] = "must be a valid id"
	}
	if input.UnitID != nil {
		if _, err := uuid.Parse(*input.UnitID); err != nil {
			details["unit_id"] = "must be a valid id"
		}
	}
	if input.Type == "" {
		input.Type = domain.TicketTypeCorrective
	}
	if input.Type != domain.TicketTypeCorrective && input.Type != domain.TicketTypePreventive {
		details["type"] = "unknown ticket type"
	}
	if !input.Category.Valid() {
		details["category"] = "unknown category"
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len([]rune(strings.TrimSpace(input.Description))) < minDescriptionLength {
		details["description"] = "must be at least 10 characters"
	}
	for _, media := range input.Attachments {
		if err := validateMedia(media); err != nil {
			details["attachments"] = "each attachment needs a url and a kind of image, video or invoice"
			break
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func validatePatch(patch TicketPatch) error {
	details := map[string]any{}
	if patch.Status != nil && !patch.Status.Valid() {
		details["status"] = "unknown status"
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if patch.Category != nil && !patch.Category.Valid() {
		details["category"] = "unknown category"
	}
	if patch.Description != nil && len([]rune(strings.TrimSpace(*patch.Description))) < minDescriptionLength {
		details["description"] = "must be at least 10 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid update", details)
	}
	return nil
}

func validateMedia(media markup.Media) error {
	if strings.TrimSpace(media.URL) == "" {
		return apperrors.NewValidationError("attachment url required", nil)
	}
	switch media.Kind {
	case domain.AttachmentImage, domain.AttachmentVideo, domain.AttachmentInvoice:
		return nil
	}
	return apperrors.NewValidationError("invalid attachment kind", map[string]any{"kind": media.Kind})
}
