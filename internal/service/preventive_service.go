package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// PreventiveInput describes a new preventive task.
type PreventiveInput struct {
	PropertyID         string
	UnitID             *string
	Category           domain.TicketCategory
	Description        string
	RecurrenceType     domain.RecurrenceUnit
	RecurrenceInterval int
	AssignedToUserID   *string
	NextScheduledAt    *time.Time
}

// PreventivePatch lists the fields an update may change.
type PreventivePatch struct {
	Category           *domain.TicketCategory
	Description        *string
	RecurrenceType     *domain.RecurrenceUnit
	RecurrenceInterval *int
	NextScheduledAt    *time.Time
	IsActive           *bool
	AssigneeSet        bool
	AssignedToUserID   *string
}

// PreventiveService manages recurring maintenance schedules.
type PreventiveService struct {
	tasks   repository.PreventiveTaskRepository
	tickets *TicketService
	policy  accessPolicy
	now     func() time.Time
}

// PreventiveDependencies bundles collaborators for the preventive service.
type PreventiveDependencies struct {
	TaskRepo      repository.PreventiveTaskRepository
	TicketService *TicketService
	Permissions   *auth.Permissions
	Now           func() time.Time
}

// NewPreventiveService constructs the service.
func NewPreventiveService(deps PreventiveDependencies) *PreventiveService {
	return &PreventiveService{
		tasks:   deps.TaskRepo,
		tickets: deps.TicketService,
		policy:  accessPolicy{perms: deps.Permissions},
		now:     orNow(deps.Now),
	}
}

// ListTasks returns tasks ordered by next due date, optionally for one property.
func (s *PreventiveService) ListTasks(ctx context.Context, caller *Caller, propertyID *string) ([]domain.PreventiveTask, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, propertyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tasks == nil {
		tasks = []domain.PreventiveTask{}
	}
	return tasks, nil
}

// CreateTask stores a new schedule. Without a due date the task is due now.
func (s *PreventiveService) CreateTask(ctx context.Context, caller *Caller, input PreventiveInput) (*domain.PreventiveTask, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if err := validatePreventive(input); err != nil {
		return nil, err
	}
	next := input.NextScheduledAt
	if next == nil {
		now := s.now()
		next = &now
	}
	task := &domain.PreventiveTask{
		PropertyID:         input.PropertyID,
		UnitID:             input.UnitID,
		Category:           input.Category,
		Description:        strings.TrimSpace(input.Description),
		RecurrenceType:     input.RecurrenceType,
		RecurrenceInterval: input.RecurrenceInterval,
		AssignedToUserID:   input.AssignedToUserID,
		NextScheduledAt:    next,
		IsActive:           true,
		CreatedBy:          caller.ID(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// UpdateTask applies a partial update.
func (s *PreventiveService) UpdateTask(ctx context.Context, caller *Caller, id string, patch PreventivePatch) (*domain.PreventiveTask, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "preventive task", map[string]any{"task_id": id})
	}

	if patch.Category != nil {
		task.Category = *patch.Category
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.RecurrenceType != nil {
		task.RecurrenceType = *patch.RecurrenceType
	}
	if patch.RecurrenceInterval != nil {
		task.RecurrenceInterval = *patch.RecurrenceInterval
	}
	if patch.NextScheduledAt != nil {
		task.NextScheduledAt = patch.NextScheduledAt
	}
	if patch.IsActive != nil {
		task.IsActive = *patch.IsActive
	}
	if patch.AssigneeSet {
		task.AssignedToUserID = patch.AssignedToUserID
	}

	if err := validatePreventive(PreventiveInput{
		PropertyID:         task.PropertyID,
		UnitID:             task.UnitID,
		Category:           task.Category,
		Description:        task.Description,
		RecurrenceType:     task.RecurrenceType,
		RecurrenceInterval: task.RecurrenceInterval,
		AssignedToUserID:   task.AssignedToUserID,
	}); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.NotFoundOr(err, "preventive task", map[string]any{"task_id": id})
	}
	return task, nil
}

// DeleteTask removes a schedule. Tickets already fired from it stay.
func (s *PreventiveService) DeleteTask(ctx context.Context, caller *Caller, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return apperrors.NotFoundOr(err, "preventive task", map[string]any{"task_id": id})
	}
	return nil
}

// FireTask turns the task into a preventive ticket now and advances its schedule.
func (s *PreventiveService) FireTask(ctx context.Context, caller *Caller, id string) (*domain.Ticket, *domain.PreventiveTask, error) {
	if err := s.authorize(caller); err != nil {
		return nil, nil, err
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NotFoundOr(err, "preventive task", map[string]any{"task_id": id})
	}
	if !task.IsActive {
		return nil, nil, apperrors.NewConflict("preventive task is inactive", map[string]any{"task_id": id})
	}

	ticket, err := s.tickets.CreateTicket(ctx, caller, TicketCreateInput{
		PropertyID:       task.PropertyID,
		UnitID:           task.UnitID,
		Type:             domain.TicketTypePreventive,
		Category:         task.Category,
		Priority:         domain.TicketPriorityMedium,
		Description:      task.Description,
		AssignedToUserID: task.AssignedToUserID,
	})
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	next := task.NextDueAfterFire(now)
	task.LastGeneratedAt = &now
	task.NextScheduledAt = &next
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, task, nil
}

func (s *PreventiveService) authorize(caller *Caller) error {
	if !s.policy.has(caller, auth.PermViewAllTickets) || !s.policy.has(caller, auth.PermCreateTickets) {
		return apperrors.NewForbidden("not allowed to manage preventive maintenance")
	}
	return nil
}

func validatePreventive(input PreventiveInput) error {
	details := map[string]any{}
	if _, err := uuid.Parse(input.PropertyID); err != nil {
		details["property_id"] = "must be a valid id"
	}
	if !input.Category.Valid() {
		details["category"] = "unknown category"
	}
	if len([]rune(strings.TrimSpace(input.Description))) < minDescriptionLength {
		details["description"] = "must be at least 10 characters"
	}
	switch input.RecurrenceType {
	case domain.RecurrenceDays, domain.RecurrenceWeeks, domain.RecurrenceMonths:
	default:
		details["recurrence_type"] = "must be days, weeks or months"
	}
	if input.RecurrenceInterval < 1 {
		details["recurrence_interval"] = "must be at least 1"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid preventive task", details)
	}
	return nil
}
