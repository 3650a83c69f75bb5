package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/timeline"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// TimelineService assembles a ticket's activity feed.
type TimelineService struct {
	tickets    repository.TicketRepository
	audit      repository.AuditLogRepository
	profiles   repository.ProfileRepository
	policy     accessPolicy
	maxEntries int
	options    timeline.Options
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// TimelineDependencies bundles collaborators for the timeline service.
type TimelineDependencies struct {
	TicketRepo  repository.TicketRepository
	AuditRepo   repository.AuditLogRepository
	ProfileRepo repository.ProfileRepository
	Permissions *auth.Permissions
	Config      config.TimelineConfig
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewTimelineService constructs the service.
func NewTimelineService(deps TimelineDependencies) *TimelineService {
	maxEntries := deps.Config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &TimelineService{
		tickets:    deps.TicketRepo,
		audit:      deps.AuditRepo,
		profiles:   deps.ProfileRepo,
		policy:     accessPolicy{perms: deps.Permissions},
		maxEntries: maxEntries,
		options:    timeline.Options{SynthesizeResolution: deps.Config.SynthesizeResolution},
		metrics:    deps.Metrics,
		logger:     orNop(deps.Logger),
	}
}

// Timeline fetches the ticket, its newest audit entries and the actors
// involved, then builds the feed.
func (s *TimelineService) Timeline(ctx context.Context, caller *Caller, ticketID string) (timeline.Timeline, error) {
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return timeline.Timeline{}, err
	}

	entries, truncated, err := s.audit.ListByTicket(ctx, ticket.ID, s.maxEntries)
	if err != nil {
		return timeline.Timeline{}, apperrors.MapError(err)
	}

	ids := map[string]struct{}{}
	if ticket.CreatedBy != "" {
		ids[ticket.CreatedBy] = struct{}{}
	}
	for _, entry := range entries {
		if entry.ActorID != nil && *entry.ActorID != "" {
			ids[*entry.ActorID] = struct{}{}
		}
	}
	actorIDs := make([]string, 0, len(ids))
	for id := range ids {
		actorIDs = append(actorIDs, id)
	}

	// A directory failure degrades to "Unknown user" rather than failing the feed.
	directory := timeline.StaticDirectory{}
	profiles, err := s.profiles.ListByIDs(ctx, actorIDs)
	if err != nil {
		s.logger.Warn("timeline actor lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	for _, p := range profiles {
		directory[p.ID] = timeline.ActorProfile{Name: p.FullName, Role: p.Role}
	}

	result := timeline.Build(timeline.Input{
		Ticket:    ticket,
		Entries:   entries,
		Truncated: truncated,
	}, directory, s.options)

	s.metrics.RecordTimeline(len(result.Events))
	if truncated {
		s.logger.Info("timeline truncated", zap.String("ticket_id", ticket.ID), zap.Int("max_entries", s.maxEntries))
	}
	return result, nil
}
