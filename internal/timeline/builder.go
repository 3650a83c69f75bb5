// Package timeline merges a ticket's audit log with events implied by the
// ticket itself and renders the result as a descending activity feed.
//
// Build performs no I/O: callers fetch the ticket, the audit entries and the
// actor profiles first and pass them in.
package timeline

import (
	"sort"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EmptyMessage is shown by the rendering surface when a timeline has no events.
const EmptyMessage = "No activity yet"

const (
	systemActorName  = "System"
	unknownActorName = "Unknown user"
)

// ActorProfile is the display metadata for an actor.
type ActorProfile struct {
	Name string
	Role domain.UserRole
}

// Directory resolves actor ids to display metadata. A miss is not an error.
type Directory interface {
	Lookup(id string) (ActorProfile, bool)
}

// StaticDirectory is a Directory over a preloaded map.
type StaticDirectory map[string]ActorProfile

// Lookup implements Directory.
func (d StaticDirectory) Lookup(id string) (ActorProfile, bool) {
	profile, ok := d[id]
	return profile, ok
}

// Options holds synthesis policy.
type Options struct {
	// SynthesizeResolution adds a status change to "resolved" at the ticket's
	// resolved_at when the log holds no such change. Off by default.
	SynthesizeResolution bool
}

// Input is everything Build needs for one ticket.
type Input struct {
	Ticket  *domain.Ticket
	Entries []domain.AuditLogEntry
	// Truncated reports that Entries is a bounded, newest-first window of a
	// longer log. No events are synthesized for a truncated log since the
	// entries they stand in for may sit outside the window.
	Truncated bool
}

// Actor is the resolved author of an event.
type Actor struct {
	ID        *string
	Name      string
	Role      domain.UserRole
	RoleLabel string
	Resolved  bool
}

// Event is one display-ready timeline row.
type Event struct {
	ID          string
	Action      domain.AuditAction
	Kind        Kind
	Actor       Actor
	OccurredAt  time.Time
	Synthesized bool
	Details     Details
	Summary     string
}

// Timeline is the ordered feed for one ticket.
type Timeline struct {
	TicketID  string
	Events    []Event
	Truncated bool
}

// Empty reports whether there is nothing to show.
func (t Timeline) Empty() bool {
	return len(t.Events) == 0
}

type pending struct {
	entry       domain.AuditLogEntry
	synthesized bool
	position    int
}

// Build produces the timeline for in.Ticket. The result depends only on the
// arguments, not on the order of in.Entries.
func Build(in Input, dir Directory, opts Options) Timeline {
	result := Timeline{Truncated: in.Truncated}
	if in.Ticket != nil {
		result.TicketID = in.Ticket.ID
	}

	items := make([]pending, 0, len(in.Entries)+2)
	for i, entry := range in.Entries {
		items = append(items, pending{entry: entry, position: i})
	}

	if in.Ticket != nil && !in.Truncated {
		for _, synthetic := range synthesize(in.Ticket, in.Entries, opts) {
			items = append(items, pending{entry: synthetic, synthesized: true, position: len(items)})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
			return a.entry.CreatedAt.After(b.entry.CreatedAt)
		}
		if a.synthesized != b.synthesized {
			return !a.synthesized
		}
		if a.entry.ID != b.entry.ID {
			return a.entry.ID < b.entry.ID
		}
		return a.position < b.position
	})

	result.Events = make([]Event, 0, len(items))
	for _, item := range items {
		details := Decode(item.entry.Action, item.entry.FromValue, item.entry.ToValue)
		result.Events = append(result.Events, Event{
			ID:          item.entry.ID,
			Action:      item.entry.Action,
			Kind:        KindOf(details),
			Actor:       resolveActor(item.entry.ActorID, dir),
			OccurredAt:  item.entry.CreatedAt,
			Synthesized: item.synthesized,
			Details:     details,
			Summary:     Summarize(details),
		})
	}
	return result
}

func synthesize(ticket *domain.Ticket, entries []domain.AuditLogEntry, opts Options) []domain.AuditLogEntry {
	var out []domain.AuditLogEntry

	if !ticket.CreatedAt.IsZero() && !hasAction(entries, domain.ActionCreated) {
		creator := ticket.CreatedBy
		entry := domain.AuditLogEntry{
			ID:        "synthetic-created-" + ticket.ID,
			TicketID:  ticket.ID,
			Action:    domain.ActionCreated,
			CreatedAt: ticket.CreatedAt,
		}
		if creator != "" {
			entry.ActorID = &creator
			entry.ToValue = map[string]any{"created_by": creator}
		}
		out = append(out, entry)
	}

	if opts.SynthesizeResolution && ticket.ResolvedAt != nil && !hasResolution(entries) {
		out = append(out, domain.AuditLogEntry{
			ID:        "synthetic-resolved-" + ticket.ID,
			TicketID:  ticket.ID,
			Action:    domain.ActionStatusChanged,
			ToValue:   map[string]any{"status": string(domain.TicketStatusResolved)},
			CreatedAt: *ticket.ResolvedAt,
		})
	}
	return out
}

func hasAction(entries []domain.AuditLogEntry, action domain.AuditAction) bool {
	for _, entry := range entries {
		if entry.Action == action {
			return true
		}
	}
	return false
}

func hasResolution(entries []domain.AuditLogEntry) bool {
	for _, entry := range entries {
		if change, ok := findStatusChange(Decode(entry.Action, entry.FromValue, entry.ToValue)); ok &&
			change.To == string(domain.TicketStatusResolved) {
			return true
		}
	}
	return false
}

func findStatusChange(d Details) (StatusChange, bool) {
	switch v := d.(type) {
	case StatusChange:
		return v, true
	case Composite:
		for _, part := range v.Parts {
			if change, ok := findStatusChange(part); ok {
				return change, true
			}
		}
	}
	return StatusChange{}, false
}

func resolveActor(id *string, dir Directory) Actor {
	if id == nil || *id == "" {
		return Actor{Name: systemActorName}
	}
	actorID := *id
	actor := Actor{ID: &actorID, Name: unknownActorName}
	if dir == nil {
		return actor
	}
	profile, ok := dir.Lookup(actorID)
	if !ok {
		return actor
	}
	if profile.Name != "" {
		actor.Name = profile.Name
	}
	actor.Role = profile.Role
	actor.RoleLabel = Label(string(profile.Role))
	actor.Resolved = true
	return actor
}
