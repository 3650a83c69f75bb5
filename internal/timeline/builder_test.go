package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func testTicket(creator string, created time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:        "ticket-1",
		CreatedBy: creator,
		CreatedAt: created,
		Status:    domain.TicketStatusReported,
	}
}

var testDirectory = StaticDirectory{
	"user-a": {Name: "Alice", Role: domain.RoleReporter},
	"user-b": {Name: "Bob", Role: domain.RoleMaintenance},
	"user-c": {Name: "Carol", Role: domain.RoleSubDirector},
}

func actions(tl Timeline) []domain.AuditAction {
	out := make([]domain.AuditAction, 0, len(tl.Events))
	for _, e := range tl.Events {
		out = append(out, e.Action)
	}
	return out
}

func countAction(tl Timeline, action domain.AuditAction) int {
	n := 0
	for _, e := range tl.Events {
		if e.Action == action {
			n++
		}
	}
	return n
}

func TestBuild_SynthesizesCreationWhenLogEmpty(t *testing.T) {
	tl := Build(Input{Ticket: testTicket("user-a", day(1))}, testDirectory, Options{})

	require.Len(t, tl.Events, 1)
	ev := tl.Events[0]
	assert.Equal(t, domain.ActionCreated, ev.Action)
	assert.Equal(t, day(1), ev.OccurredAt)
	assert.True(t, ev.Synthesized)
	require.NotNil(t, ev.Actor.ID)
	assert.Equal(t, "user-a", *ev.Actor.ID)
	assert.Equal(t, "Alice", ev.Actor.Name)
	assert.Equal(t, KindCreated, ev.Kind)
	assert.Equal(t, "Created the ticket", ev.Summary)
	assert.False(t, tl.Empty())
}

func TestBuild_DoesNotDuplicateCreation(t *testing.T) {
	entries := []domain.AuditLogEntry{
		{ID: "log-1", TicketID: "ticket-1", ActorID: strPtr("user-a"), Action: domain.ActionCreated,
			ToValue: map[string]any{"status": "reported"}, CreatedAt: day(1)},
	}

	tl := Build(Input{Ticket: testTicket("user-a", day(1)), Entries: entries}, testDirectory, Options{})

	assert.Equal(t, 1, countAction(tl, domain.ActionCreated))
	assert.False(t, tl.Events[0].Synthesized)
	assert.Equal(t, "log-1", tl.Events[0].ID)
}

func TestBuild_OrdersDescending(t *testing.T) {
	entries := []domain.AuditLogEntry{
		{ID: "log-2", Action: domain.ActionCommentAdded, ActorID: strPtr("user-b"), CreatedAt: day(3)},
		{ID: "log-3", Action: domain.ActionPriorityChanged, ActorID: strPtr("user-b"), CreatedAt: day(4)},
		{ID: "log-1", Action: domain.ActionCommentAdded, ActorID: strPtr("user-b"), CreatedAt: day(2)},
	}

	tl := Build(Input{Ticket: testTicket("user-a", day(1)), Entries: entries}, testDirectory, Options{})

	require.Len(t, tl.Events, 4)
	assert.Equal(t, []time.Time{day(4), day(3), day(2), day(1)}, []time.Time{
		tl.Events[0].OccurredAt, tl.Events[1].OccurredAt, tl.Events[2].OccurredAt, tl.Events[3].OccurredAt,
	})
	assert.True(t, tl.Events[3].Synthesized)
}

func TestBuild_IsDeterministicAcrossInputOrder(t *testing.T) {
	base := []domain.AuditLogEntry{
		{ID: "a", Action: domain.ActionCommentAdded, ActorID: strPtr("user-b"), CreatedAt: day(2)},
		{ID: "b", Action: domain.ActionStatusChanged, ActorID: strPtr("user-c"), CreatedAt: day(2)},
		{ID: "c", Action: domain.ActionExpenseAdded, ActorID: strPtr("user-b"), CreatedAt: day(3)},
		{ID: "d", Action: domain.ActionAssigned, ActorID: nil, CreatedAt: day(1)},
	}
	reversed := make([]domain.AuditLogEntry, len(base))
	for i := range base {
		reversed[len(base)-1-i] = base[i]
	}
	shuffled := []domain.AuditLogEntry{base[2], base[0], base[3], base[1]}

	ticket := testTicket("user-a", day(1))
	want := Build(Input{Ticket: ticket, Entries: base}, testDirectory, Options{})
	for _, entries := range [][]domain.AuditLogEntry{reversed, shuffled} {
		got := Build(Input{Ticket: ticket, Entries: entries}, testDirectory, Options{})
		assert.Equal(t, want, got)
	}

	// Same timestamp: real entry "d" sorts ahead of the synthesized creation.
	last := want.Events[len(want.Events)-2:]
	assert.Equal(t, "d", last[0].ID)
	assert.True(t, last[1].Synthesized)
}

func TestBuild_UnresolvedActorFallsBack(t *testing.T) {
	entries := []domain.AuditLogEntry{
		{ID: "log-1", Action: domain.ActionCommentAdded, ActorID: strPtr("deleted-user"),
			ToValue: map[string]any{"body": "checked"}, CreatedAt: day(3)},
		{ID: "log-2", Action: domain.ActionCommentAdded, ActorID: nil,
			ToValue: map[string]any{"body": "auto"}, CreatedAt: day(2)},
	}

	tl := Build(Input{Ticket: testTicket("user-a", day(1)), Entries: entries}, testDirectory, Options{})

	require.Len(t, tl.Events, 3)
	assert.Equal(t, "Unknown user", tl.Events[0].Actor.Name)
	assert.False(t, tl.Events[0].Actor.Resolved)
	assert.Equal(t, "System", tl.Events[1].Actor.Name)
	assert.Equal(t, `Added a comment: "checked"`, tl.Events[0].Summary)
	assert.Equal(t, "Alice", tl.Events[2].Actor.Name)
}

func TestBuild_NilDirectory(t *testing.T) {
	tl := Build(Input{Ticket: testTicket("user-a", day(1))}, nil, Options{})

	require.Len(t, tl.Events, 1)
	assert.Equal(t, "Unknown user", tl.Events[0].Actor.Name)
}

func TestBuild_EndToEnd(t *testing.T) {
	entries := []domain.AuditLogEntry{
		{
			ID: "log-assign", Action: domain.ActionAssigned, ActorID: strPtr("user-c"),
			ToValue:   map[string]any{"assigned_to_user_id": "U2", "assigned_to_name": "Bob"},
			CreatedAt: day(2),
		},
		{
			ID: "log-status", Action: domain.ActionStatusChanged, ActorID: strPtr("user-b"),
			FromValue: map[string]any{"status": "assigned"},
			ToValue:   map[string]any{"status": "resolved"},
			CreatedAt: day(3),
		},
	}

	tl := Build(Input{Ticket: testTicket("user-a", day(1)), Entries: entries}, testDirectory, Options{})

	assert.Equal(t, []domain.AuditAction{
		domain.ActionStatusChanged, domain.ActionAssigned, domain.ActionCreated,
	}, actions(tl))
	assert.Equal(t, "Changed status from assigned → resolved", tl.Events[0].Summary)
	assert.Equal(t, "Assigned to Bob", tl.Events[1].Summary)
	assert.True(t, tl.Events[2].Synthesized)
	assert.Equal(t, "Alice", tl.Events[2].Actor.Name)
	assert.Equal(t, day(1), tl.Events[2].OccurredAt)
}

func TestBuild_TruncatedLogSkipsSynthesis(t *testing.T) {
	entries := []domain.AuditLogEntry{
		{ID: "log-9", Action: domain.ActionCommentAdded, CreatedAt: day(9)},
	}

	tl := Build(Input{Ticket: testTicket("user-a", day(1)), Entries: entries, Truncated: true}, testDirectory, Options{})

	assert.True(t, tl.Truncated)
	assert.Equal(t, 0, countAction(tl, domain.ActionCreated))
}

func TestBuild_ZeroCreationTimeSkipsSynthesis(t *testing.T) {
	tl := Build(Input{Ticket: testTicket("user-a", time.Time{})}, testDirectory, Options{})

	assert.True(t, tl.Empty())
}

func TestBuild_ResolutionSynthesisPolicy(t *testing.T) {
	resolved := day(5)
	ticket := testTicket("user-a", day(1))
	ticket.ResolvedAt = &resolved

	off := Build(Input{Ticket: ticket}, testDirectory, Options{})
	assert.Equal(t, 0, countAction(off, domain.ActionStatusChanged))

	on := Build(Input{Ticket: ticket}, testDirectory, Options{SynthesizeResolution: true})
	require.Len(t, on.Events, 2)
	assert.Equal(t, domain.ActionStatusChanged, on.Events[0].Action)
	assert.Equal(t, "Changed status from None → resolved", on.Events[0].Summary)
	assert.Equal(t, "System", on.Events[0].Actor.Name)

	// An existing change to resolved, even inside a composite tag, suppresses it.
	entries := []domain.AuditLogEntry{{
		ID: "log-1", Action: "status_changed, priority_changed",
		FromValue: map[string]any{"status": "in_progress", "priority": "low"},
		ToValue:   map[string]any{"status": "resolved", "priority": "high"},
		CreatedAt: day(5),
	}}
	withLog := Build(Input{Ticket: ticket, Entries: entries}, testDirectory, Options{SynthesizeResolution: true})
	assert.Len(t, withLog.Events, 2)
	for _, ev := range withLog.Events {
		assert.NotEqual(t, "synthetic-resolved-ticket-1", ev.ID)
	}
}

func TestBuild_ActorRoleLabel(t *testing.T) {
	entries := []domain.AuditLogEntry{
		{ID: "log-1", Action: domain.ActionDescriptionChanged, ActorID: strPtr("user-c"), CreatedAt: day(2)},
	}

	tl := Build(Input{Ticket: testTicket("user-a", day(1)), Entries: entries}, testDirectory, Options{})

	assert.Equal(t, domain.RoleSubDirector, tl.Events[0].Actor.Role)
	assert.Equal(t, "Sub Director", tl.Events[0].Actor.RoleLabel)
	assert.Equal(t, KindEdit, tl.Events[0].Kind)
}
