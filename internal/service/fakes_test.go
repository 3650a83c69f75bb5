package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/outbox"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

type fakeTickets struct {
	mu       sync.Mutex
	items    map[string]*domain.Ticket
	lastList repository.TicketFilter
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{items: map[string]*domain.Ticket{}}
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = fixedNow
	t.UpdatedAt = fixedNow
	cp := *t
	f.items[t.ID] = &cp
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	f.items[t.ID] = &cp
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	var out []domain.Ticket
	for _, t := range f.items {
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.AssigneeID != nil && (t.AssignedToUserID == nil || *t.AssignedToUserID != *filter.AssigneeID) {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeTickets) put(t domain.Ticket) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := t
	f.items[t.ID] = &cp
	return &t
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
	err     error
}

func (f *fakeAudit) Append(_ context.Context, e *domain.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = fixedNow.Add(time.Duration(len(f.entries)) * time.Second)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAudit) ListByTicket(_ context.Context, ticketID string, limit int) ([]domain.AuditLogEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditLogEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].TicketID == ticketID {
			out = append(out, f.entries[i])
		}
	}
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}

func (f *fakeAudit) last() domain.AuditLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[len(f.entries)-1]
}

func (f *fakeAudit) actions() []domain.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeComments struct {
	items []domain.Comment
}

func (f *fakeComments) Create(_ context.Context, c *domain.Comment) error {
	c.ID = uuid.NewString()
	c.CreatedAt = fixedNow
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeComments) ListByTicket(_ context.Context, ticketID string) ([]repository.CommentWithAuthor, error) {
	var out []repository.CommentWithAuthor
	for _, c := range f.items {
		if c.TicketID == ticketID {
			out = append(out, repository.CommentWithAuthor{Comment: c, AuthorName: "Someone"})
		}
	}
	return out, nil
}

type fakeAttachments struct {
	items []domain.Attachment
}

func (f *fakeAttachments) Create(_ context.Context, a *domain.Attachment) error {
	a.ID = uuid.NewString()
	a.CreatedAt = fixedNow
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range f.items {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	items   map[string]*domain.Profile
	listErr error
}

func newFakeProfiles(profiles ...*domain.Profile) *fakeProfiles {
	f := &fakeProfiles{items: map[string]*domain.Profile{}}
	for _, p := range profiles {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) error {
	p.ID = uuid.NewString()
	p.CreatedAt = fixedNow
	f.items[p.ID] = p
	return nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range f.items {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfiles) ListByIDs(_ context.Context, ids []string) ([]domain.Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Profile
	for _, id := range ids {
		if p, ok := f.items[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) ListByRoles(_ context.Context, roles []domain.UserRole) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range f.items {
		for _, r := range roles {
			if p.Role == r {
				out = append(out, *p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type fakeExpenses struct {
	items map[string]*domain.Expense
}

func newFakeExpenses() *fakeExpenses {
	return &fakeExpenses{items: map[string]*domain.Expense{}}
}

func (f *fakeExpenses) Create(_ context.Context, e *domain.Expense) error {
	e.ID = uuid.NewString()
	e.CreatedAt = fixedNow
	cp := *e
	f.items[e.ID] = &cp
	return nil
}

func (f *fakeExpenses) GetByID(_ context.Context, id string) (*domain.Expense, error) {
	e, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExpenses) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeExpenses) ListByTicket(_ context.Context, ticketID string) ([]repository.ExpenseWithCreator, error) {
	var out []repository.ExpenseWithCreator
	for _, e := range f.items {
		if e.TicketID == ticketID {
			out = append(out, repository.ExpenseWithCreator{Expense: *e})
		}
	}
	return out, nil
}

type fakeTasks struct {
	items map[string]*domain.PreventiveTask
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{items: map[string]*domain.PreventiveTask{}}
}

func (f *fakeTasks) Create(_ context.Context, t *domain.PreventiveTask) error {
	t.ID = uuid.NewString()
	t.CreatedAt = fixedNow
	cp := *t
	f.items[t.ID] = &cp
	return nil
}

func (f *fakeTasks) Update(_ context.Context, t *domain.PreventiveTask) error {
	if _, ok := f.items[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	f.items[t.ID] = &cp
	return nil
}

func (f *fakeTasks) GetByID(_ context.Context, id string) (*domain.PreventiveTask, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTasks) List(_ context.Context, propertyID *string) ([]domain.PreventiveTask, error) {
	var out []domain.PreventiveTask
	for _, t := range f.items {
		if propertyID == nil || t.PropertyID == *propertyID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []outbox.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job outbox.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Dequeue(_ context.Context, _ time.Duration) (*outbox.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

type recordingDispatcher struct {
	events.Dispatcher
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(nil)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, e events.Event) error {
	d.published = append(d.published, e)
	return d.Dispatcher.Publish(ctx, e)
}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

func testPermissions(t *testing.T) *auth.Permissions {
	t.Helper()
	perms, err := auth.NewPermissions()
	require.NoError(t, err)
	return perms
}

func caller(role domain.UserRole, name string) *Caller {
	return &Caller{Profile: &domain.Profile{ID: uuid.NewString(), FullName: name, Role: role}}
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.ToDomainError(err).Code
}
