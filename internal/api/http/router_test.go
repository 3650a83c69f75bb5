package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	tickets  map[string]*domain.Ticket
	audit    []domain.AuditLogEntry
	comments []domain.Comment
	files    []domain.Attachment
}

type memProfiles struct{ *memStore }

func (m memProfiles) Create(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	m.profiles[p.ID] = p
	return nil
}

func (m memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (m memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memProfiles) ListByIDs(_ context.Context, ids []string) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Profile
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m memProfiles) ListByRoles(_ context.Context, roles []domain.UserRole) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Profile
	for _, p := range m.profiles {
		for _, r := range roles {
			if p.Role == r {
				out = append(out, *p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type memTickets struct{ *memStore }

func (m memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.tickets[t.ID] = &cp
	return nil
}

func (m memTickets) Update(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	m.tickets[t.ID] = &cp
	return nil
}

func (m memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tickets[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m memTickets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tickets, id)
	return nil
}

func (m memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range m.tickets {
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

type memAudit struct{ *memStore }

func (m memAudit) Append(_ context.Context, e *domain.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().Add(time.Duration(len(m.audit)) * time.Millisecond)
	m.audit = append(m.audit, *e)
	return nil
}

func (m memAudit) ListByTicket(_ context.Context, ticketID string, limit int) ([]domain.AuditLogEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditLogEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].TicketID == ticketID {
			out = append(out, m.audit[i])
		}
	}
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}

type memComments struct{ *memStore }

func (m memComments) Create(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, *c)
	return nil
}

func (m memComments) ListByTicket(_ context.Context, ticketID string) ([]repository.CommentWithAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.CommentWithAuthor
	for _, c := range m.comments {
		if c.TicketID == ticketID {
			author := m.profiles[c.AuthorID]
			out = append(out, repository.CommentWithAuthor{Comment: c, AuthorName: author.FullName, AuthorRole: author.Role})
		}
	}
	return out, nil
}

type memAttachments struct{ *memStore }

func (m memAttachments) Create(_ context.Context, a *domain.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	m.files = append(m.files, *a)
	return nil
}

func (m memAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Attachment
	for _, a := range m.files {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

type testServer struct {
	app   *fiber.App
	store *memStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := &memStore{profiles: map[string]*domain.Profile{}, tickets: map[string]*domain.Ticket{}}
	perms, err := auth.NewPermissions()
	require.NoError(t, err)

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "router-test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}
	profiles := memProfiles{store}
	authService := service.NewAuthService(cfg, profiles, perms)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     memTickets{store},
		CommentRepo:    memComments{store},
		AttachmentRepo: memAttachments{store},
		ProfileRepo:    profiles,
		AuditRepo:      memAudit{store},
		Permissions:    perms,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:     memTickets{store},
		CommentRepo:    memComments{store},
		AttachmentRepo: memAttachments{store},
		AuditRepo:      memAudit{store},
		Permissions:    perms,
	})
	timelineService := service.NewTimelineService(service.TimelineDependencies{
		TicketRepo:  memTickets{store},
		AuditRepo:   memAudit{store},
		ProfileRepo: profiles,
		Permissions: perms,
		Metrics:     observability.NewMetrics(),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("maintenance-service", "test", nil),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService, timelineService),
		Expenses:       handlers.NewExpensesHandler(service.NewExpenseService(service.ExpenseDependencies{Permissions: perms})),
		Preventive:     handlers.NewPreventiveHandler(service.NewPreventiveService(service.PreventiveDependencies{Permissions: perms})),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), profiles),
		Permissions:    perms,
	})
	return &testServer{app: app, store: store}
}

func (s *testServer) addProfile(t *testing.T, name, email, password string, role domain.UserRole) *domain.Profile {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	p := &domain.Profile{ID: uuid.NewString(), FullName: name, Email: email, PasswordHash: hash, Role: role}
	s.store.profiles[p.ID] = p
	return p
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	return body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	envelope, _ := body["error"].(map[string]any)
	code, _ := envelope["code"].(string)
	return code
}

func TestHealthLive(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/tickets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestLoginValidationEnvelope(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestTicketLifecycleThroughTimeline(t *testing.T) {
	s := newTestServer(t)
	s.addProfile(t, "Rita Reporter", "rita@example.com", "reporter-pass", domain.RoleReporter)
	tech := s.addProfile(t, "Tom Tech", "tom@example.com", "tech-pass-1", domain.RoleMaintenance)
	s.addProfile(t, "Ada Admin", "ada@example.com", "admin-pass-1", domain.RoleAdmin)

	reporter := s.login(t, "rita@example.com", "reporter-pass")
	admin := s.login(t, "ada@example.com", "admin-pass-1")

	status, body := s.do(t, http.MethodPost, "/tickets", reporter, map[string]any{
		"property_id":     uuid.NewString(),
		"category":        "plumbing",
		"priority":        "high",
		"description":     "Bathroom tap will not stop running",
		"initial_comment": "Started this morning",
	})
	require.Equal(t, http.StatusCreated, status, body)
	ticket := body["data"].(map[string]any)
	ticketID := ticket["id"].(string)
	assert.Equal(t, "reported", ticket["status"])
	assert.Equal(t, "Just now", ticket["age"].(map[string]any)["label"])

	status, body = s.do(t, http.MethodPatch, "/tickets/"+ticketID, admin, map[string]any{
		"assigned_to_user_id": tech.ID,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "assigned", body["data"].(map[string]any)["status"])

	status, body = s.do(t, http.MethodPost, "/tickets/"+ticketID+"/comments", reporter, map[string]any{
		"body":        "Photo of the tap",
		"attachments": []map[string]any{{"kind": "image", "url": "https://cdn.example.com/tap.jpg"}},
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = s.do(t, http.MethodGet, "/tickets/"+ticketID+"/timeline", reporter, nil)
	require.Equal(t, http.StatusOK, status, body)
	feed := body["data"].(map[string]any)
	events := feed["events"].([]any)
	require.Len(t, events, 3)
	newest := events[0].(map[string]any)
	assert.Equal(t, "comment_added", newest["action"])
	assert.Equal(t, "Rita Reporter", newest["actor"].(map[string]any)["name"])
	assert.Equal(t, "status_changed, assigned_to_changed", events[1].(map[string]any)["action"])
	assert.Equal(t, "created", events[2].(map[string]any)["action"])
	assert.NotContains(t, feed, "empty_message")

	status, body = s.do(t, http.MethodGet, "/tickets/"+ticketID+"/comments", reporter, nil)
	require.Equal(t, http.StatusOK, status, body)
	comments := body["data"].([]any)
	require.Len(t, comments, 2)
	assert.Len(t, comments[1].(map[string]any)["media"], 1)

	status, body = s.do(t, http.MethodDelete, "/tickets/"+ticketID, reporter, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = s.do(t, http.MethodDelete, "/tickets/"+ticketID, admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestCreateUserRequiresManageUsers(t *testing.T) {
	s := newTestServer(t)
	s.addProfile(t, "Rita Reporter", "rita@example.com", "reporter-pass", domain.RoleReporter)
	s.addProfile(t, "Ada Admin", "ada@example.com", "admin-pass-1", domain.RoleAdmin)
	reporter := s.login(t, "rita@example.com", "reporter-pass")
	admin := s.login(t, "ada@example.com", "admin-pass-1")

	newUser := map[string]any{"full_name": "Hank", "email": "hank@example.com", "password": "hk-password", "role": "housekeeper"}
	status, body := s.do(t, http.MethodPost, "/users", reporter, newUser)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/users", admin, newUser)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Housekeeper", body["data"].(map[string]any)["role_label"])

	status, body = s.do(t, http.MethodGet, "/users/me", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["data"].(map[string]any)["permissions"], "manage_users")
}
