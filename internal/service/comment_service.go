package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/markup"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// RenderedComment is a comment with its display forms.
type RenderedComment struct {
	repository.CommentWithAuthor
	HTML  string
	Media []markup.Media
}

// CommentService handles the ticket discussion thread.
type CommentService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	renderer    *markup.Renderer
	audit       auditRecorder
	policy      accessPolicy
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	AuditRepo      repository.AuditLogRepository
	Permissions    *auth.Permissions
	Renderer       *markup.Renderer
	Logger         *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = markup.NewRenderer()
	}
	return &CommentService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		renderer:    renderer,
		audit:       auditRecorder{repo: deps.AuditRepo, logger: orNop(deps.Logger)},
		policy:      accessPolicy{perms: deps.Permissions},
	}
}

// AddComment posts a comment. Media are inlined as markup lines and saved
// as ticket attachments. Either text or media must be present.
func (s *CommentService) AddComment(ctx context.Context, caller *Caller, ticketID, body string, media []markup.Media) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" && len(media) == 0 {
		return nil, apperrors.NewValidationError("comment cannot be empty", nil)
	}
	for _, m := range media {
		if err := validateMedia(m); err != nil {
			return nil, err
		}
	}
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: caller.ID(),
		Body:     markup.AppendAttachments(body, media),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, m := range media {
		attachment := &domain.Attachment{TicketID: ticket.ID, URL: m.URL, Kind: m.Kind, UploadedBy: caller.ID()}
		if err := s.attachments.Create(ctx, attachment); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.audit.record(ctx, ticket.ID, caller.ID(), domain.ActionCommentAdded, nil, map[string]any{"body": comment.Body})
	return comment, nil
}

// ListComments returns the thread oldest first with rendered HTML.
func (s *CommentService) ListComments(ctx context.Context, caller *Caller, ticketID string) ([]RenderedComment, error) {
	ticket, err := loadTicket(ctx, s.tickets, s.policy, caller, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	out := make([]RenderedComment, 0, len(comments))
	for _, c := range comments {
		html, err := s.renderer.ToHTML(c.Body)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		out = append(out, RenderedComment{
			CommentWithAuthor: c,
			HTML:              html,
			Media:             s.renderer.Extract(c.Body),
		})
	}
	return out, nil
}
