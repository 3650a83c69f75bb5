package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/markup"
)

func TestCommentThreadRendersMarkup(t *testing.T) {
	tickets := newFakeTickets()
	comments := &fakeComments{}
	attachments := &fakeAttachments{}
	audit := &fakeAudit{}
	svc := NewCommentService(CommentDependencies{
		TicketRepo:     tickets,
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		AuditRepo:      audit,
		Permissions:    testPermissions(t),
	})
	tech := caller(domain.RoleMaintenance, "Tom Tech")
	techID := tech.ID()
	ticket := tickets.put(domain.Ticket{CreatedBy: uuid.NewString(), AssignedToUserID: &techID})

	_, err := svc.AddComment(context.Background(), tech, ticket.ID, "  ", nil)
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	photo := markup.Media{Kind: domain.AttachmentImage, URL: "https://cdn.example.com/after.jpg"}
	comment, err := svc.AddComment(context.Background(), tech, ticket.ID, "Replaced the **valve**", []markup.Media{photo})
	require.NoError(t, err)
	assert.Contains(t, comment.Body, "https://cdn.example.com/after.jpg")
	assert.Len(t, attachments.items, 1)
	assert.Equal(t, domain.ActionCommentAdded, audit.last().Action)

	thread, err := svc.ListComments(context.Background(), tech, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Contains(t, thread[0].HTML, "<strong>valve</strong>")
	require.Len(t, thread[0].Media, 1)
	assert.Equal(t, photo.URL, thread[0].Media[0].URL)

	_, err = svc.ListComments(context.Background(), caller(domain.RoleMaintenance, "Other Tech"), ticket.ID)
	assert.Equal(t, "NOT_FOUND", errCode(err))
}
