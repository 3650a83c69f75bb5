package domain

import "time"

// Comment is a free-text note on a ticket.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// AttachmentKind classifies uploaded evidence.
type AttachmentKind string

const (
	AttachmentImage   AttachmentKind = "image"
	AttachmentVideo   AttachmentKind = "video"
	AttachmentInvoice AttachmentKind = "invoice"
)

// Attachment references a file already uploaded to blob storage.
type Attachment struct {
	ID         string
	TicketID   string
	URL        string
	Kind       AttachmentKind
	UploadedBy string
	CreatedAt  time.Time
}
