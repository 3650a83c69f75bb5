package timeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Details is the typed form of an audit entry's from/to payload. The set of
// implementations is closed; unknown tags decode to Generic.
type Details interface {
	details()
}

// Created marks the creation of a ticket.
type Created struct {
	InitialStatus string
	CreatorID     string
}

// StatusChange records a status move.
type StatusChange struct {
	From string
	To   string
}

// PriorityChange records a priority move.
type PriorityChange struct {
	From string
	To   string
}

// Assignment records a new assignee or an unassignment (empty UserID).
type Assignment struct {
	UserID   string
	UserName string
}

// CategoryChange records a category move.
type CategoryChange struct {
	From string
	To   string
}

// DescriptionChange records an edited description. The text itself is not rendered.
type DescriptionChange struct{}

// CommentAdded carries the body of a new comment.
type CommentAdded struct {
	Body string
}

// EvidenceAdded carries an uploaded file reference.
type EvidenceAdded struct {
	URL  string
	Kind string
}

// ExpenseAdded carries a new cost line.
type ExpenseAdded struct {
	Description   string
	Amount        float64
	AttachmentURL string
}

// ExpenseRemoved carries the prior state of a deleted cost line.
type ExpenseRemoved struct {
	Description string
	Amount      float64
}

// Composite holds the parts of a comma-joined tag such as
// "status_changed, priority_changed".
type Composite struct {
	Parts []Details
}

// Generic is the forward-compatible fallback for tags this build does not know.
type Generic struct {
	Action string
	From   map[string]any
	To     map[string]any
}

func (Created) details()           {}
func (StatusChange) details()      {}
func (PriorityChange) details()    {}
func (Assignment) details()        {}
func (CategoryChange) details()    {}
func (DescriptionChange) details() {}
func (CommentAdded) details()      {}
func (EvidenceAdded) details()     {}
func (ExpenseAdded) details()      {}
func (ExpenseRemoved) details()    {}
func (Composite) details()         {}
func (Generic) details()           {}

// Decode maps an action tag and its raw payloads onto a Details variant.
// Missing or mistyped fields decode to zero values.
func Decode(action domain.AuditAction, from, to map[string]any) Details {
	tag := strings.TrimSpace(string(action))
	if strings.Contains(tag, ",") {
		var parts []Details
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parts = append(parts, decodeSingle(domain.AuditAction(part), from, to))
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return Composite{Parts: parts}
	}
	return decodeSingle(domain.AuditAction(tag), from, to)
}

func decodeSingle(action domain.AuditAction, from, to map[string]any) Details {
	switch action {
	case domain.ActionCreated:
		return Created{
			InitialStatus: stringField(to, "status"),
			CreatorID:     stringField(to, "created_by"),
		}
	case domain.ActionStatusChanged:
		return StatusChange{From: stringField(from, "status"), To: stringField(to, "status")}
	case domain.ActionPriorityChanged:
		return PriorityChange{From: stringField(from, "priority"), To: stringField(to, "priority")}
	case domain.ActionAssigned, domain.ActionAssignedToChanged:
		return Assignment{
			UserID:   stringField(to, "assigned_to_user_id"),
			UserName: stringField(to, "assigned_to_name"),
		}
	case domain.ActionCategoryChanged:
		return CategoryChange{From: stringField(from, "category"), To: stringField(to, "category")}
	case domain.ActionDescriptionChanged:
		return DescriptionChange{}
	case domain.ActionCommentAdded:
		return CommentAdded{Body: stringField(to, "body")}
	case domain.ActionEvidenceAdded:
		return EvidenceAdded{URL: stringField(to, "url"), Kind: stringField(to, "kind")}
	case domain.ActionExpenseAdded:
		return ExpenseAdded{
			Description:   stringField(to, "description"),
			Amount:        floatField(to, "amount"),
			AttachmentURL: stringField(to, "attachment_url"),
		}
	case domain.ActionExpenseRemoved:
		return ExpenseRemoved{
			Description: stringField(from, "description"),
			Amount:      floatField(from, "amount"),
		}
	default:
		return Generic{Action: string(action), From: from, To: to}
	}
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func floatField(payload map[string]any, key string) float64 {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
