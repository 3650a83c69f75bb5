package timeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind tells the rendering surface which icon family an event belongs to.
type Kind string

const (
	KindCreated    Kind = "created"
	KindStatus     Kind = "status"
	KindPriority   Kind = "priority"
	KindAssignment Kind = "assignment"
	KindCategory   Kind = "category"
	KindEdit       Kind = "edit"
	KindComment    Kind = "comment"
	KindEvidence   Kind = "evidence"
	KindExpense    Kind = "expense"
	KindGeneric    Kind = "generic"
)

const (
	placeholderValue = "None"
	arrow            = "→"
)

// KindOf classifies a Details value. A composite takes the kind of its first part.
func KindOf(d Details) Kind {
	switch v := d.(type) {
	case Created:
		return KindCreated
	case StatusChange:
		return KindStatus
	case PriorityChange:
		return KindPriority
	case Assignment:
		return KindAssignment
	case CategoryChange:
		return KindCategory
	case DescriptionChange:
		return KindEdit
	case CommentAdded:
		return KindComment
	case EvidenceAdded:
		return KindEvidence
	case ExpenseAdded, ExpenseRemoved:
		return KindExpense
	case Composite:
		if len(v.Parts) > 0 {
			return KindOf(v.Parts[0])
		}
		return KindGeneric
	default:
		return KindGeneric
	}
}

// Summarize renders the one-line description shown next to an event.
func Summarize(d Details) string {
	switch v := d.(type) {
	case Created:
		return "Created the ticket"
	case StatusChange:
		return transition("status", v.From, v.To)
	case PriorityChange:
		return transition("priority", v.From, v.To)
	case CategoryChange:
		return transition("category", v.From, v.To)
	case Assignment:
		if v.UserID == "" {
			return "Unassigned ticket"
		}
		name := v.UserName
		if name == "" {
			name = "User"
		}
		return "Assigned to " + name
	case DescriptionChange:
		return "Updated the description"
	case CommentAdded:
		return fmt.Sprintf("Added a comment: %q", v.Body)
	case EvidenceAdded:
		kind := v.Kind
		if kind == "" {
			kind = "file"
		}
		return fmt.Sprintf("Uploaded evidence (%s)", kind)
	case ExpenseAdded:
		text := fmt.Sprintf("Added expense: %s - %s", v.Description, money(v.Amount))
		if v.AttachmentURL != "" {
			text += " (Receipt)"
		}
		return text
	case ExpenseRemoved:
		return fmt.Sprintf("Removed expense: %s (%s)", v.Description, money(v.Amount))
	case Composite:
		parts := make([]string, 0, len(v.Parts))
		for _, part := range v.Parts {
			parts = append(parts, Summarize(part))
		}
		return strings.Join(parts, "; ")
	case Generic:
		return Humanize(v.Action)
	default:
		return ""
	}
}

// Humanize turns a snake_case tag into words: "custom_future_action" → "custom future action".
func Humanize(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), "_", " ")
}

// Label title-cases a snake_case value for headings: "sub_director" → "Sub Director".
func Label(value string) string {
	if value == "" {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(Humanize(value))
}

func transition(field, from, to string) string {
	return fmt.Sprintf("Changed %s from %s %s %s", field, displayValue(from), arrow, displayValue(to))
}

func displayValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholderValue
	}
	return Humanize(v)
}

func money(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
