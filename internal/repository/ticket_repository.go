package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// TicketFilter captures list and search parameters.
type TicketFilter struct {
	CreatedBy  *string
	AssigneeID *string
	PropertyID *string
	UnitID     *string
	Type       *domain.TicketType
	Categories []domain.TicketCategory
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	UrgentOnly bool
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, property_id, unit_id, type, category, priority, status, description,
               requires_spend, assigned_to_user_id, created_by, created_at, updated_at, resolved_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (property_id, unit_id, type, category, priority, status, description,
            requires_spend, assigned_to_user_id, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.PropertyID,
		ticket.UnitID,
		ticket.Type,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.Description,
		ticket.RequiresSpend,
		ticket.AssignedToUserID,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET unit_id=$1, category=$2, priority=$3, status=$4, description=$5,
            requires_spend=$6, assigned_to_user_id=$7, resolved_at=$8, closed_at=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.UnitID,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.Description,
		ticket.RequiresSpend,
		ticket.AssignedToUserID,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where, args := buildTicketWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	return result, total, rows.Err()
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	add := func(format string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if filter.CreatedBy != nil {
		add("created_by=$%d", *filter.CreatedBy)
	}
	if filter.AssigneeID != nil {
		add("assigned_to_user_id=$%d", *filter.AssigneeID)
	}
	if filter.PropertyID != nil {
		add("property_id=$%d", *filter.PropertyID)
	}
	if filter.UnitID != nil {
		add("unit_id=$%d", *filter.UnitID)
	}
	if filter.Type != nil {
		add("type::text=$%d", string(*filter.Type))
	}
	if len(filter.Categories) > 0 {
		add("category::text = ANY($%d::text[])", enumStrings(filter.Categories))
	}
	if len(filter.Statuses) > 0 {
		add("status::text = ANY($%d::text[])", enumStrings(filter.Statuses))
	}
	if filter.UrgentOnly {
		clauses = append(clauses, "priority='urgent'")
	} else if len(filter.Priorities) > 0 {
		add("priority::text = ANY($%d::text[])", enumStrings(filter.Priorities))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		add("LOWER(description) LIKE $%d", search)
	}
	return strings.Join(clauses, " AND "), args
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.PropertyID,
		&ticket.UnitID,
		&ticket.Type,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Description,
		&ticket.RequiresSpend,
		&ticket.AssignedToUserID,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
