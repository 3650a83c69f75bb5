package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// AuditLogRepository is the append-only store of ticket audit entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	// ListByTicket returns at most limit entries, newest first, and reports
	// whether older entries were left out.
	ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.AuditLogEntry, bool, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO ticket_audit_logs (ticket_id, actor_id, action, from_value, to_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.ActorID,
		entry.Action,
		entry.FromValue,
		entry.ToValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.AuditLogEntry, bool, error) {
	const query = `
        SELECT id, ticket_id, actor_id, action, from_value, to_value, created_at
        FROM ticket_audit_logs WHERE ticket_id=$1
        ORDER BY created_at DESC, id
        LIMIT $2`
	// One extra row tells us whether the window cut anything off.
	rows, err := r.pool.Query(ctx, query, ticketID, limit+1)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.Action,
			&entry.FromValue,
			&entry.ToValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, false, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(result) > limit {
		return result[:limit], true, nil
	}
	return result, false, nil
}
