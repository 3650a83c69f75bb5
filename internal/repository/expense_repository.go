package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ExpenseWithCreator joins an expense with its creator's name.
type ExpenseWithCreator struct {
	domain.Expense
	CreatorName string
}

// ExpenseRepository persists ticket expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	GetByID(ctx context.Context, id string) (*domain.Expense, error)
	Delete(ctx context.Context, id string) error
	ListByTicket(ctx context.Context, ticketID string) ([]ExpenseWithCreator, error)
}

type expenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository constructs repository.
func NewExpenseRepository(pool *pgxpool.Pool) ExpenseRepository {
	return &expenseRepository{pool: pool}
}

func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	const query = `
        INSERT INTO ticket_expenses (ticket_id, description, amount, attachment_url, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		expense.TicketID,
		expense.Description,
		expense.Amount,
		expense.AttachmentURL,
		expense.CreatedBy,
	).Scan(&expense.ID, &expense.CreatedAt)
}

func (r *expenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	const query = `
        SELECT id, ticket_id, description, amount::float8, attachment_url, created_by, created_at
        FROM ticket_expenses WHERE id=$1`
	var expense domain.Expense
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&expense.ID,
		&expense.TicketID,
		&expense.Description,
		&expense.Amount,
		&expense.AttachmentURL,
		&expense.CreatedBy,
		&expense.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_expenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *expenseRepository) ListByTicket(ctx context.Context, ticketID string) ([]ExpenseWithCreator, error) {
	const query = `
        SELECT e.id, e.ticket_id, e.description, e.amount::float8, e.attachment_url, e.created_by, e.created_at,
               COALESCE(p.full_name, '')
        FROM ticket_expenses e
        LEFT JOIN profiles p ON p.id = e.created_by
        WHERE e.ticket_id=$1 ORDER BY e.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExpenseWithCreator
	for rows.Next() {
		var e ExpenseWithCreator
		if err := rows.Scan(
			&e.ID,
			&e.TicketID,
			&e.Description,
			&e.Amount,
			&e.AttachmentURL,
			&e.CreatedBy,
			&e.CreatedAt,
			&e.CreatorName,
		); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
