package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// PreventiveTaskRepository stores recurring maintenance schedules.
type PreventiveTaskRepository interface {
	Create(ctx context.Context, task *domain.PreventiveTask) error
	Update(ctx context.Context, task *domain.PreventiveTask) error
	GetByID(ctx context.Context, id string) (*domain.PreventiveTask, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, propertyID *string) ([]domain.PreventiveTask, error)
}

type preventiveTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPreventiveTaskRepository constructs repository.
func NewPreventiveTaskRepository(pool *pgxpool.Pool) PreventiveTaskRepository {
	return &preventiveTaskRepository{pool: pool}
}

const preventiveColumns = `id, property_id, unit_id, category, description, recurrence_type, recurrence_interval,
               assigned_to_user_id, last_generated_at, next_scheduled_at, is_active, created_by, created_at, updated_at`

func (r *preventiveTaskRepository) Create(ctx context.Context, task *domain.PreventiveTask) error {
	const query = `
        INSERT INTO preventive_tasks (property_id, unit_id, category, description, recurrence_type,
            recurrence_interval, assigned_to_user_id, next_scheduled_at, is_active, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.PropertyID,
		task.UnitID,
		task.Category,
		task.Description,
		task.RecurrenceType,
		task.RecurrenceInterval,
		task.AssignedToUserID,
		task.NextScheduledAt,
		task.IsActive,
		task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *preventiveTaskRepository) Update(ctx context.Context, task *domain.PreventiveTask) error {
	const query = `
        UPDATE preventive_tasks SET unit_id=$1, category=$2, description=$3, recurrence_type=$4,
            recurrence_interval=$5, assigned_to_user_id=$6, last_generated_at=$7, next_scheduled_at=$8,
            is_active=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		task.UnitID,
		task.Category,
		task.Description,
		task.RecurrenceType,
		task.RecurrenceInterval,
		task.AssignedToUserID,
		task.LastGeneratedAt,
		task.NextScheduledAt,
		task.IsActive,
		task.ID,
	).Scan(&task.UpdatedAt)
}

func (r *preventiveTaskRepository) GetByID(ctx context.Context, id string) (*domain.PreventiveTask, error) {
	query := `SELECT ` + preventiveColumns + ` FROM preventive_tasks WHERE id=$1`
	return scanPreventiveTask(r.pool.QueryRow(ctx, query, id))
}

func (r *preventiveTaskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM preventive_tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *preventiveTaskRepository) List(ctx context.Context, propertyID *string) ([]domain.PreventiveTask, error) {
	query := `SELECT ` + preventiveColumns + ` FROM preventive_tasks`
	args := []any{}
	if propertyID != nil {
		query += ` WHERE property_id=$1`
		args = append(args, *propertyID)
	}
	query += ` ORDER BY next_scheduled_at ASC NULLS LAST, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PreventiveTask
	for rows.Next() {
		task, err := scanPreventiveTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func scanPreventiveTask(row pgx.Row) (*domain.PreventiveTask, error) {
	var task domain.PreventiveTask
	if err := row.Scan(
		&task.ID,
		&task.PropertyID,
		&task.UnitID,
		&task.Category,
		&task.Description,
		&task.RecurrenceType,
		&task.RecurrenceInterval,
		&task.AssignedToUserID,
		&task.LastGeneratedAt,
		&task.NextScheduledAt,
		&task.IsActive,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
