package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tasknest/tasknest/internal/database"
)

// PostgresRepository handles task persistence with bun over Postgres.
type PostgresRepository struct {
	db *bun.DB
}

func NewPostgresRepository(db *bun.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new task for the given owner
func (r *PostgresRepository) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*Task, error) {
	dbTask := &database.Task{
		UserID:      ownerID,
		Title:       title,
		Description: description,
	}

	_, err := r.db.NewInsert().
		Model(dbTask).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// ListByOwner returns the owner's tasks, most recently created first,
// optionally filtered by completion state.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, completed *bool) ([]Task, error) {
	var dbTasks []database.Task

	q := r.db.NewSelect().
		Model(&dbTasks).
		Where("user_id = ?", ownerID).
		Order("created_at DESC")

	if completed != nil {
		q = q.Where("completed = ?", *completed)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]Task, 0, len(dbTasks))
	for i := range dbTasks {
		tasks = append(tasks, *mapDBTaskToModel(&dbTasks[i]))
	}

	return tasks, nil
}

// GetByOwner retrieves a single task scoped to its owner
func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID, taskID uuid.UUID) (*Task, error) {
	dbTask := new(database.Task)
	err := r.db.NewSelect().
		Model(dbTask).
		Where("id = ?", taskID).
		Where("user_id = ?", ownerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// Update applies the provided fields in a single UPDATE statement so
// concurrent writers cannot interleave partial writes. The owner id is
// never part of the SET list.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, taskID uuid.UUID, fields UpdateFields) (*Task, error) {
	q := r.db.NewUpdate().
		Model((*database.Task)(nil)).
		Set("updated_at = now()").
		Where("id = ?", taskID).
		Where("user_id = ?", ownerID).
		Returning("*")

	if fields.Title != nil {
		q = q.Set("title = ?", *fields.Title)
	}
	if fields.Description != nil {
		q = q.Set("description = ?", *fields.Description)
	}
	if fields.Completed != nil {
		q = q.Set("completed = ?", *fields.Completed)
	}

	dbTask := new(database.Task)
	_, err := q.Exec(ctx, dbTask)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// Delete removes a task scoped to its owner
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Task)(nil)).
		Where("id = ?", taskID).
		Where("user_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBTaskToModel converts database model to domain model
func mapDBTaskToModel(dbt *database.Task) *Task {
	return &Task{
		ID:          dbt.ID,
		UserID:      dbt.UserID,
		Title:       dbt.Title,
		Description: dbt.Description,
		Completed:   dbt.Completed,
		CreatedAt:   dbt.CreatedAt,
		UpdatedAt:   dbt.UpdatedAt,
	}
}
