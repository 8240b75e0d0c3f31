package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned both when a task does not exist and when it
// exists but belongs to another owner. The two cases are deliberately
// indistinguishable so that task ids cannot be probed for existence.
var ErrNotFound = errors.New("task not found")

// Repository defines the interface for task storage. Every operation is
// scoped to an owner.
type Repository interface {
	Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, completed *bool) ([]Task, error)
	GetByOwner(ctx context.Context, ownerID, taskID uuid.UUID) (*Task, error)
	Update(ctx context.Context, ownerID, taskID uuid.UUID, fields UpdateFields) (*Task, error)
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
}
