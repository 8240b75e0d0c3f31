package task

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateFields carries the optional fields of a task update. Nil fields
// are left untouched. The owner can never be changed.
type UpdateFields struct {
	Title       *string
	Description *string
	Completed   *bool
}
