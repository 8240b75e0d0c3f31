package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tasknest/tasknest/internal/logging"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title must be at most 500 characters")
)

const maxTitleLen = 500

// Service handles task business logic
type Service struct {
	repo   Repository
	logger *logging.Logger
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates and creates a task for the owner. The title must be
// non-empty after trimming; leading and trailing whitespace is removed.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > maxTitleLen {
		return nil, ErrTitleTooLong
	}

	created, err := s.repo.Create(ctx, ownerID, title, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Debug("task created", "task_id", created.ID, "owner_id", ownerID)

	return created, nil
}

// List returns the owner's tasks, optionally filtered by completion state
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, completed *bool) ([]Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns one of the owner's tasks
func (s *Service) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*Task, error) {
	return s.repo.GetByOwner(ctx, ownerID, taskID)
}

// Update validates and applies a partial update to one of the owner's
// tasks. A provided title must still be non-empty after trimming.
func (s *Service) Update(ctx context.Context, ownerID, taskID uuid.UUID, fields UpdateFields) (*Task, error) {
	if fields.Title != nil {
		trimmed := strings.TrimSpace(*fields.Title)
		if trimmed == "" {
			return nil, ErrTitleRequired
		}
		if len(trimmed) > maxTitleLen {
			return nil, ErrTitleTooLong
		}
		fields.Title = &trimmed
	}

	// An empty update still goes through the store so the not-found
	// semantics stay identical for non-owners.
	return s.repo.Update(ctx, ownerID, taskID, fields)
}

// Delete removes one of the owner's tasks
func (s *Service) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, taskID)
}
