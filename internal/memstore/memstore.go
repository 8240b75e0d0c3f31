// Package memstore provides in-memory implementations of the storage
// interfaces. They mirror the semantics of the Postgres and Redis
// repositories (case-insensitive email uniqueness, ownership-blind
// lookups, revocable refresh tokens) and back the test suites.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/task"
	"github.com/tasknest/tasknest/internal/user"
)

// UserRepository is an in-memory auth.UserRepository.
type UserRepository struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byEmail: make(map[string]*user.User)}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := r.byEmail[key]; exists {
		return nil, user.ErrDuplicateEmail
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        key,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byEmail[key] = u

	copied := *u
	return &copied, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byEmail {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

// RefreshTokenRepository is an in-memory auth.RefreshTokenRepository.
type RefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{tokens: make(map[string]*auth.RefreshToken)}
}

func (r *RefreshTokenRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = &auth.RefreshToken{
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *RefreshTokenRepository) GetRefreshToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, auth.ErrRefreshTokenNotFound
	}
	if rt.IsRevoked() {
		return nil, auth.ErrRefreshTokenRevoked
	}
	if rt.IsExpired() {
		return nil, auth.ErrRefreshTokenExpired
	}
	copied := *rt
	return &copied, nil
}

func (r *RefreshTokenRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return auth.ErrRefreshTokenNotFound
	}
	now := time.Now()
	rt.RevokedAt = &now
	return nil
}

func (r *RefreshTokenRepository) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, rt := range r.tokens {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}
	return nil
}

// TaskRepository is an in-memory task.Repository.
type TaskRepository struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*task.Task
	clock int64 // monotonic creation counter to keep ordering stable
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{byID: make(map[uuid.UUID]*task.Task)}
}

func (r *TaskRepository) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock++
	now := time.Now().Add(time.Duration(r.clock)) // strictly increasing
	t := &task.Task{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.byID[t.ID] = t

	copied := *t
	return &copied, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, completed *bool) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]task.Task, 0)
	for _, t := range r.byID {
		if t.UserID != ownerID {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		tasks = append(tasks, *t)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (r *TaskRepository) GetByOwner(ctx context.Context, ownerID, taskID uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[taskID]
	if !ok || t.UserID != ownerID {
		return nil, task.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *TaskRepository) Update(ctx context.Context, ownerID, taskID uuid.UUID, fields task.UpdateFields) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[taskID]
	if !ok || t.UserID != ownerID {
		return nil, task.ErrNotFound
	}

	if fields.Title != nil {
		t.Title = *fields.Title
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.Completed != nil {
		t.Completed = *fields.Completed
	}
	t.UpdatedAt = time.Now()

	copied := *t
	return &copied, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[taskID]
	if !ok || t.UserID != ownerID {
		return task.ErrNotFound
	}
	delete(r.byID, taskID)
	return nil
}

// NopLimiter is an auth.RateLimiter that always allows.
type NopLimiter struct{}

func (NopLimiter) Allow(ctx context.Context, purpose, ip string) (bool, error) {
	return true, nil
}
