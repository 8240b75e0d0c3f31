package task_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/logging"
	"github.com/tasknest/tasknest/internal/memstore"
	"github.com/tasknest/tasknest/internal/task"
)

func newTestService() *task.Service {
	return task.NewService(memstore.NewTaskRepository(), logging.NewLogger(true))
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestService_CreateValidatesTitle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name  string
		title string
	}{
		{"empty", ""},
		{"spaces only", "   "},
		{"tabs and newlines", "\t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tt.title, "")
			assert.ErrorIs(t, err, task.ErrTitleRequired)
		})
	}
}

func TestService_CreateTrimsTitleAndSetsDefaults(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, "  buy milk  ", "2 liters")
	require.NoError(t, err)

	assert.Equal(t, "buy milk", created.Title)
	assert.Equal(t, "2 liters", created.Description)
	assert.False(t, created.Completed)
	assert.Equal(t, owner, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
}

func TestService_CreateThenGetRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, "buy milk", "2 liters")
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestService_ListOrdersMostRecentFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	first, err := svc.Create(ctx, owner, "first", "")
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner, "second", "")
	require.NoError(t, err)

	tasks, err := svc.List(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestService_ListFiltersByCompletion(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	open, err := svc.Create(ctx, owner, "open", "")
	require.NoError(t, err)
	done, err := svc.Create(ctx, owner, "done", "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, done.ID, task.UpdateFields{Completed: boolPtr(true)})
	require.NoError(t, err)

	completedOnly, err := svc.List(ctx, owner, boolPtr(true))
	require.NoError(t, err)
	require.Len(t, completedOnly, 1)
	assert.Equal(t, done.ID, completedOnly[0].ID)

	openOnly, err := svc.List(ctx, owner, boolPtr(false))
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	assert.Equal(t, open.ID, openOnly[0].ID)
}

func TestService_OwnershipIsBlind(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	created, err := svc.Create(ctx, alice, "alice's task", "")
	require.NoError(t, err)

	// Bob can neither see, change nor delete Alice's task, and gets the
	// same not-found as for a task that does not exist at all.
	_, err = svc.Get(ctx, bob, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = svc.Update(ctx, bob, created.ID, task.UpdateFields{Title: strPtr("hijacked")})
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = svc.Delete(ctx, bob, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = svc.Get(ctx, bob, uuid.New())
	assert.ErrorIs(t, err, task.ErrNotFound)

	// Alice's task is untouched
	got, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice's task", got.Title)

	bobTasks, err := svc.List(ctx, bob, nil)
	require.NoError(t, err)
	assert.Empty(t, bobTasks)
}

func TestService_UpdateValidatesTitle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, "original", "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, created.ID, task.UpdateFields{Title: strPtr("   ")})
	assert.ErrorIs(t, err, task.ErrTitleRequired)

	// Untouched after the failed update
	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestService_UpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, "title", "description")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, created.ID, task.UpdateFields{Completed: boolPtr(true)})
	require.NoError(t, err)

	assert.Equal(t, "title", updated.Title)
	assert.Equal(t, "description", updated.Description)
	assert.True(t, updated.Completed)
	assert.Equal(t, created.UserID, updated.UserID)
}

func TestService_Delete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, "to delete", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))

	_, err = svc.Get(ctx, owner, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = svc.Delete(ctx, owner, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}
