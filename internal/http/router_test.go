package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/config"
	httpServer "github.com/tasknest/tasknest/internal/http"
	"github.com/tasknest/tasknest/internal/logging"
	"github.com/tasknest/tasknest/internal/memstore"
	"github.com/tasknest/tasknest/internal/task"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewLogger(true)

	pasetoService, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	authService := auth.NewService(
		memstore.NewUserRepository(),
		memstore.NewRefreshTokenRepository(),
		pasetoService,
		logger,
		15*time.Minute,
		7*24*time.Hour,
	)
	taskService := task.NewService(memstore.NewTaskRepository(), logger)

	authHandler := auth.NewHandler(authService, memstore.NopLimiter{}, logger)
	authMiddleware := auth.NewMiddleware(pasetoService)
	taskHandler := task.NewHandler(taskService, logger)

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "dev"},
	}

	return httpServer.NewRouter(cfg, authHandler, authMiddleware, taskHandler, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func registerAndLogin(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func TestAPI_FullScenario(t *testing.T) {
	router := newTestRouter(t)

	// Register
	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, rec, &registered)
	assert.Equal(t, "a@x.com", registered.User.Email)
	assert.NotEmpty(t, registered.User.ID)

	// Login
	rec = doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, registered.User.ID, login.User.ID)

	// Create a task
	rec = doJSON(t, router, http.MethodPost, "/tasks", login.AccessToken, map[string]string{
		"title": "buy milk",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created task.Task
	decodeBody(t, rec, &created)
	assert.Equal(t, "buy milk", created.Title)
	assert.False(t, created.Completed)

	// List contains the task
	rec = doJSON(t, router, http.MethodGet, "/tasks", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []task.Task
	decodeBody(t, rec, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)

	// Wrong password
	rec = doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_DuplicateRegistration(t *testing.T) {
	router := newTestRouter(t)

	body := map[string]string{"email": "a@x.com", "password": "password1"}

	rec := doJSON(t, router, http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_TasksRequireAuthentication(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/tasks", "", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/tasks", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_CrossUserAccessIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	aliceToken := registerAndLogin(t, router, "alice@x.com", "password1")
	bobToken := registerAndLogin(t, router, "bob@x.com", "password2")

	rec := doJSON(t, router, http.MethodPost, "/tasks", aliceToken, map[string]string{
		"title": "alice's secret task",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created task.Task
	decodeBody(t, rec, &created)

	taskPath := "/tasks/" + created.ID.String()

	// Bob sees not-found everywhere, never the task's data
	rec = doJSON(t, router, http.MethodGet, taskPath, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = doJSON(t, router, http.MethodPut, taskPath, bobToken, map[string]string{"title": "hijacked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, taskPath, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Bob's list stays empty
	rec = doJSON(t, router, http.MethodGet, "/tasks", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bobTasks []task.Task
	decodeBody(t, rec, &bobTasks)
	assert.Empty(t, bobTasks)

	// Alice still owns the intact task
	rec = doJSON(t, router, http.MethodGet, taskPath, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_TaskValidation(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "a@x.com", "password1")

	rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_TaskUpdateAndFilter(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "a@x.com", "password1")

	rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": "first"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first task.Task
	decodeBody(t, rec, &first)

	rec = doJSON(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": "second"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var second task.Task
	decodeBody(t, rec, &second)

	// Complete the first task
	rec = doJSON(t, router, http.MethodPut, "/tasks/"+first.ID.String(), token, map[string]any{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated task.Task
	decodeBody(t, rec, &updated)
	assert.True(t, updated.Completed)
	assert.Equal(t, "first", updated.Title)

	// Filter by completion
	rec = doJSON(t, router, http.MethodGet, "/tasks?completed=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed []task.Task
	decodeBody(t, rec, &completed)
	require.Len(t, completed, 1)
	assert.Equal(t, first.ID, completed[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/tasks?completed=false", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var open []task.Task
	decodeBody(t, rec, &open)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	// Bad filter value
	rec = doJSON(t, router, http.MethodGet, "/tasks?completed=banana", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete the second task
	rec = doJSON(t, router, http.MethodDelete, "/tasks/"+second.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/tasks/"+second.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RefreshAndLogout(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &login)

	rec = doJSON(t, router, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The rotated-out token no longer works
	rec = doJSON(t, router, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout revokes the current refresh token
	rec = doJSON(t, router, http.MethodPost, "/logout", "", map[string]string{
		"refresh_token": refreshed.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": refreshed.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_LogoutAllEndsEverySession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	login := func() (string, string) {
		rec := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
			"email": "a@x.com", "password": "password1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		decodeBody(t, rec, &body)
		return body.AccessToken, body.RefreshToken
	}

	// Two independent sessions
	accessToken, firstRefresh := login()
	_, secondRefresh := login()

	// Requires authentication
	rec = doJSON(t, router, http.MethodPost, "/logout-all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/logout-all", accessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Neither session's refresh token works anymore
	rec = doJSON(t, router, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": firstRefresh,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": secondRefresh,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_MalformedTaskIDIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "a@x.com", "password1")

	rec := doJSON(t, router, http.MethodGet, "/tasks/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
