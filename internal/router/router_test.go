package router

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/auraplan/api/handler"
	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/app"
	"github.com/fastygo/auraplan/internal/config"
	"github.com/fastygo/auraplan/pkg/httpcontext"
)

func newTestRouter(t *testing.T) fasthttp.RequestHandler {
	t.Helper()
	cfg := &config.Config{
		Local:   config.LocalConfig{Path: filepath.Join(t.TempDir(), "auraplan.db"), Timezone: "UTC"},
		Remote:  config.RemoteConfig{Driver: "memory"},
		Redis:   config.RedisConfig{SessionTTL: time.Hour},
		Sync:    config.SyncConfig{MergePolicy: domain.MergeNewest, FailurePolicy: domain.FailFast},
		Context: config.ContextConfig{ShutdownTimeout: 5 * time.Second},
	}
	planner, err := app.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = planner.Shutdown(context.Background()) })

	adapter := httpcontext.NewAdapter(time.Second)
	r := New(Handlers{
		Auth:      apiHandler.NewAuthHandler(planner.Auth, nil, adapter, nil, time.Hour),
		Task:      apiHandler.NewTaskHandler(planner.TaskUC, adapter, nil),
		Goal:      apiHandler.NewGoalHandler(planner.GoalUC, adapter, nil),
		Reminder:  apiHandler.NewReminderHandler(planner.Reminders, adapter, nil),
		Settings:  apiHandler.NewSettingsHandler(planner.Settings, adapter, nil),
		Analytics: apiHandler.NewAnalyticsHandler(planner.Analytics, adapter, nil),
		Sync:      apiHandler.NewSyncHandler(planner.Sync, planner.Store, planner.Monitor.IsOnline, adapter, nil),
		Health:    apiHandler.NewHealthHandler(planner.Monitor, adapter, nil),
	})
	return r.Handler
}

func do(h fasthttp.RequestHandler, method, uri, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	h(ctx)
	return ctx
}

func decodeData(t *testing.T, ctx *fasthttp.RequestCtx, dst interface{}) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	require.Equal(t, "success", env.Status, string(ctx.Response.Body()))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	ctx := do(h, http.MethodPost, "/api/v1/tasks",
		`{"title":"Essay","due_date":"2099-01-01","due_time":"09:00","reminder_minutes":30}`)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var created domain.Task
	decodeData(t, ctx, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, domain.DefaultCategory, created.Category)

	ctx = do(h, http.MethodGet, "/api/v1/reminders", "")
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var reminders []domain.Reminder
	decodeData(t, ctx, &reminders)
	require.Len(t, reminders, 1)
	assert.Equal(t, created.ID, reminders[0].TaskID)

	ctx = do(h, http.MethodPost, "/api/v1/tasks/"+created.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var toggled domain.Task
	decodeData(t, ctx, &toggled)
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)

	ctx = do(h, http.MethodGet, "/api/v1/tasks?status=completed", "")
	var completed []domain.Task
	decodeData(t, ctx, &completed)
	assert.Len(t, completed, 1)

	ctx = do(h, http.MethodDelete, "/api/v1/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
	ctx = do(h, http.MethodGet, "/api/v1/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
}

func TestValidationAndMalformedBodies(t *testing.T) {
	h := newTestRouter(t)

	ctx := do(h, http.MethodPost, "/api/v1/goals", `{"title":"Read","target_value":0}`)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(h, http.MethodPost, "/api/v1/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(h, http.MethodGet, "/api/v1/tasks?status=someday", "")
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(h, http.MethodPost, "/api/v1/import", `not json`)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestGoalValuesAreWholeNumbers(t *testing.T) {
	h := newTestRouter(t)

	ctx := do(h, http.MethodPost, "/api/v1/goals", `{"title":"Read","target_value":2.5}`)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(h, http.MethodPost, "/api/v1/goals", `{"title":"   ","target_value":10}`)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(h, http.MethodPost, "/api/v1/goals", `{"title":"Read","target_value":10}`)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var goal domain.Goal
	decodeData(t, ctx, &goal)

	ctx = do(h, http.MethodPost, "/api/v1/goals/"+goal.ID+"/progress", `{"value":2.5}`)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(h, http.MethodPost, "/api/v1/goals/"+goal.ID+"/progress", `{"value":4}`)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	decodeData(t, ctx, &goal)
	assert.Equal(t, 4, goal.CurrentValue)
	assert.False(t, goal.Completed)
}

func TestExportAndSyncEndpoints(t *testing.T) {
	h := newTestRouter(t)

	ctx := do(h, http.MethodPost, "/api/v1/goals", `{"title":"Read","target_value":100,"unit":"pages"}`)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	ctx = do(h, http.MethodGet, "/api/v1/export", "")
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.True(t, strings.HasPrefix(string(ctx.Response.Header.Peek("Content-Disposition")), `attachment; filename="auraplan-analytics-`))
	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &snapshot))
	assert.Len(t, snapshot.Goals, 1)

	ctx = do(h, http.MethodPost, "/api/v1/sync", "")
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var result domain.SyncResult
	decodeData(t, ctx, &result)
	assert.Equal(t, "no_identity", result.Skipped)

	ctx = do(h, http.MethodGet, "/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var status struct {
		PendingSync bool `json:"pending_sync"`
		InProgress  bool `json:"in_progress"`
	}
	decodeData(t, ctx, &status)
	assert.True(t, status.PendingSync)
	assert.False(t, status.InProgress)
}
