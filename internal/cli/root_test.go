package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/app"
	"github.com/fastygo/auraplan/internal/config"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"status", "export", "import", "sync", "signin", "reminders"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func offlineEnv(t *testing.T) {
	t.Setenv("REMOTE_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("NATS_URL", "")
	t.Setenv("NOTIFY_WS_PORT", "0")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("SYNC_MERGE_POLICY", "")
	t.Setenv("SYNC_FAILURE_POLICY", "")
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func seedStore(t *testing.T, path string) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Local.Path = path

	ctx := context.Background()
	planner, err := app.Build(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = planner.TaskUC.CreateTask(ctx, domain.Task{Title: "Read chapter 3"})
	require.NoError(t, err)
	_, err = planner.GoalUC.CreateGoal(ctx, domain.Goal{Title: "Finish the book", TargetValue: 300, Unit: "pages", TargetDate: "2030-01-01"})
	require.NoError(t, err)
	require.NoError(t, planner.Shutdown(ctx))
}

func TestExportImportRoundTrip(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	source := filepath.Join(dir, "source.db")
	target := filepath.Join(dir, "target.db")
	exportFile := filepath.Join(dir, "export.json")
	seedStore(t, source)

	execute(t, "export", "--store", source, "-o", exportFile)
	raw, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snapshot))
	require.Len(t, snapshot.Tasks, 1)
	require.Len(t, snapshot.Goals, 1)

	out := execute(t, "import", exportFile, "--store", target)
	assert.Contains(t, out, "Imported 1 task(s), 1 goal(s)")

	out = execute(t, "status", "--store", target, "--format", "json")
	var resp struct {
		Status string       `json:"status"`
		Data   StatusReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Summary.TotalTasks)
	assert.Equal(t, 1, resp.Data.Summary.TotalGoals)
	assert.True(t, resp.Data.Sync.PendingSync)
	assert.Nil(t, resp.Data.Identity)
}

func TestSyncWithoutIdentityIsSkipped(t *testing.T) {
	offlineEnv(t)
	store := filepath.Join(t.TempDir(), "planner.db")

	out := execute(t, "sync", "--store", store)
	assert.Contains(t, out, "Sync skipped: no_identity")

	execute(t, "signin", "alice", "--store", store)
	out = execute(t, "sync", "--store", store)
	assert.Contains(t, out, "Pushed 0")
}

func TestRejectsUnknownFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"status", "--format", "yaml"})
	cmd.SetOut(&bytes.Buffer{})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
