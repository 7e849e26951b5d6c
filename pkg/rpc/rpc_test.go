package rpc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/diagnostics"
	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/lifecycle"
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/schedule"
	"github.com/quicklaunch/quicklaunch/pkg/state"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

type fakeDiagnostics struct{}

func (fakeDiagnostics) WriteEvent(types.TroubleshootingEntry) error    { return nil }
func (fakeDiagnostics) Analyze(string) (*types.Recommendation, error)  { return nil, nil }
func (fakeDiagnostics) MaybeAutoTodo(*types.Recommendation) error      { return nil }

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Load())

	mgr := lifecycle.NewManager(process.NewTable(), store, portbroker.New(store), healthprobe.New(), fakeDiagnostics{})
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	sched := schedule.New(store, st, mgr)
	diag := diagnostics.New(t.TempDir())

	return New(mgr, portbroker.New(store), store, sched, diag)
}

func TestAddAppSuccess(t *testing.T) {
	h := newTestHandlers(t)
	app, qerr := h.AddApp(types.AppConfig{ID: "demo", Name: "Demo", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	require.Nil(t, qerr)
	assert.Equal(t, "demo", app.ID)

	apps, qerr := h.ListApps()
	require.Nil(t, qerr)
	assert.Len(t, apps.Apps, 1)
}

func TestAddAppPortConflictCarriesSuggestedPort(t *testing.T) {
	h := newTestHandlers(t)
	_, qerr := h.AddApp(types.AppConfig{ID: "first", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	require.Nil(t, qerr)

	_, qerr = h.AddApp(types.AppConfig{ID: "second", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	require.NotNil(t, qerr)
	assert.Equal(t, qlerr.KindPortInUse, qerr.Kind)
	suggested, ok := qerr.Details["suggestedPort"].(int)
	require.True(t, ok)
	assert.NotEqual(t, 4100, suggested)
}

func TestUpdateAppPartialPatchOnlyTouchesSuppliedFields(t *testing.T) {
	h := newTestHandlers(t)
	_, qerr := h.AddApp(types.AppConfig{ID: "demo", Name: "Demo", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	require.Nil(t, qerr)

	newName := "Renamed"
	updated, qerr := h.UpdateApp("demo", AppPatch{Name: &newName})
	require.Nil(t, qerr)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 4100, updated.Port)
}

func TestRemoveApp(t *testing.T) {
	h := newTestHandlers(t)
	_, qerr := h.AddApp(types.AppConfig{ID: "demo", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	require.Nil(t, qerr)

	require.Nil(t, h.RemoveApp("demo"))
	apps, qerr := h.ListApps()
	require.Nil(t, qerr)
	assert.Empty(t, apps.Apps)
}

func TestMigrateAppsIsBestEffort(t *testing.T) {
	h := newTestHandlers(t)
	_, qerr := h.AddApp(types.AppConfig{ID: "existing", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	require.Nil(t, qerr)

	resp, qerr := h.MigrateApps([]types.AppConfig{
		{ID: "existing", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"},
		{ID: "fresh", Port: 4200, Path: t.TempDir(), Command: "sh run.sh"},
	})
	require.Nil(t, qerr)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "skipped", resp.Results[0].Status)
	assert.Equal(t, "imported", resp.Results[1].Status)
}

func TestCheckDepsAndInstallRoundTrip(t *testing.T) {
	h := newTestHandlers(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"demo"}`), 0o644))
	_, qerr := h.AddApp(types.AppConfig{ID: "demo", Path: dir, Command: "node index.js"})
	require.Nil(t, qerr)

	deps, qerr := h.CheckDeps("demo")
	require.Nil(t, qerr)
	assert.True(t, deps.NeedsInstall)
	assert.True(t, deps.HasPackageJSON)
}

func TestStartAndStop(t *testing.T) {
	h := newTestHandlers(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\nsleep 30\n"), 0o755))

	resp, qerr := h.Start(context.Background(), StartAppRequest{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh"})
	require.Nil(t, qerr)
	require.NotNil(t, resp)
	assert.Equal(t, "demo", resp.Key)

	require.Nil(t, h.Stop("demo"))
}

func TestStartFailureStillReturnsAnalysis(t *testing.T) {
	h := newTestHandlers(t)
	resp, qerr := h.Start(context.Background(), StartAppRequest{ID: "missing", Name: "missing", Path: "/does/not/exist", Command: "sh run.sh"})
	require.NotNil(t, qerr)
	_ = resp // may be nil or partially populated depending on how far Start got
}

func TestTodosAndTriageEndToEnd(t *testing.T) {
	dir := t.TempDir()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Load())
	mgr := lifecycle.NewManager(process.NewTable(), store, portbroker.New(store), healthprobe.New(), fakeDiagnostics{})
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	diag := diagnostics.New(dir)
	h := New(mgr, portbroker.New(store), store, schedule.New(store, st, mgr), diag)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "TODO.md"), []byte("## High\n\n- [ ] fix the flaky thing\n"), 0o644))

	todos, qerr := h.Todos()
	require.Nil(t, qerr)
	require.Equal(t, 1, todos.Count)
	assert.Equal(t, "fix the flaky thing", todos.Items[0])
	assert.Equal(t, "High", todos.ItemsWithPriority[0].Section)

	counts, qerr := h.Triage([]TriageItem{{Text: "fix the flaky thing", Action: diagnostics.ActionParking}})
	require.Nil(t, qerr)
	assert.Equal(t, 1, counts.Parking)

	remaining, qerr := h.Todos()
	require.Nil(t, qerr)
	assert.Equal(t, 0, remaining.Count)
}

func TestListAndRecordResolutions(t *testing.T) {
	dir := t.TempDir()
	diag := diagnostics.New(dir)
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Load())
	mgr := lifecycle.NewManager(process.NewTable(), store, portbroker.New(store), healthprobe.New(), fakeDiagnostics{})
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	h := New(mgr, portbroker.New(store), store, schedule.New(store, st, mgr), diag)

	resp, qerr := h.RecordResolution(types.ResolutionRecord{
		App: "demo", Issue: "port conflict", ErrorType: types.PatternPortInUse,
		Disposition: types.DispositionResolved,
	})
	require.Nil(t, qerr)
	assert.False(t, resp.TodoRemoved)

	records, qerr := h.ListResolutions()
	require.Nil(t, qerr)
	require.Len(t, records, 1)
	assert.Equal(t, "demo", records[0].App)
}

func TestIconRejectsDisallowedExtension(t *testing.T) {
	h := newTestHandlers(t)
	_, qerr := h.Icon("/tmp/evil.conf")
	require.NotNil(t, qerr)
}

func TestIconServesWhitelistedFile(t *testing.T) {
	h := newTestHandlers(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "icon.png")
	require.NoError(t, os.WriteFile(path, []byte("fake-png-bytes"), 0o644))

	resp, qerr := h.Icon(path)
	require.Nil(t, qerr)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, []byte("fake-png-bytes"), resp.Data)
}
