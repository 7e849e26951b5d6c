package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/lifecycle"
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/state"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

type noopDiagnostics struct{}

func (noopDiagnostics) WriteEvent(types.TroubleshootingEntry) error   { return nil }
func (noopDiagnostics) Analyze(string) (*types.Recommendation, error) { return nil, nil }
func (noopDiagnostics) MaybeAutoTodo(*types.Recommendation) error     { return nil }

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Load())
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	mgr := lifecycle.NewManager(process.NewTable(), store, portbroker.New(store), healthprobe.New(), noopDiagnostics{})
	return New(store, st, mgr)
}

func TestRunNowRejectsDisabledSchedule(t *testing.T) {
	s := newTestScheduler(t)
	app := &types.AppConfig{ID: "demo", ScheduleEnabled: false, Schedule: "02:30", Command: "sh run.sh"}
	qerr := s.RunNow(app)
	require.NotNil(t, qerr)
	assert.Contains(t, qerr.Message, "not enabled")
}

func TestRunNowExecutesAndRecordsState(t *testing.T) {
	s := newTestScheduler(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\nexit 0\n"), 0o755))

	app := &types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh", ScheduleEnabled: true, Schedule: "02:30"}
	qerr := s.RunNow(app)
	require.Nil(t, qerr)

	require.Eventually(t, func() bool {
		st, ok, err := s.state.Get("demo")
		return err == nil && ok && st.WasManual
	}, 3*time.Second, 50*time.Millisecond)
}

func TestReconcileInstallsAndRemovesJob(t *testing.T) {
	s := newTestScheduler(t)
	app := &types.AppConfig{ID: "demo", Schedule: "02:30", ScheduleEnabled: true, Command: "sh run.sh"}

	require.NoError(t, s.Reconcile(app))
	s.mu.Lock()
	_, installed := s.entries["demo"]
	s.mu.Unlock()
	assert.True(t, installed)

	app.ScheduleEnabled = false
	require.NoError(t, s.Reconcile(app))
	s.mu.Lock()
	_, stillInstalled := s.entries["demo"]
	s.mu.Unlock()
	assert.False(t, stillInstalled)
}
