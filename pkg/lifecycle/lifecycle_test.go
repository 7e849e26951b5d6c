package lifecycle

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

type fakeDiagnostics struct {
	events []types.TroubleshootingEntry
}

func (f *fakeDiagnostics) WriteEvent(e types.TroubleshootingEntry) error {
	f.events = append(f.events, e)
	return nil
}
func (f *fakeDiagnostics) Analyze(appID string) (*types.Recommendation, error) { return nil, nil }
func (f *fakeDiagnostics) MaybeAutoTodo(rec *types.Recommendation) error       { return nil }

func newTestManager(t *testing.T) (*Manager, *fakeDiagnostics) {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Load())
	diag := &fakeDiagnostics{}
	m := NewManager(process.NewTable(), store, portbroker.New(store), healthprobe.New(), diag)
	return m, diag
}

func freeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// scriptDir writes a tiny shell script app directory so Start's path
// check passes without a real Node project.
func scriptDir(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return dir
}

func TestStartSyncProcessHasNoPort(t *testing.T) {
	m, _ := newTestManager(t)
	dir := scriptDir(t, "#!/bin/sh\nsleep 1\n")
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, ScheduleCommand: "sh run.sh"}

	result, qerr := m.Start(context.Background(), StartRequest{App: app, Sync: true, Scheduled: true})
	require.Nil(t, qerr)
	assert.Equal(t, types.StatusStarting, result.Status)
	assert.Equal(t, process.Key("demo", true), result.Key)

	_ = m.Stop("demo", true)
}

func TestStartRejectsAlreadyRunning(t *testing.T) {
	m, _ := newTestManager(t)
	dir := scriptDir(t, "#!/bin/sh\nsleep 5\n")
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh", StartupTimeoutMS: 100}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.Nil(t, qerr)

	_, qerr2 := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr2)
	assert.Contains(t, qerr2.Message, "already")

	_ = m.Stop("demo", false)
}

func TestStartMissingPathFails(t *testing.T) {
	m, _ := newTestManager(t)
	app := types.AppConfig{ID: "demo", Name: "demo", Path: "/no/such/path", Command: "sh run.sh"}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr)
	assert.Equal(t, "QL-PATH-001", qerr.Code)
}

func TestStartMissingManifestFails(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "npm start"}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr)
	assert.Equal(t, "QL-NPM-001", qerr.Code)
}

func TestStartMissingDependenciesFails(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "npm start"}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr)
	assert.Equal(t, "QL-MOD-001", qerr.Code)
}

func TestStartPortInUseReportsOccupant(t *testing.T) {
	m, _ := newTestManager(t)
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	dir := scriptDir(t, "#!/bin/sh\nsleep 1\n")
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh", Port: port}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr)
	assert.Equal(t, "QL-PORT-001", qerr.Code)
}

func TestImmediateCrashReportsStartupCrash(t *testing.T) {
	m, _ := newTestManager(t)
	dir := scriptDir(t, "#!/bin/sh\nexit 7\n")
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh"}

	result, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr)
	assert.Equal(t, "QL-ERR-001", qerr.Code)
	assert.Equal(t, qlerr.KindImmediateCrash, qerr.Kind)
	assert.NotEmpty(t, result.Logs, "immediate-crash result carries recent output")

	entry, ok := m.table.Get(process.Key("demo", false))
	require.True(t, ok)
	assert.Equal(t, types.StatusFailed, entry.Status)
	assert.Equal(t, 7, entry.ExitCode)
}

func TestImmediateCrashClassifiesKnownMarker(t *testing.T) {
	m, _ := newTestManager(t)
	dir := scriptDir(t, "#!/bin/sh\necho 'Error: listen EADDRINUSE: address already in use' >&2\nexit 1\n")
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh"}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.NotNil(t, qerr)
	assert.Contains(t, qerr.Message, "EADDRINUSE")
}

func TestStopRemovesEntryBeforeKillCompletes(t *testing.T) {
	m, _ := newTestManager(t)
	dir := scriptDir(t, "#!/bin/sh\nsleep 6\n")
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir, Command: "sh run.sh"}

	_, qerr := m.Start(context.Background(), StartRequest{App: app})
	require.Nil(t, qerr)

	require.NoError(t, m.Stop("demo", false))
	_, ok := m.table.Get(process.Key("demo", false))
	assert.False(t, ok, "stop removes the entry immediately, before the kill completes")
}

func TestExitObserverWinsRaceAgainstHealthPoll(t *testing.T) {
	entry := &types.ProcessEntry{Key: "demo", AppID: "demo", Status: types.StatusStarting, StartTime: time.Now()}
	table := process.NewTable()
	table.Insert(entry)

	m := &Manager{table: table, diag: &fakeDiagnostics{}}
	m.handleExit(entry, 1, 50*time.Millisecond)

	ok := table.CompareAndSwapStatus("demo", types.StatusStarting, types.StatusRunning)
	assert.False(t, ok, "a failed entry must never transition back to running")

	e, _ := table.Get("demo")
	assert.Equal(t, types.StatusFailed, e.Status)
}

func TestDetectExternalProbesRealHTTPServer(t *testing.T) {
	m, _ := newTestManager(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	addr := srv.Listener.Addr().(*net.TCPAddr)
	app := &types.AppConfig{ID: "external-app", Port: addr.Port}
	assert.True(t, m.DetectExternal(app))
}

func TestDetectExternalFalseWhenTracked(t *testing.T) {
	m, _ := newTestManager(t)
	port := freeTCPPort(t)
	key := process.Key("demo", false)
	m.table.Insert(&types.ProcessEntry{Key: key, AppID: "demo", Status: types.StatusRunning, Port: port})

	app := &types.AppConfig{ID: "demo", Port: port}
	assert.False(t, m.DetectExternal(app))
}

func TestCheckDependenciesReportsMissingInstall(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yarn.lock"), []byte(""), 0o644))
	app := types.AppConfig{ID: "demo", Path: dir, Command: "npm start"}

	needsInstall, hasManifest, manager := m.CheckDependencies(app)
	assert.True(t, needsInstall)
	assert.True(t, hasManifest)
	assert.Equal(t, "yarn", manager)
}

func TestCheckDependenciesNoManifestNoInstall(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	app := types.AppConfig{ID: "demo", Path: dir, Command: "sh run.sh"}

	needsInstall, hasManifest, _ := m.CheckDependencies(app)
	assert.False(t, needsInstall)
	assert.False(t, hasManifest)
}

func TestStartInstallTracksCompletion(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir}

	key, qerr := m.StartInstall(app, "true")
	require.Nil(t, qerr)
	assert.Equal(t, "demo:install", key)

	require.Eventually(t, func() bool {
		e, ok := m.InstallStatus("demo")
		return ok && e.Status.IsTerminal()
	}, 2*time.Second, 20*time.Millisecond)

	e, ok := m.InstallStatus("demo")
	require.True(t, ok)
	assert.Equal(t, types.StatusCompleted, e.Status)
}

func TestStartInstallRejectsConcurrentRun(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\nsleep 2\n"), 0o755))
	app := types.AppConfig{ID: "demo", Name: "demo", Path: dir}

	_, qerr := m.StartInstall(app, scriptPath)
	require.Nil(t, qerr)

	_, qerr2 := m.StartInstall(app, scriptPath)
	require.NotNil(t, qerr2)
	assert.Contains(t, qerr2.Message, "already")
}
