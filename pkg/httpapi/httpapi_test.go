package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/schedule"
	"github.com/quicklaunch/quicklaunch/pkg/state"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

type fakeDiagnostics struct{}

func (fakeDiagnostics) WriteEvent(types.TroubleshootingEntry) error   { return nil }
func (fakeDiagnostics) Analyze(string) (*types.Recommendation, error) { return nil, nil }
func (fakeDiagnostics) MaybeAutoTodo(*types.Recommendation) error     { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Load())
	mgr := lifecycle.NewManager(process.NewTable(), store, portbroker.New(store), healthprobe.New(), fakeDiagnostics{})
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	sched := schedule.New(store, st, mgr)
	diag := diagnostics.New(t.TempDir())
	h := rpc.New(mgr, portbroker.New(store), store, sched, diag)

	srv := httptest.NewServer(Router(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAddAndListApps(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/apps", types.AppConfig{
		ID: "demo", Name: "Demo", Port: 4100, Path: t.TempDir(), Command: "sh run.sh",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp := doJSON(t, http.MethodGet, srv.URL+"/api/apps", nil)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	var apps rpc.AppsResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&apps))
	require.Len(t, apps.Apps, 1)
	assert.Equal(t, "demo", apps.Apps[0].ID)
}

func TestAddAppPortConflictReturns400WithSuggestedPort(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()

	first := doJSON(t, http.MethodPost, srv.URL+"/api/apps", types.AppConfig{ID: "first", Port: 4100, Path: dir, Command: "sh run.sh"})
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := doJSON(t, http.MethodPost, srv.URL+"/api/apps", types.AppConfig{ID: "second", Port: 4100, Path: dir, Command: "sh run.sh"})
	defer second.Body.Close()
	assert.Equal(t, http.StatusBadRequest, second.StatusCode)

	var body addAppErrorBody
	require.NoError(t, json.NewDecoder(second.Body).Decode(&body))
	assert.NotZero(t, body.SuggestedPort)
	assert.NotEqual(t, 4100, body.SuggestedPort)
}

func TestUpdateAndRemoveApp(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()

	add := doJSON(t, http.MethodPost, srv.URL+"/api/apps", types.AppConfig{ID: "demo", Name: "Demo", Port: 4100, Path: dir, Command: "sh run.sh"})
	add.Body.Close()
	require.Equal(t, http.StatusCreated, add.StatusCode)

	update := doJSON(t, http.MethodPut, srv.URL+"/api/apps/demo", rpc.AppPatch{Name: strPtr("Renamed")})
	defer update.Body.Close()
	require.Equal(t, http.StatusOK, update.StatusCode)
	var updated types.AppConfig
	require.NoError(t, json.NewDecoder(update.Body).Decode(&updated))
	assert.Equal(t, "Renamed", updated.Name)

	del := doJSON(t, http.MethodDelete, srv.URL+"/api/apps/demo", nil)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
}

func strPtr(s string) *string { return &s }

func TestPortsCheckAndReserve(t *testing.T) {
	srv := newTestServer(t)

	reserve := doJSON(t, http.MethodPost, srv.URL+"/api/ports/reserve", map[string]any{"port": 9500, "label": "carved out"})
	reserve.Body.Close()
	assert.Equal(t, http.StatusCreated, reserve.StatusCode)

	check := doJSON(t, http.MethodGet, srv.URL+"/api/ports/check/9500", nil)
	defer check.Body.Close()
	assert.Equal(t, http.StatusOK, check.StatusCode)

	unreserve := doJSON(t, http.MethodDelete, srv.URL+"/api/ports/reserve/9500", nil)
	unreserve.Body.Close()
	assert.Equal(t, http.StatusNoContent, unreserve.StatusCode)
}

func TestStatusEndpointReturnsConfiguredApps(t *testing.T) {
	srv := newTestServer(t)
	add := doJSON(t, http.MethodPost, srv.URL+"/api/apps", types.AppConfig{ID: "demo", Name: "Demo", Port: 4100, Path: t.TempDir(), Command: "sh run.sh"})
	add.Body.Close()
	require.Equal(t, http.StatusCreated, add.StatusCode)

	status := doJSON(t, http.MethodGet, srv.URL+"/api/status", nil)
	defer status.Body.Close()
	require.Equal(t, http.StatusOK, status.StatusCode)

	var entries map[string]rpc.StatusEntry
	require.NoError(t, json.NewDecoder(status.Body).Decode(&entries))
	entry, ok := entries["demo"]
	require.True(t, ok)
	assert.False(t, entry.Running)
}

func TestTodosEndpointRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/todos", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var todos rpc.TodosResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&todos))
	assert.Equal(t, 0, todos.Count)
}

func TestIconRejectsUnlistedExtension(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/icon?path=/etc/passwd", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
