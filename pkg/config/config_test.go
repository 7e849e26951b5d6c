package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklaunch/quicklaunch/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, s.Load())
	return s
}

func TestLoadCreatesDefaultDocumentWithSupervisorReservation(t *testing.T) {
	s := newTestStore(t)
	doc := s.Document()
	assert.Equal(t, "QuickLaunch supervisor", doc.ReservedPorts["8000"])
	assert.Empty(t, doc.Apps)
}

func TestAddAppAssignsIDAndDefaults(t *testing.T) {
	s := newTestStore(t)
	app := &types.AppConfig{Name: "web", Path: "/tmp/web", Command: "npm run dev", Port: 3000}
	require.NoError(t, s.AddApp(app))

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, 30000, app.StartupTimeoutMS)
	assert.Equal(t, 3, app.MaxRestartAttempts)
}

func TestAddAppRejectsReservedPort(t *testing.T) {
	s := newTestStore(t)
	app := &types.AppConfig{Name: "web", Path: "/tmp/web", Command: "npm run dev", Port: 8000}
	err := s.AddApp(app)
	require.Error(t, err)
}

func TestAddAppRejectsDuplicatePort(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddApp(&types.AppConfig{Name: "a", Path: "/tmp/a", Port: 3000}))
	err := s.AddApp(&types.AppConfig{Name: "b", Path: "/tmp/b", Port: 3000})
	require.Error(t, err)
}

func TestUpdateAppKeepsIDImmutable(t *testing.T) {
	s := newTestStore(t)
	app := &types.AppConfig{Name: "a", Path: "/tmp/a", Port: 3000}
	require.NoError(t, s.AddApp(app))

	updated, err := s.UpdateApp(app.ID, func(a *types.AppConfig) {
		a.ID = "hijacked"
		a.Name = "renamed"
	})
	require.NoError(t, err)
	assert.Equal(t, app.ID, updated.ID)
	assert.Equal(t, "renamed", updated.Name)
}

func TestUnreservePortRejectsSupervisorPort(t *testing.T) {
	s := newTestStore(t)
	err := s.UnreservePort(8000)
	require.Error(t, err)
}

func TestReloadPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s1 := NewStore(path)
	require.NoError(t, s1.Load())
	require.NoError(t, s1.AddApp(&types.AppConfig{Name: "a", Path: "/tmp/a", Port: 3000}))

	s2 := NewStore(path)
	require.NoError(t, s2.Load())
	assert.Len(t, s2.Document().Apps, 1)
}
