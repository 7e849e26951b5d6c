package portbroker

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	s := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, s.Load())
	return New(s)
}

func TestCheckReservedPortUnavailable(t *testing.T) {
	b := newTestBroker(t)
	result := b.Check(8000, "")
	assert.False(t, result.RegistryAvailable)
	assert.Equal(t, ReasonReserved, result.RegistryReason)
	assert.False(t, result.Available)
}

func TestCheckFreePortAvailable(t *testing.T) {
	b := newTestBroker(t)
	result := b.Check(59123, "")
	assert.True(t, result.RegistryAvailable)
	assert.True(t, result.Available)
}

func TestCheckDetectsSystemOccupancy(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	b := newTestBroker(t)
	result := b.Check(port, "")
	assert.True(t, result.SystemInUse)
	assert.False(t, result.Available)
}

func TestSuggestSkipsReservedAndAssignedPorts(t *testing.T) {
	b := newTestBroker(t)
	require.NoError(t, b.store.AddApp(&types.AppConfig{Name: "a", Path: "/tmp/a", Port: 5174}))

	got := b.Suggest(5174)
	assert.Equal(t, 5175, got)
}

func TestSuggestDefaultsBasePort(t *testing.T) {
	b := newTestBroker(t)
	got := b.Suggest(0)
	assert.GreaterOrEqual(t, got, 5174)
}
