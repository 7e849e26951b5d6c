package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// normalExitCodes are exit codes that indicate a clean shutdown and
// never trigger auto-restart: 0 (clean), 0xC000013A (Windows Ctrl-C),
// 0x40010004 (Windows system logoff/shutdown).
var normalExitCodes = map[int]bool{
	0:          true,
	0xC000013A: true,
	0x40010004: true,
}

// IsNormalExit reports whether code is in the normal-exit set.
func IsNormalExit(code int) bool {
	return normalExitCodes[code]
}

// Manager is the LifecycleManager.
type Manager struct {
	table  *process.Table
	store  *config.Store
	broker *portbroker.Broker
	prober *healthprobe.Prober
	diag   Diagnostics

	detectors []PackageManagerDetector

	log zerolog.Logger

	restartMu       sync.Mutex
	restartTrackers map[string]*types.RestartTracker

	historyMu sync.Mutex
	history   map[string]*types.StartupHistory

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// NewManager wires a LifecycleManager over its collaborators.
func NewManager(table *process.Table, store *config.Store, broker *portbroker.Broker, prober *healthprobe.Prober, diag Diagnostics) *Manager {
	return &Manager{
		table:           table,
		store:           store,
		broker:          broker,
		prober:          prober,
		diag:            diag,
		detectors:       DefaultPackageManagerDetectors,
		log:             log.WithComponent("lifecycle"),
		restartTrackers: map[string]*types.RestartTracker{},
		history:         map[string]*types.StartupHistory{},
		cancels:         map[string]context.CancelFunc{},
	}
}

func (m *Manager) recordHistory(appID string, attempt types.StartupAttempt) {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	h, ok := m.history[appID]
	if !ok {
		h = &types.StartupHistory{}
		m.history[appID] = h
	}
	h.Attempts = append(h.Attempts, attempt)
	if len(h.Attempts) > 20 {
		h.Attempts = h.Attempts[len(h.Attempts)-20:]
	}
}

// History returns the bounded startup attempt history for an app.
func (m *Manager) History(appID string) types.StartupHistory {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	h, ok := m.history[appID]
	if !ok {
		return types.StartupHistory{}
	}
	cp := *h
	return cp
}

func (m *Manager) setCancel(key string, cancel context.CancelFunc) {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	m.cancels[key] = cancel
}

func (m *Manager) popCancel(key string) (context.CancelFunc, bool) {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	cancel, ok := m.cancels[key]
	delete(m.cancels, key)
	return cancel, ok
}

// Entry returns the live table entry for a composite key, used by
// pkg/schedule to watch a scheduled run to completion and by pkg/rpc to
// serve status queries.
func (m *Manager) Entry(key string) (*types.ProcessEntry, bool) {
	return m.table.Get(key)
}

// Entries returns a snapshot of every tracked process entry.
func (m *Manager) Entries() []*types.ProcessEntry {
	return m.table.List()
}

// RecentLogs returns up to n of the most recent log lines for a
// composite key.
func (m *Manager) RecentLogs(key string, n int) []types.LogLine {
	return m.table.RecentLogs(key, n)
}

// ReapSyncEntries removes sync-run table entries (scheduled or
// manually-triggered syncs, never an app's long-running server) that
// reached a terminal status more than maxAge ago. A sync entry lingers
// after its run so pkg/rpc can report its exit code and logs for a
// while; the entry reaper is what eventually lets it go (spec's
// "removed on explicit stop or when a completed/failed sync entry ages
// out").
func (m *Manager) ReapSyncEntries(maxAge time.Duration) int {
	now := time.Now()
	reaped := 0
	for _, e := range m.table.List() {
		if !e.IsSyncProcess || !e.Status.IsTerminal() {
			continue
		}
		if e.FinishedAt.IsZero() || now.Sub(e.FinishedAt) < maxAge {
			continue
		}
		m.table.Remove(e.Key)
		reaped++
	}
	return reaped
}

func (m *Manager) writeEvent(level, app, message string, details map[string]any, normalTermination bool) {
	if m.diag == nil {
		return
	}
	_ = m.diag.WriteEvent(types.TroubleshootingEntry{
		Timestamp:         time.Now(),
		Level:             level,
		App:               app,
		Message:           message,
		Details:           details,
		NormalTermination: normalTermination,
	})
}
