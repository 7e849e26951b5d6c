package lifecycle

import (
	"context"
	"time"

	"strings"

	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

const (
	restartDelay     = 2 * time.Second
	restartCooldown  = 5 * time.Minute
	restartStability = 60 * time.Second
)

// attemptRestart runs the bounded auto-restart policy: a cooldown blocks
// further attempts once the per-app budget is exhausted, and a
// stability timer resets the counter once a restarted process has run
// cleanly for restartStability.
func (m *Manager) attemptRestart(entry *types.ProcessEntry) {
	key := entry.Key
	maxAttempts := entry.Config.MaxRestartAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	m.restartMu.Lock()
	tracker, ok := m.restartTrackers[key]
	if !ok {
		tracker = &types.RestartTracker{}
		m.restartTrackers[key] = tracker
	}
	now := time.Now()
	if tracker.Attempts >= maxAttempts {
		if now.Before(tracker.CooldownUntil) {
			m.restartMu.Unlock()
			m.table.MarkExit(key, types.StatusFailed, entry.ExitCode, types.ExitRuntimeCrash)
			m.writeEvent("ERROR", entry.AppID, "auto-restart exhausted, cooling down", map[string]any{"attempts": tracker.Attempts}, false)
			return
		}
		tracker.Attempts = 0
	}
	tracker.Attempts++
	tracker.LastAttempt = now
	exhausted := tracker.Attempts >= maxAttempts
	if exhausted {
		tracker.CooldownUntil = now.Add(restartCooldown)
	}
	attemptNum := tracker.Attempts
	m.restartMu.Unlock()

	metrics.ProcessRestartsTotal.WithLabelValues(entry.AppID, "attempt").Inc()
	m.writeEvent("WARN", entry.AppID, "restarting after crash", map[string]any{"attempt": attemptNum, "maxAttempts": maxAttempts}, false)

	go m.respawnAfterDelay(entry, exhausted)
}

func (m *Manager) respawnAfterDelay(entry *types.ProcessEntry, wasLastAttempt bool) {
	time.Sleep(restartDelay)

	if entry.Port > 0 && m.broker.IsPortInUse(entry.Port) {
		_ = m.broker.FreePort(entry.Port)
	}

	req := fromEntry(entry)
	argv := argvFor(entry)
	newEntry, cmd, err := m.spawn(entry.Config, argv, entry.Port, req)
	if err != nil {
		m.table.MarkExit(entry.Key, types.StatusFailed, -1, types.ExitRuntimeCrash)
		qerr := qlerr.Internal(err)
		m.writeEvent("ERROR", entry.AppID, qerr.Message, nil, false)
		if wasLastAttempt {
			m.writeEvent("ERROR", entry.AppID, qlerr.AutoRestartExhausted(entry.AppID, entry.Config.MaxRestartAttempts).Message, nil, false)
		}
		return
	}

	m.table.Insert(newEntry)
	metrics.ProcessRestartsTotal.WithLabelValues(entry.AppID, "respawned").Inc()
	go m.observe(cmd, newEntry)

	if newEntry.Port > 0 {
		go m.pollRestartHealth(newEntry)
	}

	key := entry.Key
	time.AfterFunc(restartStability, func() {
		if e, ok := m.table.Get(key); ok && (e.Status == types.StatusRunning || e.Status == types.StatusStarting) {
			m.restartMu.Lock()
			delete(m.restartTrackers, key)
			m.restartMu.Unlock()
		}
	})
}

func (m *Manager) pollRestartHealth(entry *types.ProcessEntry) {
	ctx, cancel := context.WithCancel(context.Background())
	m.setCancel(entry.Key, cancel)
	result := m.prober.WaitForHealthy(ctx, entry.Port, healthprobe.Options{
		HealthPath:       entry.Config.HealthCheckURL,
		StartupTimeoutMS: entry.Config.StartupTimeoutMS,
	})
	m.popCancel(entry.Key)
	if result.Healthy {
		m.table.CompareAndSwapStatus(entry.Key, types.StatusStarting, types.StatusRunning)
	}
}

func argvFor(entry *types.ProcessEntry) []string {
	command := entry.Config.Command
	if entry.IsSyncProcess {
		command = entry.Config.ScheduleCommand
	}
	return splitCommand(command)
}

func splitCommand(command string) []string {
	return strings.Fields(command)
}
