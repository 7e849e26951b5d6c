package lifecycle

import (
	"os/exec"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// startupCrashWindow bounds how long after spawn an exit still counts as
// a startup crash rather than a runtime crash.
const startupCrashWindow = 5 * time.Second

// observe waits for a spawned process to exit, classifies the exit, and
// drives the table/restart/diagnostics side effects. One observer
// goroutine runs per spawn, whether from Start or a restart respawn.
func (m *Manager) observe(cmd *exec.Cmd, entry *types.ProcessEntry) {
	err := cmd.Wait()
	exitCode := exitCodeOf(err)
	elapsed := time.Since(entry.StartTime)
	m.handleExit(entry, exitCode, elapsed)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// handleExit classifies an exit and records it. A fast exit always
// overwrites the table entry's status via SetStatus/MarkExit, which is
// how a crash-during-health-poll wins its race against a concurrent
// CompareAndSwapStatus(starting, running) in Start.
func (m *Manager) handleExit(entry *types.ProcessEntry, exitCode int, elapsed time.Duration) {
	key := entry.Key

	switch {
	case IsNormalExit(exitCode):
		status := types.StatusCompleted
		if !entry.IsSyncProcess {
			status = types.StatusStopped
		}
		m.table.MarkExit(key, status, exitCode, types.ExitNormal)
		metrics.ProcessExitsTotal.WithLabelValues(entry.AppID, string(types.ExitNormal)).Inc()
		m.writeEvent("INFO", entry.AppID, "process exited normally", map[string]any{"exitCode": exitCode}, true)

	case elapsed < startupCrashWindow:
		m.table.MarkExit(key, types.StatusFailed, exitCode, types.ExitStartupCrash)
		metrics.ProcessExitsTotal.WithLabelValues(entry.AppID, string(types.ExitStartupCrash)).Inc()
		m.writeEvent("ERROR", entry.AppID, "process crashed during startup", map[string]any{"exitCode": exitCode}, false)

	default:
		metrics.ProcessExitsTotal.WithLabelValues(entry.AppID, string(types.ExitRuntimeCrash)).Inc()
		m.writeEvent("ERROR", entry.AppID, "process crashed while running", map[string]any{"exitCode": exitCode}, false)
		if entry.Config.AutoRestart && !entry.IsSyncProcess {
			m.table.SetStatus(key, types.StatusRestarting)
			m.attemptRestart(entry)
			return
		}
		m.table.MarkExit(key, types.StatusFailed, exitCode, types.ExitRuntimeCrash)
	}
}
