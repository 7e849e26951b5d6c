package lifecycle

import (
	"fmt"

	"github.com/quicklaunch/quicklaunch/pkg/proctree"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
)

// Stop kills a managed process. The table entry is removed before the
// kill signal is sent: a concurrent health-poll goroutine that reads the
// table after removal sees nothing and gives up, rather than racing to
// report the entry healthy again after it's gone.
func (m *Manager) Stop(appID string, sync bool) *qlerr.Error {
	key := process.Key(appID, sync)
	entry, ok := m.table.Get(key)
	if !ok {
		return qlerr.Internal(fmt.Errorf("%s is not running", appID))
	}
	if entry.Status.IsTerminal() {
		return qlerr.Internal(fmt.Errorf("%s is not running (status: %s)", appID, entry.Status))
	}

	if cancel, ok := m.popCancel(key); ok {
		cancel()
	}

	pid := entry.PID
	m.table.Remove(key)

	if err := proctree.Kill(pid); err != nil {
		m.log.Warn().Err(err).Str("app", appID).Int("pid", pid).Msg("failed to kill process tree")
	}

	m.restartMu.Lock()
	delete(m.restartTrackers, key)
	m.restartMu.Unlock()

	m.writeEvent("INFO", appID, "stopped by request", nil, false)
	return nil
}
