package lifecycle

import (
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// DetectExternal reports whether an app not tracked as running/starting
// in the process table is nonetheless answering on its configured port,
// meaning some other process (started outside QuickLaunch) occupies it.
// Apps with no configured port are never considered external.
func (m *Manager) DetectExternal(app *types.AppConfig) bool {
	key := process.Key(app.ID, false)
	if e, ok := m.table.Get(key); ok && (e.Status == types.StatusRunning || e.Status == types.StatusStarting) {
		return false
	}
	if app.Port <= 0 {
		return false
	}
	return m.prober.QuickProbe(app.Port, app.HealthCheckURL)
}
