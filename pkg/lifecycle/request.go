package lifecycle

import "github.com/quicklaunch/quicklaunch/pkg/types"

// StartRequest is one request to start a managed process, either the
// app's long-running server or (when Sync is set) its periodic task
// under the app's ":sync" composite key.
type StartRequest struct {
	App          types.AppConfig
	Sync         bool
	Manual       bool
	Scheduled    bool
	OverridePort int
	Retry        bool // caller already saw QL-PORT-001 once and asked to free the port
}

// StartResult is the outcome of a successful (or partially successful)
// Start call.
type StartResult struct {
	Key      string
	Status   types.ProcessStatus
	Port     int
	PID      int
	Elapsed  int64 // milliseconds spent waiting on the health probe
	Warning  string
	Analysis *types.Recommendation
	Logs     []types.LogLine // recent output, attached when Start fails during the spawn grace window
}

// fromEntry rebuilds a StartRequest from a live ProcessEntry's config
// snapshot, used by the restart path to re-spawn with exactly the
// configuration the original start used, bypassing the path/manifest
// preflight (already satisfied once) per the restart contract.
func fromEntry(e *types.ProcessEntry) StartRequest {
	return StartRequest{
		App:       e.Config,
		Sync:      e.IsSyncProcess,
		Manual:    e.IsManual,
		Scheduled: e.IsScheduled,
	}
}
