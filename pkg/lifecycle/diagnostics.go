package lifecycle

import "github.com/quicklaunch/quicklaunch/pkg/types"

// Diagnostics is the subset of pkg/diagnostics.Engine the lifecycle
// manager depends on: writing structured events to the troubleshooting
// log and fetching the pattern-analysis advisory for an app. Declaring
// it here, at the consumer, keeps pkg/lifecycle independent of
// pkg/diagnostics' TODO/resolutions machinery.
type Diagnostics interface {
	WriteEvent(entry types.TroubleshootingEntry) error
	Analyze(appID string) (*types.Recommendation, error)
	MaybeAutoTodo(rec *types.Recommendation) error
}
