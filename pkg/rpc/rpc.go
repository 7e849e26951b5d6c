// Package rpc implements QuickLaunch's transport-agnostic RPC surface:
// one exported method per endpoint, each taking a typed request and
// returning a typed response alongside a *qlerr.Error. No method here
// is aware of net/http — JSON encoding and status-code mapping live in
// pkg/httpapi, the thin transport adapter built over this package.
package rpc

import (
	"github.com/rs/zerolog"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/diagnostics"
	"github.com/quicklaunch/quicklaunch/pkg/lifecycle"
	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/schedule"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// Handlers wires the RPC surface over the components it fronts. It
// holds no state of its own beyond these references.
type Handlers struct {
	Manager   *lifecycle.Manager
	Broker    *portbroker.Broker
	Store     *config.Store
	Scheduler *schedule.Scheduler
	Diag      *diagnostics.Engine
	log       zerolog.Logger
}

// New wires a Handlers over its collaborators.
func New(manager *lifecycle.Manager, broker *portbroker.Broker, store *config.Store, sched *schedule.Scheduler, diag *diagnostics.Engine) *Handlers {
	return &Handlers{
		Manager: manager, Broker: broker, Store: store, Scheduler: sched, Diag: diag,
		log: log.WithComponent("rpc"),
	}
}

// reconcileSchedule best-effort reinstalls app's cron job after a
// config write, logging rather than failing the whole request: the
// config document is already persisted by the time this runs, so a bad
// schedule expression shouldn't roll back an otherwise valid edit.
func (h *Handlers) reconcileSchedule(app *types.AppConfig) {
	if err := h.Scheduler.Reconcile(app); err != nil {
		h.log.Warn().Err(err).Str("app", app.ID).Msg("failed to reconcile schedule after config change")
	}
}
