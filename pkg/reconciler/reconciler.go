// Package reconciler runs the entry reaper: a background sweep that
// removes sync-run table entries once they've sat in a terminal status
// long enough that nobody is still watching them for an exit code.
package reconciler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/metrics"
)

// manager is the slice of *lifecycle.Manager the reaper needs. Defined
// as an interface here (rather than importing pkg/lifecycle directly)
// so reconciler_test.go can exercise the sweep loop without a full
// Manager.
type manager interface {
	ReapSyncEntries(maxAge time.Duration) int
}

// Reconciler periodically sweeps the process table for aged-out sync
// entries.
type Reconciler struct {
	manager  manager
	interval time.Duration
	maxAge   time.Duration
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// New creates an entry reaper that sweeps mgr every interval, removing
// terminal sync entries older than maxAge.
func New(mgr manager, interval, maxAge time.Duration) *Reconciler {
	return &Reconciler{
		manager:  mgr,
		interval: interval,
		maxAge:   maxAge,
		logger:   log.WithComponent("reconciler"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the reaper loop in the background.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop ends the reaper loop.
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Dur("max_age", r.maxAge).Msg("entry reaper started")

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			r.logger.Info().Msg("entry reaper stopped")
			return
		}
	}
}

func (r *Reconciler) sweep() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.EntryReaperDuration)

	n := r.manager.ReapSyncEntries(r.maxAge)
	if n > 0 {
		metrics.EntriesReapedTotal.Add(float64(n))
		r.logger.Debug().Int("count", n).Msg("reaped aged-out sync entries")
	}
}
