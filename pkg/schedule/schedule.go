package schedule

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/lifecycle"
	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/state"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

var hhmmPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// Scheduler is the cooperative cron scheduler: one job per app whose
// config declares a schedule and has it enabled, cancel-and-reinstalled
// on any config change, plus missed-run recovery on startup.
type Scheduler struct {
	cron    *cron.Cron
	store   *config.Store
	state   *state.Store
	manager *lifecycle.Manager
	log     zerolog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID // appID -> installed job
}

// New wires a Scheduler over its collaborators.
func New(store *config.Store, st *state.Store, manager *lifecycle.Manager) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		store:   store,
		state:   st,
		manager: manager,
		log:     log.WithComponent("schedule"),
		entries: map[string]cron.EntryID{},
	}
}

// Start installs a job for every enabled scheduled app, runs missed-run
// recovery, and starts the cron loop.
func (s *Scheduler) Start() {
	doc := s.store.Document()
	for _, app := range doc.Apps {
		if app.Schedule != "" && app.ScheduleEnabled {
			if err := s.install(app); err != nil {
				s.log.Error().Err(err).Str("app", app.ID).Msg("failed to install schedule")
			}
		}
	}
	s.recoverMissedRuns(doc.Apps)
	s.cron.Start()
}

// Stop halts the cron loop, waiting for any in-flight job callback to
// return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Reconcile cancels any previously installed job for app.ID and
// reinstalls one if the (possibly changed) config still wants it. This
// is the only path that changes a job's schedule — there is no
// in-place edit of a live cron entry.
func (s *Scheduler) Reconcile(app *types.AppConfig) error {
	s.mu.Lock()
	if id, ok := s.entries[app.ID]; ok {
		s.cron.Remove(id)
		delete(s.entries, app.ID)
	}
	s.mu.Unlock()

	if app.Schedule == "" || !app.ScheduleEnabled {
		return nil
	}
	return s.install(app)
}

func (s *Scheduler) install(app *types.AppConfig) error {
	spec, err := translateSchedule(app.Schedule)
	if err != nil {
		return err
	}
	appCopy := *app
	id, err := s.cron.AddFunc(spec, func() {
		timer := metrics.NewTimer()
		s.executeScheduledApp(appCopy, false)
		timer.ObserveDuration(metrics.SchedulingLatency)
		metrics.ScheduleCyclesTotal.Inc()
	})
	if err != nil {
		return qlerr.Internal(fmt.Errorf("install schedule %q for %s: %w", app.Schedule, app.ID, err))
	}
	s.mu.Lock()
	s.entries[app.ID] = id
	s.mu.Unlock()
	return nil
}

// translateSchedule accepts either "HH:MM" or an already-valid 5-field
// cron expression.
func translateSchedule(schedule string) (string, error) {
	if m := hhmmPattern.FindStringSubmatch(schedule); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return "", qlerr.Internal(fmt.Errorf("invalid schedule %q: %w", schedule, err))
	}
	return schedule, nil
}

// Describe renders a human-readable description of a schedule, e.g.
// "Daily at 2:30 PM" for "HH:MM" input.
func Describe(schedule string) string {
	if m := hhmmPattern.FindStringSubmatch(schedule); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		suffix := "AM"
		displayHour := hour
		if hour == 0 {
			displayHour = 12
		} else if hour == 12 {
			suffix = "PM"
		} else if hour > 12 {
			displayHour = hour - 12
			suffix = "PM"
		}
		return fmt.Sprintf("Daily at %d:%02d %s", displayHour, minute, suffix)
	}
	return fmt.Sprintf("Custom schedule (%s)", schedule)
}

// recoverMissedRuns catches up on missed runs: for each enabled app
// with runIfMissed, a run is due immediately if lastRun is absent, or
// its calendar date differs from today and today's scheduled
// time-of-day has already passed.
func (s *Scheduler) recoverMissedRuns(apps []*types.AppConfig) {
	now := time.Now()
	for _, app := range apps {
		if app.Schedule == "" || !app.ScheduleEnabled || !app.RunIfMissed {
			continue
		}
		due, err := isMissed(app.Schedule, now)
		if err != nil {
			s.log.Warn().Err(err).Str("app", app.ID).Msg("could not evaluate missed-run schedule")
			continue
		}
		last, found, err := s.state.Get(app.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("app", app.ID).Msg("could not read schedule state")
			continue
		}
		if !found || !sameDay(last.LastRun, now) {
			if due {
				appCopy := *app
				go s.executeScheduledApp(appCopy, false)
			}
		}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// isMissed reports whether schedule's time-of-day has already passed
// today, used only for HH:MM schedules; a 5-field cron expression's
// time-of-day isn't well-defined in general, so it is always considered
// due once the day hasn't run yet.
func isMissed(schedule string, now time.Time) (bool, error) {
	m := hhmmPattern.FindStringSubmatch(schedule)
	if m == nil {
		return true, nil
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	scheduledToday := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return now.After(scheduledToday), nil
}

// Status returns the last persisted ScheduleState for an app, if any,
// for the GET /api/schedule/:id/status endpoint.
func (s *Scheduler) Status(appID string) (*types.ScheduleState, bool, error) {
	return s.state.Get(appID)
}

// RunNow triggers a manual execution. The schedule must be enabled,
// and no run under the same composite key may already be in flight.
func (s *Scheduler) RunNow(app *types.AppConfig) *qlerr.Error {
	if !app.ScheduleEnabled {
		return qlerr.Internal(fmt.Errorf("schedule is not enabled for %s", app.ID))
	}
	sync := app.ScheduleCommand != ""
	key := process.Key(app.ID, sync)
	if e, ok := s.manager.Entry(key); ok && (e.Status == types.StatusRunning || e.Status == types.StatusStarting) {
		return qlerr.Internal(fmt.Errorf("%s already has a sync run in progress", app.ID))
	}
	appCopy := *app
	go s.executeScheduledApp(appCopy, true)
	return nil
}

// executeScheduledApp spawns the scheduled command and, once it
// completes, persists the resulting ScheduleState.
func (s *Scheduler) executeScheduledApp(app types.AppConfig, isManual bool) {
	sync := app.ScheduleCommand != ""
	if !isManual {
		if sync && strings.Contains(app.ScheduleCommand, "npm run sync") {
			app.ScheduleCommand += " -- --headless"
		} else if !sync && strings.Contains(app.Command, "npm run sync") {
			app.Command += " -- --headless"
		}
	}

	trigger := "scheduled"
	if isManual {
		trigger = "manual"
	}

	key := process.Key(app.ID, sync)
	_, qerr := s.manager.Start(context.Background(), lifecycle.StartRequest{
		App:       app,
		Sync:      sync,
		Manual:    isManual,
		Scheduled: !isManual,
	})
	if qerr != nil {
		s.log.Error().Err(qerr).Str("app", app.ID).Msg("scheduled run failed to start")
		metrics.ScheduledRunsTotal.WithLabelValues(app.ID, trigger).Inc()
		_ = s.state.Put(types.ScheduleState{AppID: app.ID, LastRun: time.Now(), LastExitCode: -1, WasManual: isManual})
		return
	}
	metrics.ScheduledRunsTotal.WithLabelValues(app.ID, trigger).Inc()

	s.awaitCompletion(app.ID, key, isManual)
}

// awaitCompletion polls the process table until the scheduled run
// reaches a terminal state, then records ScheduleState. Polling (rather
// than a completion channel) keeps the Scheduler decoupled from
// LifecycleManager's internals; it only ever reads through the small
// Entry accessor.
func (s *Scheduler) awaitCompletion(appID, key string, isManual bool) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		e, ok := s.manager.Entry(key)
		if !ok {
			return // stopped out from under the scheduler; nothing to record
		}
		if e.Status.IsTerminal() {
			_ = s.state.Put(types.ScheduleState{
				AppID:        appID,
				LastRun:      time.Now(),
				LastExitCode: e.ExitCode,
				WasManual:    isManual,
			})
			return
		}
	}
}
