package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Process table metrics
	ProcessesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quicklaunch_processes_total",
			Help: "Total number of tracked processes by status",
		},
		[]string{"status"},
	)

	ProcessRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_process_restarts_total",
			Help: "Total number of auto-restart attempts by app and outcome",
		},
		[]string{"app", "outcome"},
	)

	ProcessExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_process_exits_total",
			Help: "Total number of process exits by exit classification",
		},
		[]string{"app", "class"},
	)

	StartupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quicklaunch_startup_duration_seconds",
			Help:    "Time from spawn to healthy for an app start",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"app"},
	)

	// Health probe metrics
	HealthProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quicklaunch_health_probe_duration_seconds",
			Help:    "Time spent waiting for an app to become healthy",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"app"},
	)

	HealthProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_health_probes_total",
			Help: "Total number of health probes by outcome",
		},
		[]string{"app", "outcome"},
	)

	// Port broker metrics
	PortChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_port_checks_total",
			Help: "Total number of port occupancy checks by result",
		},
		[]string{"result"},
	)

	// Scheduler metrics
	ScheduleCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quicklaunch_schedule_cycles_total",
			Help: "Total number of scheduler tick cycles completed",
		},
	)

	ScheduledRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_scheduled_runs_total",
			Help: "Total number of scheduled sync runs by app and trigger",
		},
		[]string{"app", "trigger"},
	)

	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quicklaunch_scheduling_latency_seconds",
			Help:    "Time taken to evaluate one scheduler tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Diagnostics metrics
	DiagnosticsPatternsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_diagnostics_patterns_total",
			Help: "Total number of classified failure patterns by app and pattern",
		},
		[]string{"app", "pattern"},
	)

	AutoTodosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_auto_todos_total",
			Help: "Total number of auto-synthesized TODO entries by app",
		},
		[]string{"app"},
	)

	// Reaper metrics
	EntryReaperDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quicklaunch_entry_reaper_duration_seconds",
			Help:    "Time taken for one entry-reaper sweep cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	EntriesReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quicklaunch_entries_reaped_total",
			Help: "Total number of aged-out sync process entries removed",
		},
	)

	// RPC/HTTP metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quicklaunch_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quicklaunch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(ProcessesTotal)
	prometheus.MustRegister(ProcessRestartsTotal)
	prometheus.MustRegister(ProcessExitsTotal)
	prometheus.MustRegister(StartupDuration)
	prometheus.MustRegister(HealthProbeDuration)
	prometheus.MustRegister(HealthProbesTotal)
	prometheus.MustRegister(PortChecksTotal)
	prometheus.MustRegister(ScheduleCyclesTotal)
	prometheus.MustRegister(ScheduledRunsTotal)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(DiagnosticsPatternsTotal)
	prometheus.MustRegister(AutoTodosTotal)
	prometheus.MustRegister(EntryReaperDuration)
	prometheus.MustRegister(EntriesReapedTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
