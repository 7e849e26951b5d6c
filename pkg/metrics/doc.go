/*
Package metrics provides Prometheus metrics collection and exposition
for QuickLaunch.

Metrics are registered at package init against the default Prometheus
registry and exposed via Handler() for scraping.

# Metric Categories

Process table: quicklaunch_processes_total, quicklaunch_process_restarts_total,
quicklaunch_process_exits_total, quicklaunch_startup_duration_seconds.

Health probing: quicklaunch_health_probe_duration_seconds, quicklaunch_health_probes_total.

Port broker: quicklaunch_port_checks_total.

Scheduler: quicklaunch_schedule_cycles_total, quicklaunch_scheduled_runs_total,
quicklaunch_scheduling_latency_seconds.

Diagnostics: quicklaunch_diagnostics_patterns_total, quicklaunch_auto_todos_total.

Entry reaper: quicklaunch_entry_reaper_duration_seconds, quicklaunch_entries_reaped_total.

API: quicklaunch_api_requests_total, quicklaunch_api_request_duration_seconds.

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	metrics.ProcessRestartsTotal.WithLabelValues(appID, "attempt").Inc()

# See Also

  - Prometheus client: https://github.com/prometheus/client_golang
*/
package metrics
