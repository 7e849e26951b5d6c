/*
Package reconciler runs the entry reaper for the process table.

A sync run (a scheduled job, or a manual run via Scheduler.RunNow) leaves
its table entry in place after it exits so pkg/rpc can report its exit
code and tail its logs. Nothing ever explicitly deletes that entry the
way Stop does for a running server, so something has to: the
reconciler periodically sweeps the table and removes terminal sync
entries once they've aged past a configurable cutoff.

# Usage

	rec := reconciler.New(mgr, time.Minute, 10*time.Minute)
	rec.Start()
	defer rec.Stop()

mgr is anything satisfying the small ReapSyncEntries(maxAge) interface
this package expects from *lifecycle.Manager.

# Behavior

Each sweep visits every process-table entry and removes those where:

  - IsSyncProcess is true (an app's long-running server is never reaped
    this way; Stop handles that path), and
  - Status.IsTerminal() is true (stopped, failed, or completed), and
  - the entry's FinishedAt is older than maxAge.

Sweep duration and the count removed per cycle are recorded via
quicklaunch_entry_reaper_duration_seconds and
quicklaunch_entries_reaped_total.

# See Also

  - pkg/lifecycle - owns the process table and ReapSyncEntries
  - pkg/process - the table type the reaper sweeps
  - pkg/schedule - what produces the sync entries this package cleans up
*/
package reconciler
