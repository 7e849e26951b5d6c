/*
Package state persists the scheduler's durable bookkeeping: one
ScheduleState record per app, recording the last run's time, exit code,
and whether it was triggered manually. It is consulted on startup to
recover a run that was missed while the supervisor was down.

Backed by a single BoltDB bucket, the only durable store QuickLaunch
needs: everything it tracks lives in one process's memory except this
one piece of cross-restart bookkeeping.
*/
package state
