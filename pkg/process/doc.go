/*
Package process implements QuickLaunch's ProcessTable: the canonical
in-memory map of managed child processes, keyed by a composite key
(appId, or appId:sync for a scheduled task coexisting with its app's
long-running server).

Every mutation is guarded by a single mutex. Status transitions that
must not race — starting to running — go through CompareAndSwapStatus so
the start handler is the sole writer of that edge, while a transition to
a terminal status (stopped/failed/completed) is always accepted, even
against a concurrent starting->running attempt: once a process has
exited, nothing should be able to report it healthy again.
*/
package process
