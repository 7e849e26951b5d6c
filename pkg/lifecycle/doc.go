/*
Package lifecycle implements QuickLaunch's LifecycleManager: the
start/stop state machine for managed processes. It runs the preflight
chain (already-running check, failure-analysis advisory, port check,
path check, package-manifest check, spawn), classifies exits into
normal/startup-crash/runtime-crash, drives the bounded auto-restart
policy, and answers external-app detection queries.

Each spawned process gets one goroutine per observed output stream plus
a wait-for-exit goroutine, all publishing through the single
mutex-guarded process table (pkg/process). Processes are spawned into
their own process group (pkg/proctree) so a stop kills the whole tree a
shell-wrapped command may have forked, not just the immediate child.
*/
package lifecycle
