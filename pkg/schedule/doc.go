/*
Package schedule implements QuickLaunch's cooperative Scheduler: it
installs one robfig/cron job per app that declares a schedule, recovers
a run missed while the supervisor was down, and drives scheduled
executions through the same LifecycleManager interactive launches use —
under the app's own composite key, or its ":sync" key for a hybrid app
that also runs a long-lived server.

Each app's job is installed once per cron spec change: on disable or
schedule edit the old job is cancelled and, if still enabled, a fresh
one installed in its place, rather than trying to mutate a live
robfig/cron entry in place.
*/
package schedule
