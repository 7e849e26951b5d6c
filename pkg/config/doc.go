/*
Package config implements QuickLaunch's ConfigStore: the on-disk JSON
document holding every managed app and the port reservation registry.

The store is the single source of truth for declared configuration. It
is read by pkg/lifecycle (to know what to spawn), pkg/portbroker (to
know what's reserved), pkg/schedule (to know what cron jobs to install)
and pkg/rpc (to serve the apps/ports CRUD endpoints).

# Persistence

The document is written atomically: a new version is marshaled to a
temporary file in the same directory as the target, then moved into
place with os.Rename, which is atomic on the same filesystem. A reader
never observes a partially-written document, and a crash mid-write
leaves the previous version intact.

There is no suitable third-party library for this: there are no YAML
documents in the data model and the document is small enough that a
database is unwarranted, so the store uses encoding/json and os
directly, matching the atomic-write pattern QuickLaunch uses throughout
(see pkg/state for the equivalent boltdb-backed treatment of scheduler
run history).
*/
package config
