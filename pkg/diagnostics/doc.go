/*
Package diagnostics implements QuickLaunch's DiagnosticsEngine: an
append-only troubleshooting log, resolution-aware pattern analysis over
it, idempotent auto-TODO synthesis, TODO.md inventory/triage, and
resolution recording.

The troubleshooting and resolutions logs are plain append-only text
files the operator is expected to rotate externally — this package
never truncates them. TODO.md is human-edited; the engine performs only
conservative, narrowly scoped edits: removing the lines of triaged or
resolved items and inserting new item lines under their section
headings (Parking Lot, Next Session, Auto-Detected Issues), never
rewriting surrounding prose.

One Engine type exposes the package, backed by file state and a mutex
serializing writes, matching the rest of this module's file-backed
packages. TODO.md's line-oriented section/checkbox scanning is done
directly against bufio/strings rather than pulling in a markdown
library for what amounts to a handful of regexes.
*/
package diagnostics
