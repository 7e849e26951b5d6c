/*
Package types defines the core data structures shared across QuickLaunch.

This package contains the domain model used by every other package: the
on-disk application configuration, the reserved-port registry, the
in-memory process table entries, restart bookkeeping, and the scheduler's
persisted run history. These types are the contract between pkg/config,
pkg/process, pkg/lifecycle, pkg/schedule, pkg/diagnostics and pkg/rpc.

# Design Patterns

Enumeration Pattern:

	Enums use typed string constants:
	  type ProcessStatus string
	  const (
	      StatusStopped ProcessStatus = "stopped"
	      StatusRunning ProcessStatus = "running"
	  )

Optional Fields:

	Optional configuration uses pointers or zero-value-means-unset
	conventions documented on the field itself.

# Thread Safety

Types in this package are plain data. Concurrent access to shared
instances (the process table, the config store) is synchronized by the
owning package, not by these types themselves.
*/
package types
