/*
Package portbroker implements QuickLaunch's PortBroker: reconciliation
between declared port reservations (pkg/config), the ports assigned to
other apps, and live OS-level port occupancy.

Occupancy is tested by attempting to bind the port locally; a bind
failure means something is already listening. Attributing *which*
process holds a port, and forcibly freeing one, uses gopsutil's
cross-platform process and connection enumeration instead of shelling
out to netstat/tasklist, grounded on the `shirou/gopsutil/v3` dependency
carried into this module's go.mod.
*/
package portbroker
