/*
Package healthprobe implements QuickLaunch's HealthProber: HTTP liveness
polling used by the LifecycleManager start sequence and by external-app
detection.

WaitForHealthy repeatedly issues a GET against the app's health URL
until it responds (any status code counts as healthy) or a total
deadline elapses. Connection refused and per-attempt timeouts are
non-fatal and simply trigger another poll; only the total deadline is
fatal.
*/
package healthprobe
