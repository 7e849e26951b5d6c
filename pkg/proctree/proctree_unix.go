//go:build !windows

package proctree

import (
	"syscall"
	"time"
)

// Spawn returns the SysProcAttr that puts the child in its own process
// group, so the whole tree it forks can be signaled by group id.
func Spawn() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// Kill sends SIGTERM to the process group rooted at pid, waits briefly
// for a graceful exit, then escalates to SIGKILL. pid must be the PID
// of a process started with the SysProcAttr returned by Spawn.
func Kill(pid int) error {
	if pid <= 0 {
		return nil
	}
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(-pid, 0); err != nil {
			return nil // process group is gone
		}
		time.Sleep(50 * time.Millisecond)
	}
	return syscall.Kill(-pid, syscall.SIGKILL)
}
