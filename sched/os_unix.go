//go:build darwin || freebsd || linux

package sched

import (
	stderrors "errors"

	"golang.org/x/sys/unix"
)

type osProcess struct{}

// Alive probes pid with signal 0. A process we may not signal still exists.
func (osProcess) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || stderrors.Is(err, unix.EPERM)
}

func (osProcess) Interrupt(pid int) error {
	return unix.Kill(pid, unix.SIGINT)
}
