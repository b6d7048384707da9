//go:build !(darwin || freebsd || linux || windows)

package sched

import "github.com/wippyai/simhost/errors"

type osProcess struct{}

func (osProcess) Alive(pid int) bool { return pid > 0 }

func (osProcess) Interrupt(int) error {
	return errors.Unsupported(errors.PhaseSched, "process signals")
}

func (osProcess) Pin(int) error {
	return errors.Unsupported(errors.PhaseSched, "processor affinity")
}
