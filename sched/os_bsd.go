//go:build darwin || freebsd

package sched

import "github.com/wippyai/simhost/errors"

func (osProcess) Pin(int) error {
	return errors.Unsupported(errors.PhaseSched, "processor affinity")
}
