//go:build !(darwin || freebsd || linux || windows)

package sched

import "github.com/wippyai/simhost/errors"

// OpenShared is unavailable on this platform.
func OpenShared(path string, slots int) (Region, error) {
	return nil, errors.Unsupported(errors.PhaseSched, "shared process map")
}
