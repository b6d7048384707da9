//go:build !((darwin || linux) && (amd64 || arm64))

package abi

import "github.com/wippyai/simhost/errors"

type nativeTable struct{}

// Native is unavailable on this platform; only Go modules can be loaded.
func (t *Table) Native() (uintptr, error) {
	return 0, errors.Unsupported(errors.PhaseRuntime, "native callback table")
}
