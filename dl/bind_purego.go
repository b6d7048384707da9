//go:build darwin || freebsd || linux || windows

package dl

import (
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/wippyai/simhost/errors"
)

func bindAddr(fptr any, addr uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Unsupported(errors.PhaseBind, fmt.Sprintf("native signature %T: %v", fptr, r))
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}
