//go:build !(darwin || freebsd || linux || windows)

package dl

import (
	"fmt"

	"github.com/wippyai/simhost/errors"
)

func bindAddr(fptr any, _ uintptr) error {
	return errors.Unsupported(errors.PhaseBind, fmt.Sprintf("native calls are not available on this platform (%T)", fptr))
}
