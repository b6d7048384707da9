//go:build !(darwin || freebsd || linux || windows)

package dl

import "github.com/wippyai/simhost/errors"

// NativeLoader is unavailable on this platform; only static libraries load.
type NativeLoader struct{}

func NewNativeLoader() *NativeLoader {
	return &NativeLoader{}
}

func (l *NativeLoader) Open(path string) (Library, error) {
	return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Subject(path).
		Detail("native libraries are not supported on this platform").
		Build()
}

// LastError returns the most recent loader error message.
func (l *NativeLoader) LastError() string { return "" }
