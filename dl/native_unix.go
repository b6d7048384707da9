//go:build darwin || freebsd || linux

package dl

import (
	"os"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/wippyai/simhost/errors"
)

// NativeLoader opens shared objects with dlopen.
type NativeLoader struct {
	lastErr string
	mu      sync.Mutex
}

func NewNativeLoader() *NativeLoader {
	return &NativeLoader{}
}

func (l *NativeLoader) Open(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		l.setLastError(err)
		return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Subject(path).
			Detail("dlopen failed (LD_LIBRARY_PATH=%s)", os.Getenv("LD_LIBRARY_PATH")).
			Cause(err).
			Build()
	}
	return &nativeLibrary{loader: l, path: path, handle: h}, nil
}

// LastError returns the most recent loader error message.
func (l *NativeLoader) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *NativeLoader) setLastError(err error) {
	l.mu.Lock()
	l.lastErr = err.Error()
	l.mu.Unlock()
}

type nativeLibrary struct {
	loader *NativeLoader
	path   string
	handle uintptr
}

func (n *nativeLibrary) Path() string { return n.path }

func (n *nativeLibrary) Lookup(name string) (Symbol, error) {
	addr, err := purego.Dlsym(n.handle, name)
	if err != nil || addr == 0 {
		if err != nil {
			n.loader.setLastError(err)
		}
		return nil, errors.New(errors.PhaseBind, errors.KindNotFound).
			Subject(name).
			Detail("symbol not found in %s", n.path).
			Cause(err).
			Build()
	}
	return Addr(addr), nil
}

func (n *nativeLibrary) Close() error {
	return purego.Dlclose(n.handle)
}
