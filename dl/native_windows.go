//go:build windows

package dl

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"

	"github.com/wippyai/simhost/errors"
)

// NativeLoader opens DLLs with LoadLibrary.
type NativeLoader struct {
	lastErr string
	mu      sync.Mutex
}

func NewNativeLoader() *NativeLoader {
	return &NativeLoader{}
}

func (l *NativeLoader) Open(path string) (Library, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		l.setLastError(err)
		return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Subject(path).
			Detail("LoadLibrary failed").
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
	handle windows.Handle
}

func (n *nativeLibrary) Path() string { return n.path }

func (n *nativeLibrary) Lookup(name string) (Symbol, error) {
	addr, err := windows.GetProcAddress(n.handle, name)
	if err != nil {
		n.loader.setLastError(err)
		return nil, errors.New(errors.PhaseBind, errors.KindNotFound).
			Subject(name).
			Detail("symbol not found in %s", n.path).
			Cause(err).
			Build()
	}
	return Addr(addr), nil
}

func (n *nativeLibrary) LookupOrdinal(ordinal uint16) (Symbol, error) {
	addr, err := windows.GetProcAddressByOrdinal(n.handle, uintptr(ordinal))
	if err != nil {
		n.loader.setLastError(err)
		return nil, errors.New(errors.PhaseBind, errors.KindNotFound).
			Subject(fmt.Sprintf("@%d", ordinal)).
			Detail("ordinal not found in %s", n.path).
			Cause(err).
			Build()
	}
	return Addr(addr), nil
}

func (n *nativeLibrary) Close() error {
	return windows.FreeLibrary(n.handle)
}
