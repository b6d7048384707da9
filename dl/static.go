package dl

import (
	"fmt"
	"sync"

	"github.com/wippyai/simhost/errors"
)

// Symbols is the export table of a static library.
type Symbols map[string]any

// Static serves libraries whose exports are Go values registered in-process.
// Libraries are matched by base name without directory or extension, so
// "./lib/tape.so" and "tape" open the same library.
type Static struct {
	libs map[string]Symbols
	mu   sync.RWMutex
}

func NewStatic() *Static {
	return &Static{libs: make(map[string]Symbols)}
}

// Register adds or replaces the library called name.
func (s *Static) Register(name string, syms Symbols) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.libs[baseName(name)] = syms
}

// Has reports whether a library called name is registered.
func (s *Static) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.libs[baseName(name)]
	return ok
}

func (s *Static) Open(path string) (Library, error) {
	s.mu.RLock()
	syms, ok := s.libs[baseName(path)]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "static library", path)
	}
	return &staticLibrary{path: path, syms: syms}, nil
}

type staticLibrary struct {
	syms Symbols
	path string
}

func (l *staticLibrary) Path() string { return l.path }

func (l *staticLibrary) Lookup(name string) (Symbol, error) {
	v, ok := l.syms[name]
	if !ok || v == nil {
		return nil, errors.NotFound(errors.PhaseBind, "symbol", name)
	}
	return v, nil
}

// LookupOrdinal resolves exports registered under "#<ordinal>".
func (l *staticLibrary) LookupOrdinal(ordinal uint16) (Symbol, error) {
	return l.Lookup(fmt.Sprintf("#%d", ordinal))
}

func (l *staticLibrary) Close() error { return nil }
