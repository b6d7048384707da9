package module

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// Registry is the insertion-ordered set of loaded modules.
type Registry struct {
	loader  dl.Loader
	wasm    dl.Loader
	classes *class.List
	log     *zap.Logger
	byName  map[string]*Module
	path    dl.SearchPath
	modules []*Module
	loadMu  sync.Mutex
	mu      sync.RWMutex

	ownsWasm bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader sets the library loader. The default is the platform loader.
func WithLoader(l dl.Loader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithWasmLoader sets the loader behind the wasm bridge.
func WithWasmLoader(l dl.Loader) Option {
	return func(r *Registry) { r.wasm = l }
}

// WithSearchPath sets the directories searched for module libraries.
func WithSearchPath(sp dl.SearchPath) Option {
	return func(r *Registry) { r.path = sp }
}

// WithClasses sets the class list modules register into. It must be the list
// behind the table's Classes service. When unset, the table's list is used.
func WithClasses(l *class.List) Option {
	return func(r *Registry) { r.classes = l }
}

// WithLogger sets the registry's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.log = l }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{byName: make(map[string]*Module)}
	for _, opt := range opts {
		opt(r)
	}
	if r.loader == nil {
		r.loader = dl.NewNativeLoader()
	}
	if r.log == nil {
		r.log = Logger()
	}
	return r
}

// Load returns the module called name, loading it on first use. args are
// handed to the module's init. Concurrent loads are serialized.
func (r *Registry) Load(ctx context.Context, table *abi.Table, name string, args []string) (*Module, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module name cannot be empty")
	}
	if table == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "callback table is required")
	}
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	return r.load(ctx, table, name, args)
}

// Find returns the module called name, or nil.
func (r *Registry) Find(name string) *Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// FindModule implements abi.Modules.
func (r *Registry) FindModule(name string) (abi.ModuleInfo, bool) {
	if m := r.Find(name); m != nil {
		return m, true
	}
	return nil, false
}

// Depends reports whether a module called name is loaded with exactly major
// and at least minor. Modules with major 0 are unversioned and never match.
func (r *Registry) Depends(name string, major, minor int) bool {
	m := r.Find(name)
	if m == nil || m.major == 0 {
		return false
	}
	return m.major == major && m.minor >= minor
}

// Modules returns the loaded modules in load order.
func (r *Registry) Modules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Module(nil), r.modules...)
}

// First returns the first loaded module, or nil.
func (r *Registry) First() *Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.modules) == 0 {
		return nil
	}
	return r.modules[0]
}

// Len returns the number of loaded modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

func (r *Registry) register(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
	r.byName[m.name] = m
}

func (r *Registry) classList(table *abi.Table) (*class.List, error) {
	if r.classes != nil {
		return r.classes, nil
	}
	if l, ok := table.Classes().(*class.List); ok {
		return l, nil
	}
	return nil, errors.InvalidInput(errors.PhaseLoad, "registry needs a class list: use WithClasses")
}

// Close releases the wasm runtime created by the registry, if any. Loaded
// libraries stay mapped until the process exits.
func (r *Registry) Close() error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if !r.ownsWasm {
		return nil
	}
	r.ownsWasm = false
	if c, ok := r.wasm.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
