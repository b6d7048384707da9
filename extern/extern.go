// Package extern maps functions exported by auxiliary libraries into a flat,
// name-keyed table. The host hands these functions to module code by name,
// typically as transform functions.
package extern

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// Entry is one requested function.
type Entry struct {
	lib dl.Library
	// Func is the resolved function, nil when resolution failed.
	Func dl.Symbol
	// Name is the requested name without any @ordinal suffix.
	Name string
	// Library is the logical name of the owning library.
	Library string
}

// Resolved reports whether the function was found.
func (e *Entry) Resolved() bool { return e.Func != nil }

// Registry is the external function table.
type Registry struct {
	loader   dl.Loader
	log      *zap.Logger
	libs     map[string]dl.Library
	byName   map[string]*Entry
	path     dl.SearchPath
	entries  []*Entry
	ordinals bool
	mu       sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader sets the library loader. The default is the platform loader.
func WithLoader(l dl.Loader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithSearchPath sets the directories searched for libraries.
func WithSearchPath(sp dl.SearchPath) Option {
	return func(r *Registry) { r.path = sp }
}

// WithLogger sets the registry's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithOrdinals selects lookup by ordinal for name@ordinal requests. It
// defaults to the platform's convention.
func WithOrdinals(on bool) Option {
	return func(r *Registry) { r.ordinals = on }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		libs:     make(map[string]dl.Library),
		byName:   make(map[string]*Entry),
		ordinals: dl.OrdinalExports,
	}
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

// SplitList splits a function list on commas and white space.
func SplitList(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// LoadLibraryFunctions loads library and maps every function in list. Only
// a library that cannot be loaded is an error; functions that cannot be
// resolved or are already defined are logged and skipped.
func (r *Registry) LoadLibraryFunctions(library, list string) error {
	if library == "" {
		return errors.InvalidInput(errors.PhaseExtern, "library name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.open(library)
	if err != nil {
		return err
	}
	for _, fn := range SplitList(list) {
		r.add(fn, library, lib)
	}
	return nil
}

func (r *Registry) open(library string) (dl.Library, error) {
	if lib, ok := r.libs[library]; ok {
		return lib, nil
	}
	path, _ := r.path.Find(dl.FileName(library))
	lib, err := r.loader.Open(path)
	if err != nil {
		r.log.Error("unable to load external library", zap.String("library", path), zap.Error(err))
		return nil, errors.New(errors.PhaseExtern, errors.KindNotFound).
			Subject(library).
			Detail("unable to load external library %s", path).
			Cause(err).
			Build()
	}
	r.libs[library] = lib
	r.log.Debug("loaded external function library", zap.String("library", library))
	return lib, nil
}

func (r *Registry) add(requested, library string, lib dl.Library) {
	name, ordinal, byOrdinal := splitOrdinal(requested)
	if _, ok := r.byName[name]; ok {
		r.log.Warn("external function is already defined", zap.String("function", name))
		return
	}

	e := &Entry{Name: name, Library: library, lib: lib}
	var sym dl.Symbol
	var err error
	if ol, ok := lib.(dl.OrdinalLookuper); ok && byOrdinal && r.ordinals {
		sym, err = ol.LookupOrdinal(ordinal)
	} else {
		sym, err = lib.Lookup(name)
	}
	if err == nil {
		e.Func = sym
		r.log.Debug("external function added",
			zap.String("function", name),
			zap.String("library", library))
	} else {
		r.log.Warn("external function not found in library",
			zap.String("function", requested),
			zap.String("library", library),
			zap.Error(err))
	}
	r.entries = append(r.entries, e)
	r.byName[name] = e
}

// splitOrdinal parses name@ordinal.
func splitOrdinal(s string) (name string, ordinal uint16, ok bool) {
	base, ord, found := strings.Cut(s, "@")
	if !found || base == "" {
		return s, 0, false
	}
	n, err := strconv.ParseUint(ord, 10, 16)
	if err != nil {
		return s, 0, false
	}
	return base, uint16(n), true
}

// Resolve returns the function registered as name. Entries whose resolution
// failed are reported as absent.
func (r *Registry) Resolve(name string) (dl.Symbol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok || e.Func == nil {
		return nil, false
	}
	return e.Func, true
}

// Bind stores the function registered as name into fptr, a pointer to a
// func variable.
func (r *Registry) Bind(name string, fptr any) error {
	sym, ok := r.Resolve(name)
	if !ok {
		return errors.NotFound(errors.PhaseExtern, "external function", name)
	}
	if err := dl.Bind(fptr, sym); err != nil {
		return errors.Wrap(errors.PhaseExtern, errors.KindTypeMismatch, err, "bind "+name)
	}
	return nil
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}
