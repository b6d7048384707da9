package module

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// nativeInit is the C init entry point. It returns a class handle obtained
// from the table's class_register callback, or 0 on failure.
type nativeInit func(table, mod uintptr, argc int32, argv **byte) uintptr

func (r *Registry) load(ctx context.Context, table *abi.Table, name string, args []string) (*Module, error) {
	if m := r.Find(name); m != nil {
		r.log.Debug("module already loaded", zap.String("module", name))
		return m, nil
	}
	classes, err := r.classList(table)
	if err != nil {
		return nil, err
	}
	if parent, child, ok := strings.Cut(name, "::"); ok {
		return r.loadForeign(ctx, table, classes, name, parent, child, args)
	}

	lib, path, err := r.open(r.loader, dl.FileName(name), name, false)
	if err != nil {
		return nil, err
	}
	m := &Module{name: name, path: path, lib: lib}
	if err := r.handshake(table, classes, m, args, ""); err != nil {
		r.release(m)
		return nil, err
	}
	r.register(m)
	r.log.Debug("module loaded",
		zap.String("module", name),
		zap.String("path", path),
		zap.Int("classes", len(m.classes)))
	return m, nil
}

// open locates file along the search path and opens it. Names not found are
// passed to the loader unchanged so the OS search rules still apply.
func (r *Registry) open(l dl.Loader, file, name string, data bool) (dl.Library, string, error) {
	var path string
	var found bool
	if data {
		path, found = r.path.FindData(file)
	} else {
		path, found = r.path.Find(file)
	}
	if !found {
		r.log.Debug("not found in search path, using library loader", zap.String("file", file))
	}
	lib, err := l.Open(path)
	if err != nil {
		return nil, path, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Subject(name).
			Detail("module load failed: %s", path).
			Cause(err).
			Build()
	}
	return lib, path, nil
}

func (r *Registry) release(m *Module) {
	if err := m.lib.Close(); err != nil {
		r.log.Warn("library close failed", zap.String("module", m.name), zap.Error(err))
	}
}

// handshake reads the version exports, binds the entry points, calls init
// and binds the intrinsics of every class init registered. suffix replaces
// the class name in intrinsic symbols when set. On failure the classes
// registered by init are withdrawn.
func (r *Registry) handshake(table *abi.Table, classes *class.List, m *Module, args []string, suffix string) error {
	initSym, err := m.lib.Lookup("init")
	if err != nil {
		return errors.AbiMissing(errors.PhaseBind, m.name, "init")
	}
	if sym, err := m.lib.Lookup("major"); err == nil {
		m.major, _ = dl.Int(sym)
	}
	if sym, err := m.lib.Lookup("minor"); err == nil {
		m.minor, _ = dl.Int(sym)
	}
	m.entries = bindEntries(m.lib, r.log.With(zap.String("module", m.name)))

	mark := classes.Len()
	head, err := callInit(table, m, initSym, args)
	if err == nil && head == nil {
		err = errors.New(errors.PhaseInit, errors.KindInitFailed).
			Subject(m.name).
			Detail("init returned no class list").
			Build()
	}
	if err != nil {
		classes.Truncate(mark)
		return err
	}

	owned := classes.Since(mark)
	if err := bindIntrinsics(m, owned, suffix); err != nil {
		classes.Truncate(mark)
		return err
	}
	m.classes = owned
	return nil
}

func callInit(table *abi.Table, m *Module, sym dl.Symbol, args []string) (head *class.Class, err error) {
	defer func() {
		if p := recover(); p != nil {
			head, err = nil, errors.InitFailed(m.name, fmt.Errorf("panic: %v", p))
		}
	}()

	if _, ok := sym.(dl.Addr); ok {
		return callNativeInit(table, m, sym, args)
	}
	var init InitFunc
	if err := dl.Bind(&init, sym); err != nil {
		return nil, errors.Wrap(errors.PhaseBind, errors.KindAbiMissing, err, "init has the wrong signature")
	}
	head, err = init(table, m, args)
	if err != nil {
		return nil, errors.InitFailed(m.name, err)
	}
	return head, nil
}

func callNativeInit(table *abi.Table, m *Module, sym dl.Symbol, args []string) (*class.Class, error) {
	var init nativeInit
	if err := dl.Bind(&init, sym); err != nil {
		return nil, err
	}
	callbacks, err := table.Native()
	if err != nil {
		return nil, err
	}
	argv := dl.NewCArgs(args)
	defer runtime.KeepAlive(argv)

	h := init(callbacks, table.Handles().Put(m), argv.Argc(), argv.Argv())
	if h == 0 {
		return nil, errors.InitFailed(m.name, nil)
	}
	v, _ := table.Handles().Get(h)
	c, ok := v.(*class.Class)
	if !ok {
		return nil, errors.New(errors.PhaseInit, errors.KindInitFailed).
			Subject(m.name).
			Detail("init returned unknown class handle %d", h).
			Build()
	}
	return c, nil
}

// bindIntrinsics resolves <intrinsic>_<class> for every class. Intrinsics
// already set, for instance by a subload, are kept.
func bindIntrinsics(m *Module, classes []*class.Class, suffix string) error {
	for _, c := range classes {
		name := suffix
		if name == "" {
			name = c.Name
		}
		for i := class.Intrinsic(0); i < class.NumIntrinsics; i++ {
			if c.Intrinsics.Bound(i) {
				continue
			}
			fname := i.String() + "_" + name
			sym, err := m.lib.Lookup(fname)
			if err != nil {
				if i.Required() {
					return errors.New(errors.PhaseBind, errors.KindAbiMissing).
						Subject(m.name).
						Detail("intrinsic %s is not defined in class %s", fname, c.Name).
						Value(fname).
						Cause(err).
						Build()
				}
				continue
			}
			c.Intrinsics[i] = sym
		}
	}
	return nil
}
