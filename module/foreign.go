package module

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// bridge loads a foreign child when its parent has no subload.
type bridge func(r *Registry, ctx context.Context, table *abi.Table, classes *class.List, name, parent, child string) (*Module, error)

var bridges = map[string]bridge{
	"matlab": loadArgBridge,
	"wasm":   loadWasmBridge,
}

// Bridges returns the names of the built-in foreign module bridges.
func Bridges() []string {
	return []string{"matlab", "wasm"}
}

func (r *Registry) loadForeign(ctx context.Context, table *abi.Table, classes *class.List, name, parentName, child string, args []string) (*Module, error) {
	if parentName == "" || child == "" {
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			Subject(name).
			Detail("foreign module names have the form parent::child").
			Build()
	}

	_, isBridge := bridges[parentName]
	parent, err := r.load(ctx, table, parentName, nil)
	if err != nil {
		if !isBridge {
			return nil, errors.New(errors.PhaseResolve, errors.KindNotFound).
				Subject(name).
				Detail("parent module %s cannot be loaded", parentName).
				Cause(err).
				Build()
		}
		r.log.Debug("parent is not a module, using bridge", zap.String("bridge", parentName))
		parent = nil
	}

	if parent != nil && parent.entries.Subload != nil {
		return r.subload(classes, parent, name, child, args)
	}
	if !isBridge {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnsupported).
			Subject(name).
			Detail("foreign module type %s not recognized or supported", parentName).
			Build()
	}
	m, err := bridges[parentName](r, ctx, table, classes, name, parentName, child)
	if err != nil {
		return nil, err
	}
	r.register(m)
	r.log.Debug("foreign module loaded", zap.String("module", name), zap.String("bridge", parentName))
	return m, nil
}

// subload asks parent to produce child. The classes registered during the
// call belong to the child and follow the parent's in the class list.
func (r *Registry) subload(classes *class.List, parent *Module, name, child string, args []string) (m *Module, err error) {
	mark := classes.Len()
	defer func() {
		if p := recover(); p != nil {
			err = errors.InitFailed(name, fmt.Errorf("subload panic: %v", p))
		}
		if err != nil {
			classes.Truncate(mark)
			m = nil
		}
	}()

	if !parent.entries.Subload(child, args) {
		return nil, errors.New(errors.PhaseResolve, errors.KindInitFailed).
			Subject(name).
			Detail("subload failed").
			Build()
	}

	m = &Module{
		name:  name,
		path:  parent.path,
		lib:   parent.lib,
		major: parent.major,
		minor: parent.minor,
	}
	owned := classes.Since(mark)
	for _, c := range owned {
		c.Owner = m
	}
	if err := bindIntrinsics(m, owned, child); err != nil {
		return nil, err
	}
	m.classes = owned
	r.register(m)
	r.log.Debug("foreign module loaded", zap.String("module", name), zap.String("parent", parent.name))
	return m, nil
}

// loadArgBridge loads the parent library as a module of its own, passing the
// child name as the only argument. Intrinsics are <intrinsic>_<parent>.
func loadArgBridge(r *Registry, _ context.Context, table *abi.Table, classes *class.List, name, parent, child string) (*Module, error) {
	lib, path, err := r.open(r.loader, dl.FileName(parent), name, false)
	if err != nil {
		return nil, err
	}
	m := &Module{name: name, path: path, lib: lib}
	if err := r.handshake(table, classes, m, []string{child}, parent); err != nil {
		r.release(m)
		return nil, err
	}
	return m, nil
}

// loadWasmBridge loads <child>.wasm as a module with one class named child.
// Intrinsics are the wasm exports <intrinsic>_<child>.
func loadWasmBridge(r *Registry, ctx context.Context, _ *abi.Table, classes *class.List, name, _, child string) (*Module, error) {
	lib, path, err := r.open(r.wasmLoader(ctx), child+dl.WasmExt, name, true)
	if err != nil {
		return nil, err
	}
	m := &Module{name: name, path: path, lib: lib}
	if sym, err := lib.Lookup("major"); err == nil {
		m.major, _ = dl.Int(sym)
	}
	if sym, err := lib.Lookup("minor"); err == nil {
		m.minor, _ = dl.Int(sym)
	}

	mark := classes.Len()
	c, err := classes.Register(m, child, 0, 0)
	if err != nil {
		r.release(m)
		return nil, err
	}
	if err := bindIntrinsics(m, []*class.Class{c}, child); err != nil {
		classes.Truncate(mark)
		r.release(m)
		return nil, err
	}
	m.classes = []*class.Class{c}
	return m, nil
}

func (r *Registry) wasmLoader(ctx context.Context) dl.Loader {
	if r.wasm == nil {
		r.wasm = dl.NewWasmLoader(context.WithoutCancel(ctx), nil)
		r.ownsWasm = true
	}
	return r.wasm
}
