package dl

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/simhost/errors"
)

// WasmExt is the file extension of wasm modules.
const WasmExt = ".wasm"

// WasmConfig holds configuration for the wasm loader.
type WasmConfig struct {
	// MemoryLimitPages caps memory per instance in 64KB pages. 0 means the
	// wazero default.
	MemoryLimitPages uint32
}

// WasmLoader opens core wasm modules as libraries. Exported functions are
// returned as api.Function symbols and exported globals as api.Global.
type WasmLoader struct {
	ctx     context.Context
	runtime wazero.Runtime
	sources map[string][]byte
	mu      sync.Mutex
}

// NewWasmLoader creates a loader with its own wazero runtime. ctx is used for
// compilation, instantiation and calls made through the opened libraries.
func NewWasmLoader(ctx context.Context, cfg *WasmConfig) *WasmLoader {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &WasmLoader{
		ctx:     ctx,
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		sources: make(map[string][]byte),
	}
}

// Register serves name from memory instead of the file system.
func (l *WasmLoader) Register(name string, wasm []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[strings.TrimSuffix(baseName(name), WasmExt)] = wasm
}

func (l *WasmLoader) Open(path string) (Library, error) {
	l.mu.Lock()
	src, ok := l.sources[strings.TrimSuffix(baseName(path), WasmExt)]
	l.mu.Unlock()
	if !ok {
		var err error
		if src, err = os.ReadFile(path); err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Subject(path).
				Detail("cannot read wasm module").
				Cause(err).
				Build()
		}
	}

	compiled, err := l.runtime.CompileModule(l.ctx, src)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "compile "+path)
	}
	// anonymous so the same module can be opened more than once
	inst, err := l.runtime.InstantiateModule(l.ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = compiled.Close(l.ctx)
		return nil, errors.Wrap(errors.PhaseInit, errors.KindInitFailed, err, "instantiate "+path)
	}
	return &wasmLibrary{ctx: l.ctx, path: path, compiled: compiled, inst: inst}, nil
}

// Close releases the wazero runtime and every module opened through it.
func (l *WasmLoader) Close() error {
	return l.runtime.Close(l.ctx)
}

type wasmLibrary struct {
	ctx      context.Context
	compiled wazero.CompiledModule
	inst     api.Module
	path     string
}

func (w *wasmLibrary) Path() string { return w.path }

func (w *wasmLibrary) Lookup(name string) (Symbol, error) {
	if fn := w.inst.ExportedFunction(name); fn != nil {
		return fn, nil
	}
	if g := w.inst.ExportedGlobal(name); g != nil {
		return g, nil
	}
	return nil, errors.New(errors.PhaseBind, errors.KindNotFound).
		Subject(name).
		Detail("export not found in %s", w.path).
		Build()
}

func (w *wasmLibrary) Close() error {
	err := w.inst.Close(w.ctx)
	if cerr := w.compiled.Close(w.ctx); err == nil {
		err = cerr
	}
	return err
}
