package runtime

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/compiler"
	"github.com/wippyai/simhost/config"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
	"github.com/wippyai/simhost/extern"
	"github.com/wippyai/simhost/module"
	"github.com/wippyai/simhost/sched"
)

// Runtime is the extensibility runtime of one process: the callback table,
// the module and external function registries, the compiler and the
// scheduler, wired together from one configuration.
type Runtime struct {
	table    *abi.Table
	classes  *class.List
	static   *dl.Static
	wasm     *dl.WasmLoader
	modules  *module.Registry
	externs  *extern.Registry
	compiler *compiler.Compiler
	sched    *sched.Scheduler
	log      *zap.Logger
	cfg      config.Config
}

type options struct {
	cfg       config.Config
	services  abi.Services
	loader    dl.Loader
	log       *zap.Logger
	schedOpts []sched.Option
	compOpts  []compiler.Option
	hasConfig bool
}

// Option configures a Runtime.
type Option func(*options)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
		o.hasConfig = true
	}
}

// WithServices supplies host services for the callback table. Classes,
// Modules and Memory are always provided by the runtime.
func WithServices(s abi.Services) Option {
	return func(o *options) { o.services = s }
}

// WithLoader replaces the native library loader. Go modules registered
// with RegisterModule are still found first.
func WithLoader(l dl.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSchedulerOptions passes options to the scheduler.
func WithSchedulerOptions(opts ...sched.Option) Option {
	return func(o *options) { o.schedOpts = append(o.schedOpts, opts...) }
}

// WithCompilerOptions passes options to the compiler.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(o *options) { o.compOpts = append(o.compOpts, opts...) }
}

// New builds the callback table once and wires the registries around it.
// Without WithConfig the defaults are used with environment overrides.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if !o.hasConfig {
		o.cfg = config.Default().ApplyEnv()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.log == nil {
		o.log = Logger()
	}
	if o.loader == nil {
		o.loader = dl.NewNativeLoader()
	}

	r := &Runtime{
		cfg:     o.cfg,
		log:     o.log,
		classes: class.NewList(),
		static:  dl.NewStatic(),
		wasm:    dl.NewWasmLoader(context.WithoutCancel(ctx), nil),
	}
	loader := dl.Chain{r.static, o.loader}
	search := o.cfg.Search()

	r.modules = module.NewRegistry(
		module.WithLoader(loader),
		module.WithWasmLoader(r.wasm),
		module.WithSearchPath(search),
		module.WithClasses(r.classes),
		module.WithLogger(o.log.Named("module")),
	)

	services := o.services
	services.Classes = r.classes
	services.Modules = r.modules
	services.Memory = abi.NewAllocator(o.cfg.MemoryLimit)
	if services.Output == nil {
		services.Output = abi.NewLogOutput(o.log.Named("output"))
	}
	r.table = abi.New(services)

	r.externs = extern.New(
		extern.WithLoader(loader),
		extern.WithSearchPath(search),
		extern.WithLogger(o.log.Named("extern")),
	)
	r.compiler = compiler.New(append([]compiler.Option{
		compiler.WithToolchain(o.cfg.Toolchain),
		compiler.WithLogger(o.log.Named("compiler")),
	}, o.compOpts...)...)
	r.sched = sched.New(sched.Config{
		Path:      o.cfg.ProcessMap,
		Slots:     o.cfg.Slots,
		AutoClean: o.cfg.AutoClean,
	}, append([]sched.Option{sched.WithLogger(o.log.Named("sched"))}, o.schedOpts...)...)

	o.log.Debug("runtime ready",
		zap.Strings("search_path", o.cfg.SearchPath),
		zap.String("process_map", o.cfg.ProcessMap))
	return r, nil
}

func (r *Runtime) Table() *abi.Table { return r.table }

func (r *Runtime) Config() config.Config { return r.cfg }

func (r *Runtime) Modules() *module.Registry { return r.modules }

func (r *Runtime) Externs() *extern.Registry { return r.externs }

func (r *Runtime) Compiler() *compiler.Compiler { return r.compiler }

func (r *Runtime) Scheduler() *sched.Scheduler { return r.sched }

// Classes returns every class registered by loaded modules, in load order.
func (r *Runtime) Classes() *class.List { return r.classes }

// RegisterModule makes a Go-implemented module loadable under name. See
// Exports for how its methods become entry points.
func (r *Runtime) RegisterModule(name string, impl any) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseRegister, "module name cannot be empty")
	}
	syms, err := Exports(impl)
	if err != nil {
		return err
	}
	if _, ok := syms["init"]; !ok {
		return errors.AbiMissing(errors.PhaseRegister, name, "init")
	}
	r.static.Register(name, syms)
	r.log.Debug("go module registered", zap.String("module", name), zap.Int("exports", len(syms)))
	return nil
}

// RegisterWasm makes a wasm binary loadable as wasm::<name>.
func (r *Runtime) RegisterWasm(name string, wasm []byte) {
	r.wasm.Register(name, wasm)
}

// Load loads a module by name and returns it, or the already loaded one.
func (r *Runtime) Load(ctx context.Context, name string, args []string) (*module.Module, error) {
	return r.modules.Load(ctx, r.table, name, args)
}

func (r *Runtime) Find(name string) *module.Module {
	return r.modules.Find(name)
}

// Depends reports whether name is loaded with version major.minor or a
// compatible later minor.
func (r *Runtime) Depends(name string, major, minor int) bool {
	return r.modules.Depends(name, major, minor)
}

// LoadFunctions registers the comma-separated function list exported by
// library.
func (r *Runtime) LoadFunctions(library, list string) error {
	return r.externs.LoadLibraryFunctions(library, list)
}

func (r *Runtime) Resolve(name string) (dl.Symbol, bool) {
	return r.externs.Resolve(name)
}

// Compile builds req into a library and loads it as a module named
// req.Name.
func (r *Runtime) Compile(ctx context.Context, req compiler.Request, args []string) (*module.Module, error) {
	if _, err := r.compiler.Compile(ctx, req); err != nil {
		return nil, err
	}
	return r.Load(ctx, req.Name, args)
}

// Start claims a processor slot for this process.
func (r *Runtime) Start(ctx context.Context) error {
	return r.sched.Init(ctx)
}

// Update reports simulation progress to the process table.
func (r *Runtime) Update(clock int64, status sched.Status) {
	r.sched.Update(clock, status)
}

// Close runs every module's term hook, releases the processor slot and
// closes the loaders. Module libraries stay mapped until process exit.
func (r *Runtime) Close() error {
	r.modules.TermAll()
	r.sched.Finish()
	return stderrors.Join(
		r.sched.Close(),
		r.modules.Close(),
		r.wasm.Close(),
	)
}
