package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/compiler"
	"github.com/wippyai/simhost/config"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
	"github.com/wippyai/simhost/module"
	"github.com/wippyai/simhost/sched"
)

// recorder is a Go-implemented module with one class.
type recorder struct {
	args   []string
	inits  int
	terms  int
	checks int
}

func (r *recorder) Init(table *abi.Table, mod *module.Module, args []string) (*class.Class, error) {
	r.inits++
	r.args = args
	return table.Classes().Register(mod, "recorder", 0, class.PassBottomUp)
}

func (r *recorder) CreateRecorder(parent uintptr) int { return 1 }

func (r *recorder) SyncRecorder(t0 int64) int64 { return t0 + 60 }

func (r *recorder) Major() int { return 3 }

func (r *recorder) Minor() int { return 1 }

func (r *recorder) Check() int {
	r.checks++
	return 0
}

func (r *recorder) Term() { r.terms++ }

type liveHost struct{}

func (liveHost) Alive(int) bool { return true }
func (liveHost) Pin(int) error  { return nil }

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.ProcessMap = filepath.Join(t.TempDir(), sched.RegionName)
	cfg.Slots = 2
	opts = append([]Option{
		WithConfig(cfg),
		WithLoader(dl.NewStatic()),
		WithSchedulerOptions(
			sched.WithRegion(sched.NewMemory(2)),
			sched.WithProber(liveHost{}),
			sched.WithPinner(liveHost{}),
		),
	}, opts...)
	rt, err := New(context.Background(), opts...)
	require.NoError(t, err)
	return rt
}

func TestRuntime_LoadGoModule(t *testing.T) {
	rt := newRuntime(t)
	rec := &recorder{}
	require.NoError(t, rt.RegisterModule("recorder", rec))

	m, err := rt.Load(context.Background(), "recorder", []string{"--rate", "60"})
	require.NoError(t, err)
	assert.Equal(t, "recorder", m.Name())
	assert.Equal(t, []string{"--rate", "60"}, rec.args)

	major, minor := m.Version()
	assert.Equal(t, 3, major)
	assert.Equal(t, 1, minor)

	c := rt.Classes().Find("recorder")
	require.NotNil(t, c)
	assert.True(t, c.Intrinsics.Bound(class.Create))
	assert.True(t, c.Intrinsics.Bound(class.Sync))
	assert.False(t, c.Intrinsics.Bound(class.Commit))

	again, err := rt.Load(context.Background(), "recorder", nil)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, 1, rec.inits)

	assert.Same(t, m, rt.Find("recorder"))
	assert.True(t, rt.Depends("recorder", 3, 0))
	assert.False(t, rt.Depends("recorder", 2, 0))
	assert.True(t, rt.Table().Modules().Depends("recorder", 3, 1))

	assert.Equal(t, 0, rt.Modules().CheckAll())
	assert.Equal(t, 1, rec.checks)

	require.NoError(t, rt.Close())
	assert.Equal(t, 1, rec.terms)
}

func TestRuntime_LoadMissing(t *testing.T) {
	rt := newRuntime(t)
	defer rt.Close()

	_, err := rt.Load(context.Background(), "absent", nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	assert.Nil(t, rt.Find("absent"))
}

func TestRuntime_RegisterModuleErrors(t *testing.T) {
	rt := newRuntime(t)
	defer rt.Close()

	err := rt.RegisterModule("", &recorder{})
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))

	err = rt.RegisterModule("plain", &struct{ n int }{})
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch))

	err = rt.RegisterModule("noinit", explicit{"create_x": func() int { return 0 }})
	assert.True(t, errors.IsKind(err, errors.KindAbiMissing))
}

func TestRuntime_ExternalFunctions(t *testing.T) {
	static := dl.NewStatic()
	static.Register("mathlib", dl.Symbols{
		"square": func(x float64) float64 { return x * x },
		"cube":   func(x float64) float64 { return x * x * x },
	})
	rt := newRuntime(t, WithLoader(static))
	defer rt.Close()

	require.NoError(t, rt.LoadFunctions("mathlib", "square,cube,missing"))

	sym, ok := rt.Resolve("square")
	require.True(t, ok)
	square, ok := sym.(func(float64) float64)
	require.True(t, ok)
	assert.Equal(t, 9.0, square(3))

	_, ok = rt.Resolve("missing")
	assert.False(t, ok)
}

type okRunner struct{ calls int }

func (r *okRunner) Run(_ context.Context, _ string, args ...string) (int, error) {
	r.calls++
	out := args[len(args)-1]
	if filepath.Ext(out) == dl.FileName("") {
		return 0, os.WriteFile(out, []byte("lib"), 0o755)
	}
	return 0, nil
}

func TestRuntime_CompileThenLoad(t *testing.T) {
	runner := &okRunner{}
	rt := newRuntime(t, WithCompilerOptions(compiler.WithRunner(runner)))
	defer rt.Close()

	name := filepath.Join(t.TempDir(), "generated")
	require.NoError(t, rt.RegisterModule(name, &recorder{}))

	m, err := rt.Compile(context.Background(), compiler.Request{
		Name:   name,
		Source: "int x;\n",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, name, m.Name())
	assert.Equal(t, 2, runner.calls)
	assert.FileExists(t, compiler.Output(name))
}

func TestRuntime_SchedulerLifecycle(t *testing.T) {
	rt := newRuntime(t)

	require.NoError(t, rt.Start(context.Background()))
	assert.Equal(t, 0, rt.Scheduler().CPU())

	rt.Update(1700000000, sched.Running)
	rows, err := rt.Scheduler().List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sched.Running, rows[0].Status)

	require.NoError(t, rt.Close())
	assert.Equal(t, -1, rt.Scheduler().CPU())
}

func TestRuntime_WasmModule(t *testing.T) {
	rt := newRuntime(t)
	defer rt.Close()

	rt.RegisterWasm("pump", pumpWASM)
	m, err := rt.Load(context.Background(), "wasm::pump", nil)
	require.NoError(t, err)
	require.Len(t, m.Classes(), 1)
	assert.Equal(t, "pump", m.Classes()[0].Name)
}

func TestRuntime_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MemoryLimit = -1
	_, err := New(context.Background(), WithConfig(cfg))
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestRuntime_MemoryLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MemoryLimit = 64
	rt := newRuntime(t, WithConfig(cfg))
	defer rt.Close()

	_, err := rt.Table().Memory().Alloc(128)
	assert.True(t, errors.IsKind(err, errors.KindOutOfMemory))
}
