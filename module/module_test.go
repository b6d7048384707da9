package module

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// closeTracker records libraries closed through it.
type closeTracker struct {
	dl.Loader
	closed []string
}

func (c *closeTracker) Open(path string) (dl.Library, error) {
	lib, err := c.Loader.Open(path)
	if err != nil {
		return nil, err
	}
	return &trackedLibrary{Library: lib, t: c}, nil
}

type trackedLibrary struct {
	dl.Library
	t *closeTracker
}

func (l *trackedLibrary) Close() error {
	l.t.closed = append(l.t.closed, l.Path())
	return l.Library.Close()
}

type host struct {
	reg     *Registry
	table   *abi.Table
	static  *dl.Static
	classes *class.List
	loader  *closeTracker
}

func newHost(t *testing.T, opts ...Option) *host {
	t.Helper()
	h := &host{static: dl.NewStatic(), classes: class.NewList()}
	h.loader = &closeTracker{Loader: h.static}
	opts = append([]Option{WithLoader(h.loader), WithClasses(h.classes)}, opts...)
	h.reg = NewRegistry(opts...)
	h.table = abi.New(abi.Services{Classes: h.classes, Modules: h.reg})
	t.Cleanup(func() { _ = h.reg.Close() })
	return h
}

func noop() int { return 0 }

// registerClasses returns an init registering the named classes.
func registerClasses(calls *int, names ...string) InitFunc {
	return func(table *abi.Table, mod *Module, args []string) (*class.Class, error) {
		if calls != nil {
			*calls++
		}
		var head *class.Class
		for _, n := range names {
			c, err := table.Classes().Register(mod, n, 0, class.PassBottomUp)
			if err != nil {
				return nil, err
			}
			if head == nil {
				head = c
			}
		}
		return head, nil
	}
}

func tapeSymbols(calls *int) dl.Symbols {
	return dl.Symbols{
		"init":            registerClasses(calls, "player", "recorder"),
		"major":           2,
		"minor":           3,
		"create_player":   noop,
		"sync_player":     noop,
		"create_recorder": noop,
		"commit_recorder": noop,
	}
}

func TestLoad_Idempotent(t *testing.T) {
	h := newHost(t)
	calls := 0
	h.static.Register("tape", tapeSymbols(&calls))
	h.static.Register("climate", dl.Symbols{
		"init":           registerClasses(nil, "weather"),
		"create_weather": noop,
	})
	ctx := context.Background()

	first, err := h.reg.Load(ctx, h.table, "tape", nil)
	require.NoError(t, err)
	_, err = h.reg.Load(ctx, h.table, "climate", nil)
	require.NoError(t, err)
	second, err := h.reg.Load(ctx, h.table, "tape", []string{"ignored"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, h.classes.Len())

	mods := h.reg.Modules()
	require.Len(t, mods, 2)
	assert.Equal(t, "tape", mods[0].Name())
	assert.Equal(t, "climate", mods[1].Name())
	assert.Same(t, first, h.reg.First())
}

func TestLoad_BindsIntrinsics(t *testing.T) {
	h := newHost(t)
	h.static.Register("tape", tapeSymbols(nil))

	m, err := h.reg.Load(context.Background(), h.table, "tape", nil)
	require.NoError(t, err)

	major, minor := m.Version()
	assert.Equal(t, 2, major)
	assert.Equal(t, 3, minor)

	classes := m.Classes()
	require.Len(t, classes, 2)
	assert.Same(t, classes[0], m.Class())
	player, recorder := classes[0], classes[1]
	assert.Equal(t, "player", player.Name)
	assert.Same(t, m, player.Owner)

	assert.True(t, player.Intrinsics.Bound(class.Create))
	assert.True(t, player.Intrinsics.Bound(class.Sync))
	assert.False(t, player.Intrinsics.Bound(class.Commit))
	assert.True(t, recorder.Intrinsics.Bound(class.Commit))
	assert.False(t, recorder.Intrinsics.Bound(class.Sync))

	var create func() int
	require.NoError(t, dl.Bind(&create, player.Intrinsics[class.Create]))
	assert.Equal(t, 0, create())
}

func TestDepends(t *testing.T) {
	h := newHost(t)
	h.static.Register("tape", tapeSymbols(nil))
	h.static.Register("climate", dl.Symbols{
		"init":           registerClasses(nil, "weather"),
		"create_weather": noop,
	})
	ctx := context.Background()
	_, err := h.reg.Load(ctx, h.table, "tape", nil)
	require.NoError(t, err)
	_, err = h.reg.Load(ctx, h.table, "climate", nil)
	require.NoError(t, err)

	tests := []struct {
		name         string
		major, minor int
		want         bool
	}{
		{"tape", 2, 3, true},
		{"tape", 2, 0, true},
		{"tape", 2, 4, false},
		{"tape", 1, 0, false},
		{"tape", 3, 0, false},
		{"climate", 0, 0, false},
		{"missing", 1, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.reg.Depends(tt.name, tt.major, tt.minor),
			"Depends(%q, %d, %d)", tt.name, tt.major, tt.minor)
	}

	// the same check through the callback table
	assert.True(t, h.table.Modules().Depends("tape", 2, 1))
	info, ok := h.table.Modules().FindModule("tape")
	require.True(t, ok)
	assert.Equal(t, "tape", info.Name())
}

func TestLoad_MissingCreateRollsBack(t *testing.T) {
	h := newHost(t)
	h.static.Register("tape", tapeSymbols(nil))
	h.static.Register("broken", dl.Symbols{
		"init":        registerClasses(nil, "good", "bad"),
		"create_good": noop,
	})
	ctx := context.Background()
	_, err := h.reg.Load(ctx, h.table, "tape", nil)
	require.NoError(t, err)

	_, err = h.reg.Load(ctx, h.table, "broken", nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAbiMissing))
	assert.Contains(t, err.Error(), "create_bad")

	assert.Nil(t, h.reg.Find("broken"))
	assert.Equal(t, 1, h.reg.Len())
	assert.Equal(t, 2, h.classes.Len())
	assert.Nil(t, h.classes.Find("good"))
	assert.Nil(t, h.classes.Find("bad"))
	assert.Equal(t, []string{"broken.so"}, h.loader.closed[len(h.loader.closed)-1:])

	// a later module can reuse the withdrawn class names
	h.static.Register("fixed", dl.Symbols{
		"init":        registerClasses(nil, "good"),
		"create_good": noop,
	})
	_, err = h.reg.Load(ctx, h.table, "fixed", nil)
	require.NoError(t, err)
}

func TestLoad_Failures(t *testing.T) {
	boom := stderrors.New("boom")
	tests := []struct {
		name string
		syms dl.Symbols
		kind errors.Kind
	}{
		{"not_found", nil, errors.KindNotFound},
		{"no_init", dl.Symbols{"create_x": noop}, errors.KindAbiMissing},
		{"init_error", dl.Symbols{
			"init": InitFunc(func(table *abi.Table, mod *Module, _ []string) (*class.Class, error) {
				_, _ = table.Classes().Register(mod, "partial", 0, 0)
				return nil, boom
			}),
		}, errors.KindInitFailed},
		{"init_no_classes", dl.Symbols{
			"init": InitFunc(func(*abi.Table, *Module, []string) (*class.Class, error) { return nil, nil }),
		}, errors.KindInitFailed},
		{"init_panics", dl.Symbols{
			"init": InitFunc(func(*abi.Table, *Module, []string) (*class.Class, error) { panic("bad module") }),
		}, errors.KindInitFailed},
		{"init_wrong_type", dl.Symbols{"init": func() {}}, errors.KindAbiMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			if tt.syms != nil {
				h.static.Register(tt.name, tt.syms)
			}
			m, err := h.reg.Load(context.Background(), h.table, tt.name, nil)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.IsKind(err, tt.kind), "got %v", err)
			assert.Nil(t, h.reg.Find(tt.name))
			assert.Equal(t, 0, h.classes.Len())
		})
	}
}

func TestLoad_InvalidArguments(t *testing.T) {
	h := newHost(t)
	_, err := h.reg.Load(context.Background(), h.table, "", nil)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
	_, err = h.reg.Load(context.Background(), nil, "tape", nil)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestLoad_ClassListFromTable(t *testing.T) {
	static := dl.NewStatic()
	static.Register("tape", tapeSymbols(nil))
	reg := NewRegistry(WithLoader(static))
	table := abi.New(abi.Services{Modules: reg})

	m, err := reg.Load(context.Background(), table, "tape", nil)
	require.NoError(t, err)
	assert.NotNil(t, table.Classes().Find("player"))
	assert.Len(t, m.Classes(), 2)
}

func TestLoad_Subload(t *testing.T) {
	h := newHost(t)
	var gotArgs []string
	var parent *Module
	h.static.Register("gen", dl.Symbols{
		"init": InitFunc(func(table *abi.Table, mod *Module, _ []string) (*class.Class, error) {
			parent = mod
			return table.Classes().Register(mod, "generator", 0, 0)
		}),
		"create_generator": noop,
		"create_diesel":    noop,
		"sync_diesel":      noop,
		"subload": func(name string, args []string) bool {
			gotArgs = args
			if name != "diesel" {
				return false
			}
			_, err := h.classes.Register(parent, "diesel_engine", 0, 0)
			return err == nil
		},
	})
	ctx := context.Background()

	child, err := h.reg.Load(ctx, h.table, "gen::diesel", []string{"--fast"})
	require.NoError(t, err)
	assert.Equal(t, "gen::diesel", child.Name())
	assert.Equal(t, []string{"--fast"}, gotArgs)
	assert.NotNil(t, h.reg.Find("gen"))

	classes := child.Classes()
	require.Len(t, classes, 1)
	assert.Equal(t, "diesel_engine", classes[0].Name)
	assert.Same(t, child, classes[0].Owner)
	assert.True(t, classes[0].Intrinsics.Bound(class.Create))
	assert.True(t, classes[0].Intrinsics.Bound(class.Sync))

	// spliced after the parent's classes
	assert.Equal(t, "generator", h.classes.First().Name)
	assert.Equal(t, "diesel_engine", h.classes.Last().Name)

	_, err = h.reg.Load(ctx, h.table, "gen::solar", nil)
	assert.True(t, errors.IsKind(err, errors.KindInitFailed))
	assert.Nil(t, h.reg.Find("gen::solar"))
	assert.Equal(t, 2, h.classes.Len())
}

func TestLoad_ArgBridge(t *testing.T) {
	h := newHost(t)
	init := InitFunc(func(table *abi.Table, mod *Module, args []string) (*class.Class, error) {
		name := "engine"
		if len(args) > 0 {
			name = args[0]
		}
		return table.Classes().Register(mod, name, 0, 0)
	})
	h.static.Register("matlab", dl.Symbols{
		"init":          init,
		"create_engine": noop,
		"create_matlab": noop,
		"init_matlab":   noop,
	})

	m, err := h.reg.Load(context.Background(), h.table, "matlab::ieee13", nil)
	require.NoError(t, err)
	assert.Equal(t, "matlab::ieee13", m.Name())
	require.Len(t, m.Classes(), 1)
	c := m.Classes()[0]
	assert.Equal(t, "ieee13", c.Name)
	assert.True(t, c.Intrinsics.Bound(class.Create))
	assert.True(t, c.Intrinsics.Bound(class.Init))
	assert.NotNil(t, h.reg.Find("matlab"))
}

func TestLoad_UnknownForeignType(t *testing.T) {
	h := newHost(t)
	h.static.Register("plain", dl.Symbols{
		"init":         registerClasses(nil, "plain"),
		"create_plain": noop,
	})
	ctx := context.Background()

	_, err := h.reg.Load(ctx, h.table, "plain::child", nil)
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))

	_, err = h.reg.Load(ctx, h.table, "python::child", nil)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	_, err = h.reg.Load(ctx, h.table, "::child", nil)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
	assert.Equal(t, 1, h.reg.Len())
}

// pumpWASM exports create_pump: () -> i32 returning 42.
var pumpWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	// Type section: () -> i32
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
	// Function section: func 0 uses type 0
	0x03, 0x02, 0x01, 0x00,
	// Export section: "create_pump" -> func 0
	0x07, 0x0f, 0x01, 0x0b,
	'c', 'r', 'e', 'a', 't', 'e', '_', 'p', 'u', 'm', 'p',
	0x00, 0x00,
	// Code section: i32.const 42
	0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2a, 0x0b,
}

func TestLoad_WasmBridge(t *testing.T) {
	ctx := context.Background()
	wasm := dl.NewWasmLoader(ctx, nil)
	defer wasm.Close()
	wasm.Register("pump", pumpWASM)
	h := newHost(t, WithWasmLoader(wasm))

	m, err := h.reg.Load(ctx, h.table, "wasm::pump", nil)
	require.NoError(t, err)
	assert.Equal(t, "wasm::pump", m.Name())

	c := m.Class()
	require.NotNil(t, c)
	assert.Equal(t, "pump", c.Name)
	assert.Same(t, m, c.Owner)
	fn, ok := c.Intrinsics[class.Create].(api.Function)
	require.True(t, ok)
	res, err := fn.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{42}, res)

	_, err = h.reg.Load(ctx, h.table, "wasm::missing", nil)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	assert.Equal(t, 1, h.classes.Len())
}

func TestRegistryOperations(t *testing.T) {
	h := newHost(t)
	var order []string
	var imported, exported []string
	syms := tapeSymbols(nil)
	syms["term"] = func() { order = append(order, "tape") }
	syms["check"] = func() int { return 2 }
	syms["cmdargs"] = func(args []string) int { return len(args) }
	syms["import_file"] = func(file string) int { imported = append(imported, file); return 1 }
	syms["export_file"] = func(file string) int { exported = append(exported, file); return 1 }
	h.static.Register("tape", syms)
	h.static.Register("climate", dl.Symbols{
		"init":           registerClasses(nil, "weather"),
		"create_weather": noop,
		"term":           func() { order = append(order, "climate") },
		"check":          func() int { return 1 },
		"cmdargs":        func([]string) int { return -1 },
	})
	ctx := context.Background()
	tape, err := h.reg.Load(ctx, h.table, "tape", nil)
	require.NoError(t, err)
	climate, err := h.reg.Load(ctx, h.table, "climate", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, h.reg.CheckAll())

	n, err := h.reg.CmdArgs([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = h.reg.Import(tape, "in.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = h.reg.Import(climate, "in.csv")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	_, err = h.reg.Export(climate, "out.csv")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	assert.Equal(t, 1, h.reg.DumpAll())
	assert.Equal(t, []string{"in.csv"}, imported)
	assert.Equal(t, []string{""}, exported)

	h.reg.TermAll()
	h.reg.TermAll()
	assert.Equal(t, []string{"tape", "climate"}, order)
}

func TestCmdArgs_NoModule(t *testing.T) {
	h := newHost(t)
	_, err := h.reg.CmdArgs(nil)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestSaveAll(t *testing.T) {
	h := newHost(t)
	h.static.Register("tape", tapeSymbols(nil))
	h.static.Register("climate", dl.Symbols{
		"init":           registerClasses(nil, "weather"),
		"create_weather": noop,
	})
	ctx := context.Background()
	tape, err := h.reg.Load(ctx, h.table, "tape", nil)
	require.NoError(t, err)
	_, err = h.reg.Load(ctx, h.table, "climate", nil)
	require.NoError(t, err)

	g := h.table.Globals()
	require.NoError(t, tape.SetVar(g, "interval", "60"))
	require.NoError(t, tape.SetVar(g, "file", "out.csv"))
	require.NoError(t, g.Set("solver", "NR"))

	v, ok := tape.GetVar(g, "interval")
	require.True(t, ok)
	assert.Equal(t, "60", v)
	assert.Equal(t, []string{"interval", "file"}, tape.Vars(g))

	var buf bytes.Buffer
	n, err := h.reg.SaveAll(&buf, g)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "saveall", buf.Bytes())
}

func TestLibInfo(t *testing.T) {
	h := newHost(t)
	syms := tapeSymbols(nil)
	syms["check"] = func() int { return 0 }
	syms["setvar"] = func(string, string) int { return 1 }
	h.static.Register("tape", syms)
	tape, err := h.reg.Load(context.Background(), h.table, "tape", nil)
	require.NoError(t, err)
	require.NoError(t, tape.SetVar(h.table.Globals(), "interval", "60"))

	var buf bytes.Buffer
	require.NoError(t, LibInfo(&buf, h.table.Globals(), tape))
	want := "Module name....... tape\n" +
		"Major version..... 2\n" +
		"Minor version..... 3\n" +
		"Classes........... player, recorder\n" +
		"Implementations... setvar check\n" +
		"Globals........... interval\n"
	assert.Equal(t, want, buf.String())
}
