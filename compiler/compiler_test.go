package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/simhost/errors"
)

// fakeRunner records commands. A link command creates its output file.
type fakeRunner struct {
	fail     map[string]int
	commands [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	f.commands = append(f.commands, append([]string{name}, args...))
	step := "link"
	for _, a := range args {
		if a == "-c" {
			step = "compile"
		}
	}
	if name == "chcon" {
		step = "chcon"
	}
	if status := f.fail[step]; status != 0 {
		return status, nil
	}
	if step == "link" {
		out := args[len(args)-1]
		if err := os.WriteFile(out, []byte("ELF"), 0o755); err != nil {
			return -1, err
		}
	}
	return 0, nil
}

var testToolchain = Toolchain{CC: "cc", CCFlags: "-DLINUX -O2", LDFlags: "--export-dynamic"}

func TestCompile_Success(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "glue")
	runner := &fakeRunner{}
	c := New(WithToolchain(testToolchain), WithRunner(runner))

	out, err := c.Compile(context.Background(), Request{
		Name:   name,
		Source: "int create_glue(void) { return 1; }\n",
	})
	require.NoError(t, err)
	assert.Equal(t, Output(name), out)
	assert.FileExists(t, out)
	assert.NoFileExists(t, name+".c")

	require.Len(t, runner.commands, 2)
	compile := strings.Join(runner.commands[0], " ")
	link := strings.Join(runner.commands[1], " ")
	if runtime.GOOS != "windows" {
		assert.Equal(t, "cc -DLINUX -O2 -c "+name+".c -o "+name+".o", compile)
		assert.Equal(t, "cc -Wl,--export-dynamic -shared "+name+".o -o "+out, link)
	}
}

func TestCompile_KeepWorkAndRender(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "glue")
	c := New(WithToolchain(testToolchain), WithRunner(&fakeRunner{}))

	_, err := c.Compile(context.Background(), Request{
		Name:       name,
		Source:     "int x;\n",
		Prefix:     "#include <math.h>",
		OriginFile: `models\ieee13.glm`,
		OriginLine: 42,
		Flags:      KeepWork,
	})
	require.NoError(t, err)

	src, err := os.ReadFile(name + ".c")
	require.NoError(t, err)
	want := "/* automatically generated code\nSource: models/ieee13.glm(42)\n */\n" +
		"#include <math.h>\n" +
		"#line 42 \"models/ieee13.glm\"\n" +
		"int x;\n"
	assert.Equal(t, want, string(src))
}

func TestRender_NoOrigin(t *testing.T) {
	got := render(Request{Source: "int x;"})
	assert.NotContains(t, got, "#line")
	assert.True(t, strings.HasSuffix(got, "\n\nint x;"))
}

// A failing compile yields toolchain_failure with the tool's status and
// leaves no library behind, not even one from an earlier build.
func TestCompile_ToolchainFailure(t *testing.T) {
	for _, step := range []string{"compile", "link"} {
		t.Run(step, func(t *testing.T) {
			dir := t.TempDir()
			name := filepath.Join(dir, "broken")
			require.NoError(t, os.WriteFile(Output(name), []byte("stale"), 0o755))
			runner := &fakeRunner{fail: map[string]int{step: 1}}
			c := New(WithToolchain(testToolchain), WithRunner(runner))

			out, err := c.Compile(context.Background(), Request{Name: name, Source: "this is not C"})
			require.Error(t, err)
			assert.Empty(t, out)
			assert.True(t, errors.IsKind(err, errors.KindToolchainFailure))
			assert.Equal(t, 1, errors.ExitStatus(err))
			assert.NoFileExists(t, Output(name))
			assert.NoFileExists(t, name+".c")
		})
	}
}

func TestCompile_StopsAfterFailedCompile(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{fail: map[string]int{"compile": 2}}
	c := New(WithToolchain(testToolchain), WithRunner(runner))

	_, err := c.Compile(context.Background(), Request{Name: filepath.Join(dir, "x"), Source: "?"})
	assert.Equal(t, 2, errors.ExitStatus(err))
	assert.Len(t, runner.commands, 1)
}

func TestCompile_Relabel(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relabeling is linux only")
	}
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	tc := testToolchain
	tc.Relabel = true
	runner := &fakeRunner{fail: map[string]int{"chcon": 1}}
	c := New(WithToolchain(tc), WithRunner(runner), WithLogger(zap.New(core)))

	out, err := c.Compile(context.Background(), Request{Name: filepath.Join(dir, "se"), Source: "int x;", Flags: Verbose})
	require.NoError(t, err, "relabel failure is only a warning")
	require.Len(t, runner.commands, 3)
	assert.Equal(t, []string{"chcon", "-t", "textrel_shlib_t", out}, runner.commands[2])
	assert.Equal(t, 1, logs.FilterMessage("relabel failed").Len())
	assert.Equal(t, 3, logs.FilterLevelExact(zapcore.InfoLevel).FilterMessage("command").Len())
}

func TestCompile_EmptyName(t *testing.T) {
	_, err := New(WithRunner(&fakeRunner{})).Compile(context.Background(), Request{})
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestToolchain_ApplyEnv(t *testing.T) {
	t.Setenv("CC", "clang")
	t.Setenv("CCFLAGS", "-DTEST")
	t.Setenv("LDFLAGS", "-z,now")
	t.Setenv("SIMHOST_RELABEL", "true")

	tc := Toolchain{CC: "gcc", CCFlags: "-DLINUX", LDFlags: "--export-dynamic"}.ApplyEnv()
	assert.Equal(t, "clang", tc.CC)
	assert.Equal(t, "-DTEST", tc.CCFlags)
	assert.Equal(t, "-z,now", tc.LDFlags)
	assert.True(t, tc.Relabel)
}

func TestToolchain_ApplyEnvSeesLaterChanges(t *testing.T) {
	base := Toolchain{CC: "gcc", LDFlags: "--export-dynamic"}
	t.Setenv("CC", "clang")
	t.Setenv("LDFLAGS", "")
	first := base.ApplyEnv()
	assert.Equal(t, "clang", first.CC)
	assert.Equal(t, "--export-dynamic", first.LDFlags)

	t.Setenv("CC", "tcc")
	t.Setenv("LDFLAGS", "-z,now")
	tc := base.ApplyEnv()
	assert.Equal(t, "tcc", tc.CC)
	assert.Equal(t, "-z,now", tc.LDFlags)
}

func TestDefaultToolchain(t *testing.T) {
	tc := DefaultToolchain()
	assert.NotEmpty(t, tc.CC)
	assert.NotEmpty(t, tc.CCFlags)
	if runtime.GOOS == "linux" {
		assert.Equal(t, "--export-dynamic", tc.LDFlags)
	}
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	status, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, status)

	status, err = ExecRunner{}.Run(context.Background(), "/nonexistent/tool")
	assert.Error(t, err)
	assert.Equal(t, -1, status)
}
