// Package compiler builds loadable modules from C source at run time.
//
// The source is written to <name>.c with a banner and a #line directive
// pointing back at its origin, compiled to <name>.o and linked to the
// platform library <name><ext> in the working directory. The caller then
// loads the result through the module registry.
package compiler

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// Flags control a build.
type Flags uint8

const (
	// Verbose reports every toolchain command at info level.
	Verbose Flags = 1 << iota
	// Debug echoes every toolchain command.
	Debug
	// KeepWork keeps the generated .c and .o files.
	KeepWork
)

// Request describes one build.
type Request struct {
	// Name is the library base name, optionally with a directory.
	Name   string
	Source string
	// Prefix is emitted after the banner, before the #line directive.
	Prefix string
	// OriginFile and OriginLine locate Source in the file it came from.
	OriginFile string
	OriginLine int
	Flags      Flags
}

// Compiler runs the external toolchain.
type Compiler struct {
	runner Runner
	log    *zap.Logger
	tc     Toolchain
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithToolchain sets the toolchain. The default is DefaultToolchain with
// environment overrides applied.
func WithToolchain(tc Toolchain) Option {
	return func(c *Compiler) { c.tc = tc }
}

// WithRunner sets the command runner.
func WithRunner(r Runner) Option {
	return func(c *Compiler) { c.runner = r }
}

// WithLogger sets the compiler's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) { c.log = l }
}

func New(opts ...Option) *Compiler {
	c := &Compiler{tc: DefaultToolchain().ApplyEnv()}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

// Toolchain returns the toolchain in use.
func (c *Compiler) Toolchain() Toolchain { return c.tc }

// Output returns the path of the library built for name.
func Output(name string) string {
	return dl.FileName(name)
}

// Compile builds the library for req and returns its path. A failing tool
// yields a toolchain_failure error carrying the exit status; no library is
// left at the output path in that case.
func (c *Compiler) Compile(ctx context.Context, req Request) (string, error) {
	if req.Name == "" {
		return "", errors.InvalidInput(errors.PhaseCompile, "library name cannot be empty")
	}
	cfile := req.Name + ".c"
	ofile := req.Name + ".o"
	afile := Output(req.Name)

	if err := removeStale(afile); err != nil {
		return "", err
	}
	if err := os.WriteFile(cfile, []byte(render(req)), 0o644); err != nil {
		return "", errors.New(errors.PhaseCompile, errors.KindResourceUnavailable).
			Subject(cfile).
			Detail("unable to write source").
			Cause(err).
			Build()
	}
	if req.Flags&KeepWork == 0 {
		defer c.cleanup(cfile, ofile)
	}

	mopt := machineOption()
	compile := joinArgs(mopt, strings.Fields(c.tc.CCFlags), "-c", cfile, "-o", ofile)
	if err := c.run(ctx, req.Flags, c.tc.CC, compile); err != nil {
		_ = os.Remove(afile)
		return "", err
	}

	var ld []string
	if c.tc.LDFlags != "" {
		ld = []string{"-Wl," + strings.Join(strings.Fields(c.tc.LDFlags), ",")}
	}
	link := joinArgs(mopt, ld, "-shared", ofile, "-o", afile)
	if err := c.run(ctx, req.Flags, c.tc.CC, link); err != nil {
		_ = os.Remove(afile)
		return "", err
	}

	if c.tc.Relabel && runtime.GOOS == "linux" {
		if err := c.run(ctx, req.Flags, "chcon", []string{"-t", "textrel_shlib_t", afile}); err != nil {
			c.log.Warn("relabel failed", zap.String("library", afile), zap.Error(err))
		}
	}
	return afile, nil
}

func (c *Compiler) run(ctx context.Context, flags Flags, name string, args []string) error {
	line := name + " " + strings.Join(args, " ")
	if flags&(Verbose|Debug) != 0 {
		c.log.Info("command", zap.String("command", line))
	} else {
		c.log.Debug("command", zap.String("command", line))
	}
	status, err := c.runner.Run(ctx, name, args...)
	c.log.Debug("return code", zap.Int("status", status))
	if err != nil || status != 0 {
		return errors.Toolchain(name, status, err)
	}
	return nil
}

func (c *Compiler) cleanup(files ...string) {
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			c.log.Warn("unable to remove work file", zap.String("file", f), zap.Error(err))
		}
	}
}

// render produces the generated source file.
func render(req Request) string {
	origin := strings.ReplaceAll(req.OriginFile, `\`, "/")
	var b strings.Builder
	fmt.Fprintf(&b, "/* automatically generated code\nSource: %s(%d)\n */\n%s\n", origin, req.OriginLine, req.Prefix)
	if origin != "" {
		fmt.Fprintf(&b, "#line %d \"%s\"\n", req.OriginLine, origin)
	}
	b.WriteString(req.Source)
	return b.String()
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New(errors.PhaseCompile, errors.KindResourceUnavailable).
			Subject(path).
			Detail("unable to remove previous build").
			Cause(err).
			Build()
	}
	return nil
}

func joinArgs(mopt string, flags []string, rest ...string) []string {
	var args []string
	if mopt != "" {
		args = append(args, mopt)
	}
	args = append(args, flags...)
	return append(args, rest...)
}
