package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/simhost/compiler"
	"github.com/wippyai/simhost/errors"
)

// compileOptions holds flags for the compile command.
type compileOptions struct {
	*rootOptions
	Name  string
	Line  int
	Keep  bool
	Debug bool
}

func newCompileCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &compileOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <source> [-- args]",
		Short: "Build C source into a module and load it",
		Long: `Compile a C source fragment with the configured toolchain, link it into a
module library next to the fragment and load it, passing the arguments after "--" to
its init. The exit status of a failing tool becomes the exit status of the
command.

Example:
  simhost compile thermostat.inc --keep
  CC=clang simhost compile -v controller.c --name controller_mod`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, modArgs := splitDash(cmd, args)
			if len(files) != 1 {
				return errors.InvalidInput(errors.PhaseCompile, "exactly one source file is required")
			}
			file := files[0]
			src, err := os.ReadFile(file)
			if err != nil {
				return errors.New(errors.PhaseCompile, errors.KindNotFound).
					Subject(file).
					Detail("unable to read source").
					Cause(err).
					Build()
			}

			req := compiler.Request{
				Name:       opts.Name,
				Source:     string(src),
				OriginFile: file,
				OriginLine: opts.Line,
			}
			if req.Name == "" {
				req.Name = strings.TrimSuffix(file, filepath.Ext(file))
			}
			if filepath.Clean(req.Name+".c") == filepath.Clean(file) {
				return errors.InvalidInput(errors.PhaseCompile, "the generated source would overwrite "+file+": choose another --name")
			}
			if opts.Verbose {
				req.Flags |= compiler.Verbose
			}
			if opts.Debug {
				req.Flags |= compiler.Debug
			}
			if opts.Keep {
				req.Flags |= compiler.KeepWork
			}

			rt, log, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer rt.Close()

			m, err := rt.Compile(cmd.Context(), req, modArgs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d classes from %s\n", m.Name(), len(m.Classes()), compiler.Output(req.Name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "module name (default: source file without extension)")
	cmd.Flags().IntVar(&opts.Line, "line", 1, "line of the source within its original file")
	cmd.Flags().BoolVarP(&opts.Keep, "keep", "k", false, "keep the generated .c and .o files")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "echo toolchain commands")

	return cmd
}
