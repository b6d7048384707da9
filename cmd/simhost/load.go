package main

import (
	"github.com/spf13/cobra"

	"github.com/wippyai/simhost/errors"
	"github.com/wippyai/simhost/module"
)

func newLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <module>... [-- args]",
		Short: "Load modules and print their classes and settings",
		Long: `Load one or more modules, passing the arguments after "--" to each
init, then print the loaded modules in load order.

Foreign modules are named parent::child, for example wasm::pump.

Example:
  simhost load powerflow tape -- --rate 60
  simhost load -L ./build wasm::pump`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, modArgs := splitDash(cmd, args)
			if len(names) == 0 {
				return errors.InvalidInput(errors.PhaseLoad, "no module named")
			}
			rt, log, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer rt.Close()

			for _, name := range names {
				if _, err := rt.Load(cmd.Context(), name, modArgs); err != nil {
					return err
				}
			}
			_, err = rt.Modules().SaveAll(cmd.OutOrStdout(), rt.Table().Globals())
			return err
		},
	}
}

func newLibInfoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "libinfo <module>",
		Short: "Print what a module provides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, log, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer rt.Close()

			m, err := rt.Load(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			return module.LibInfo(cmd.OutOrStdout(), rt.Table().Globals(), m)
		},
	}
}
