package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wippyai/simhost/extern"
)

func newExternCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extern <library> <function>[,<function>...]",
		Short: "Register external functions from a library and report what resolved",
		Long: `Open a library and register the listed functions as external functions.
A name may carry an ordinal, as in name@12, which is used on platforms that
export by ordinal. Functions that do not resolve are reported and skipped.

Example:
  simhost extern libm sqrt,cbrt,hypot`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, log, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer rt.Close()

			if err := rt.LoadFunctions(args[0], args[1]); err != nil {
				return err
			}
			return writeEntries(cmd, rt.Externs().Entries())
		},
	}
}

func writeEntries(cmd *cobra.Command, entries []extern.Entry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FUNCTION\tLIBRARY\tSTATUS")
	for _, e := range entries {
		status := "resolved"
		if !e.Resolved() {
			status = "missing"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Library, status)
	}
	return tw.Flush()
}
