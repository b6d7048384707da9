package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wippyai/simhost/console"
)

func newConsoleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Operate the host process table interactively",
		Long: `Start the operator console for the host process table. The console does
not claim a processor itself. Type help for the commands; an interrupt
abandons the current line, and only quit or exit leave the console.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, log, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer rt.Close()

			s := rt.Scheduler()
			if err := s.Attach(); err != nil {
				return err
			}

			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)

			r := console.NewReader(os.Stdin, cmd.OutOrStdout())
			defer r.Close()

			c := console.New(s, cmd.OutOrStdout(), console.WithLogger(log.Named("console")))
			return c.Run(cmd.Context(), r, interrupts)
		},
	}
}
