package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/simhost/errors"
	"github.com/wippyai/simhost/sched"
)

// runOptions holds flags for the run command.
type runOptions struct {
	*rootOptions
	Start    string
	Steps    int
	Step     time.Duration
	Interval time.Duration
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <module>... [-- args]",
		Short: "Claim a processor, load modules and drive a simulation clock",
		Long: `Claim a processor slot in the host process table, load the modules,
run their checks and advance the simulation clock, reporting progress to the
table after every step. An interrupt, including one sent with the console's
kill command, pauses the run and releases the slot.

Example:
  simhost run powerflow --steps 96 --step 15m --interval 1s`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "2000-01-01 00:00:00 UTC", "simulation start time")
	cmd.Flags().IntVar(&opts.Steps, "steps", 24, "number of clock steps")
	cmd.Flags().DurationVar(&opts.Step, "step", time.Hour, "simulated time per step")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "wall-clock delay between steps")

	return cmd
}

func runSimulation(ctx context.Context, opts *runOptions, cmd *cobra.Command, args []string) error {
	names, modArgs := splitDash(cmd, args)
	if len(names) == 0 {
		return errors.InvalidInput(errors.PhaseLoad, "no module named")
	}
	if opts.Steps < 0 || opts.Step <= 0 {
		return errors.InvalidInput(errors.PhaseRuntime, "steps must not be negative and step must be positive")
	}

	rt, log, err := opts.openRuntime(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer rt.Close()

	clock, err := rt.Table().Time().Parse(opts.Start)
	if err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "invalid start time")
	}
	if err := rt.Start(ctx); err != nil {
		return err
	}

	for _, name := range names {
		if _, err := rt.Load(ctx, name, modArgs); err != nil {
			return err
		}
	}
	if failed := rt.Modules().CheckAll(); failed != 0 {
		return errors.New(errors.PhaseRuntime, errors.KindInitFailed).
			Detail("%d module checks failed", failed).
			Value(failed).
			Build()
	}

	step := int64(opts.Step / time.Second)
	log.Info("simulation started",
		zap.Strings("modules", names),
		zap.Int("cpu", rt.Scheduler().CPU()),
		zap.Int("steps", opts.Steps))

	for i := 0; i < opts.Steps; i++ {
		clock += step
		rt.Update(clock, sched.Running)
		if !wait(ctx, opts.Interval) {
			rt.Update(clock, sched.Paused)
			log.Warn("simulation interrupted", zap.Int("step", i+1))
			return nil
		}
	}
	rt.Update(clock, sched.Done)
	log.Info("simulation done", zap.String("clock", rt.Table().Time().Format(clock)))
	return nil
}

// wait sleeps for d and reports whether ctx is still live.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
