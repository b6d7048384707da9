package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/simhost/config"
	"github.com/wippyai/simhost/runtime"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Config     string
	SearchPath []string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "simhost",
		Short:         "Simulation module host",
		Long:          "Loads simulation modules into the process, builds modules from C source and manages the host-wide processor table.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "configuration file (YAML)")
	cmd.PersistentFlags().StringSliceVarP(&opts.SearchPath, "path", "L", nil, "directories searched for modules before the configured ones")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newLoadCommand(opts))
	cmd.AddCommand(newLibInfoCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newExternCommand(opts))
	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newConsoleCommand(opts))
	cmd.AddCommand(newTopCommand(opts))

	return cmd
}

// settings loads the configuration file, applies the environment and then
// the command line.
func (o *rootOptions) settings() (config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return cfg, err
	}
	cfg = cfg.ApplyEnv()
	if len(o.SearchPath) > 0 {
		cfg.SearchPath = append(append([]string(nil), o.SearchPath...), cfg.SearchPath...)
	}
	if o.Verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(verbose bool) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zcfg.DisableStacktrace = true
	log, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openRuntime builds the runtime for a command. The returned logger must be
// synced by the caller.
func (o *rootOptions) openRuntime(ctx context.Context) (*runtime.Runtime, *zap.Logger, error) {
	cfg, err := o.settings()
	if err != nil {
		return nil, zap.NewNop(), err
	}
	log := newLogger(cfg.Verbose)
	rt, err := runtime.New(ctx, runtime.WithConfig(cfg), runtime.WithLogger(log))
	if err != nil {
		return nil, log, err
	}
	return rt, log, nil
}

// splitDash separates positional arguments from those after "--".
func splitDash(cmd *cobra.Command, args []string) (before, after []string) {
	if n := cmd.ArgsLenAtDash(); n >= 0 {
		return args[:n], args[n:]
	}
	return args, nil
}
