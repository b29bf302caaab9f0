// ABOUTME: Root Cobra command: persistent flags, logger/tracer wiring shared by every subcommand
// ABOUTME: Mirrors the pack's PersistentPreRunE pattern for constructing a run-scoped logger

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/prateek/heapsnap/helog"
	"github.com/prateek/heapsnap/telemetry"
)

var (
	verbose    bool
	traceFlag  bool
	configPath string

	logger         helog.Logger
	appConfig      *Config
	tracer         trace.Tracer
	tracerShutdown telemetry.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "heapsnap",
	Short: "Inspect V8/Chromium .heapsnapshot files from the command line",
	Long: `heapsnap loads a Chrome DevTools .heapsnapshot file, runs the retained-size,
dominator-tree, and class-aggregation pipeline against it, and reports the
results without needing DevTools open.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := helog.LevelInfo
		if verbose {
			level = helog.LevelDebug
		}
		logger = helog.New(level, os.Stderr)
		helog.SetGlobal(logger)

		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg

		t, shutdown, err := telemetry.NewTracer(telemetry.Config{
			Enabled:     traceFlag || cfg.Trace.Enabled,
			ServiceName: "heapsnap",
			SampleRatio: cfg.Trace.SampleRatio,
		}, os.Stderr)
		if err != nil {
			return err
		}
		tracer = t
		tracerShutdown = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if tracerShutdown == nil {
			return nil
		}
		return tracerShutdown(context.Background())
	},
}

// Execute runs the command tree, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "Enable in-process span tracing, written to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: ./heapsnap.yaml or $HOME/.config/heapsnap/heapsnap.yaml)")
}

// cmdContext returns cmd's bound context, falling back to Background for
// commands run outside ExecuteContext (e.g. in tests).
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
