package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/trace"
)

// traceSettings merges the [trace] table of the nearest manifest with the
// persistent flags. Flags set on the command line win.
func traceSettings(cmd *cobra.Command) (project.TraceConfig, error) {
	flags := cmd.Root().PersistentFlags()
	cfg := project.DefaultConfig().Trace
	if m, err := project.Discover("."); err == nil {
		cfg = m.Config.Trace
	}

	var err error
	if flags.Changed("trace") || cfg.Output == "" {
		if cfg.Output, err = flags.GetString("trace"); err != nil {
			return cfg, fmt.Errorf("failed to get trace flag: %w", err)
		}
	}
	if flags.Changed("trace-level") {
		if cfg.Level, err = flags.GetString("trace-level"); err != nil {
			return cfg, fmt.Errorf("failed to get trace-level flag: %w", err)
		}
	}
	if flags.Changed("trace-mode") {
		if cfg.Mode, err = flags.GetString("trace-mode"); err != nil {
			return cfg, fmt.Errorf("failed to get trace-mode flag: %w", err)
		}
	}
	if flags.Changed("trace-ring-size") || cfg.RingSize <= 0 {
		if cfg.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
			return cfg, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
	}
	// --trace without a level means the caller wants to see something
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Level == "off" {
		cfg.Level = "phase"
	}
	return cfg, nil
}

// setupTracing inspects trace-related flags and initializes the tracer.
// It returns a cleanup function and an error if initialization fails.
func setupTracing(cmd *cobra.Command) (func(), error) {
	settings, err := traceSettings(cmd)
	if err != nil {
		return nil, err
	}
	heartbeatInterval, err := cmd.Root().PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(settings.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return func() {}, nil
	}
	mode, err := trace.ParseMode(settings.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(settings.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: settings.Output,
		RingSize:   settings.RingSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval, nil)

	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		// ring-only mode keeps events in memory; print them on the way out
		if ring, ok := tracer.(*trace.RingTracer); ok {
			if err := ring.Dump(os.Stderr, format); err != nil {
				fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
