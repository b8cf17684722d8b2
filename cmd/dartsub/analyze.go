package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/frontend"
	"github.com/MarkBennett/dart-sub004/internal/observ"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/report"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/trace"
	"github.com/MarkBennett/dart-sub004/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [file.dart|directory]...",
	Short: "Analyse Dart libraries and report errors",
	Long: `Analyse the given files, or every library of the workspace, and print
syntax and resolution errors. The workspace is described by the nearest analysis.toml.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	analyzeCmd.Flags().String("path-mode", "auto", "how file paths are printed (auto|absolute|relative|basename)")
	analyzeCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	analyzeCmd.Flags().Int("max-errors", 0, "syntax errors kept per file (0 uses the manifest)")
	analyzeCmd.Flags().Int("cache-capacity", 0, "resolved libraries kept in memory (0 uses the manifest)")
	analyzeCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	analyzeCmd.Flags().String("dump-cache", "", "write a msgpack snapshot of the cache to this file")
	analyzeCmd.Flags().Bool("metrics", false, "print engine metrics to stderr when done")
}

// analyzeRequest is everything analyzeWorkspace needs; runAnalyze fills it
// from flags.
type analyzeRequest struct {
	manifest      *project.Manifest
	paths         []string
	maxErrors     int
	cacheCapacity int
	tracer        trace.Tracer
	log           io.Writer
	progress      func(ui.Event)
	timer         *observ.Timer
}

type analyzeOutcome struct {
	sources []source.Source
	diags   []diag.Diagnostic
	engine  *engine.Server // still running; the caller stops it
}

func (o *analyzeOutcome) hasErrors() bool {
	for _, d := range o.diags {
		if d.Severity.AtLeast(diag.SevError) {
			return true
		}
	}
	return false
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "msgpack":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := report.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q (expected auto|absolute|relative|basename)", pathModeStr)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	dumpPath, err := cmd.Flags().GetString("dump-cache")
	if err != nil {
		return fmt.Errorf("failed to get dump-cache flag: %w", err)
	}
	showMetrics, err := cmd.Flags().GetBool("metrics")
	if err != nil {
		return fmt.Errorf("failed to get metrics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	manifest, err := loadManifest(args)
	if err != nil {
		return err
	}
	req, err := engineSettings(cmd, manifest)
	if err != nil {
		return err
	}
	req.paths = args
	req.tracer = trace.FromContext(cmd.Context())
	req.log = cmd.ErrOrStderr()
	req.timer = observ.NewTimer()

	var outcome *analyzeOutcome
	if !quiet && shouldUseTUI(mode, format) {
		outcome, err = analyzeWithUI(cmd.Context(), "analyzing", req)
	} else {
		outcome, err = analyzeWorkspace(cmd.Context(), req)
	}
	if err != nil {
		return err
	}
	defer outcome.engine.Stop()

	out := cmd.OutOrStdout()
	text := providerText(cmd.Context(), source.Disk{})
	err = req.timer.Measure("report", func() error {
		switch format {
		case "json":
			return report.JSON(out, outcome.diags, text, report.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     withNotes,
				PathMode:         pathMode,
				BaseDir:          manifest.Config.Workspace.Root,
				Max:              maxDiagnostics,
			})
		case "msgpack":
			return report.Msgpack(out, outcome.diags, text, report.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     withNotes,
				PathMode:         pathMode,
				BaseDir:          manifest.Config.Workspace.Root,
				Max:              maxDiagnostics,
			})
		}
		color, err := useColor(cmd, os.Stdout)
		if err != nil {
			return err
		}
		if err := report.Pretty(out, outcome.diags, text, report.PrettyOpts{
			Color:     color,
			Context:   1,
			PathMode:  pathMode,
			BaseDir:   manifest.Config.Workspace.Root,
			ShowNotes: withNotes,
			Max:       maxDiagnostics,
		}); err != nil {
			return err
		}
		if quiet {
			return nil
		}
		return report.Summary(out, outcome.diags, len(outcome.sources), color)
	})
	if err != nil {
		return err
	}

	if dumpPath != "" {
		if err := dumpCache(outcome.engine, dumpPath); err != nil {
			return err
		}
	}
	if showMetrics {
		if err := writeMetrics(cmd.ErrOrStderr(), outcome.engine.Registry()); err != nil {
			return err
		}
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), req.timer.Summary())
	}
	if outcome.hasErrors() {
		return errIssuesFound
	}
	return nil
}

// engineSettings applies --max-errors and --cache-capacity over the
// manifest's [engine] table.
func engineSettings(cmd *cobra.Command, m *project.Manifest) (analyzeRequest, error) {
	req := analyzeRequest{
		manifest:      m,
		maxErrors:     m.Config.Engine.MaxErrors,
		cacheCapacity: m.Config.Engine.CacheCapacity,
	}
	if cmd.Flags().Changed("max-errors") {
		v, err := cmd.Flags().GetInt("max-errors")
		if err != nil {
			return req, fmt.Errorf("failed to get max-errors flag: %w", err)
		}
		req.maxErrors = v
	}
	if cmd.Flags().Changed("cache-capacity") {
		v, err := cmd.Flags().GetInt("cache-capacity")
		if err != nil {
			return req, fmt.Errorf("failed to get cache-capacity flag: %w", err)
		}
		req.cacheCapacity = v
	}
	if req.maxErrors < 0 || req.cacheCapacity < 0 {
		return req, fmt.Errorf("--max-errors and --cache-capacity must not be negative")
	}
	return req, nil
}

func newEngine(req analyzeRequest, provider source.Provider) (*engine.Server, error) {
	maxErrors, err := safecast.Conv[uint](req.maxErrors)
	if err != nil {
		return nil, fmt.Errorf("max errors: %w", err)
	}
	ws := req.manifest.Config.Workspace
	return engine.New(engine.Options{
		Provider:      provider,
		Frontend:      frontend.Default{MaxErrors: maxErrors},
		Root:          ws.Root,
		Roots:         ws.Roots,
		CacheCapacity: req.cacheCapacity,
		Tracer:        req.tracer,
		Log:           req.log,
	}), nil
}

// analyzeWorkspace runs one analysis pass over the requested sources and
// collects their errors.
func analyzeWorkspace(ctx context.Context, req analyzeRequest) (*analyzeOutcome, error) {
	timer := req.timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	ws := req.manifest.Config.Workspace

	var (
		srcs    []source.Source
		missing []diag.Diagnostic
	)
	err := timer.Measure("discover", func() error {
		var err error
		srcs, missing, err = collectTargets(ctx, ws, req.paths)
		return err
	})
	if err != nil {
		return nil, err
	}
	if req.progress != nil {
		for _, src := range srcs {
			req.progress(ui.Event{File: src.Path(), Status: ui.StatusQueued})
		}
	}

	eng, err := newEngine(req, source.Disk{})
	if err != nil {
		return nil, err
	}
	if req.progress != nil {
		eng.AddAnalysisListener(progressListener(req.progress))
	}
	if err := eng.Start(ctx); err != nil {
		return nil, err
	}

	err = timer.Measure("analyze", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, src := range srcs {
			src := src
			g.Go(func() error {
				_, err := eng.AnalyzeNow(gctx, src)
				if errors.Is(err, engine.ErrNotResolved) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("%s: %w", src, err)
				}
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		eng.Stop()
		return nil, err
	}

	outcome := &analyzeOutcome{sources: srcs, engine: eng}
	outcome.diags = append(outcome.diags, missing...)
	if len(req.paths) == 0 {
		for _, f := range eng.ErrorFiles() {
			outcome.diags = append(outcome.diags, eng.Errors(f)...)
		}
	} else {
		for _, src := range srcs {
			outcome.diags = append(outcome.diags, eng.Errors(src)...)
		}
	}
	diag.SortDiagnostics(outcome.diags)
	return outcome, nil
}

// providerText reads sources for the report snippets. Reads are cached for
// the lifetime of the returned function.
func providerText(ctx context.Context, p source.Provider) report.TextFunc {
	texts := make(map[source.Source][]byte)
	return func(src source.Source) []byte {
		if text, ok := texts[src]; ok {
			return text
		}
		c, err := p.Contents(ctx, src)
		if err != nil {
			texts[src] = nil
			return nil
		}
		texts[src] = c.Text
		return c.Text
	}
}

func dumpCache(eng *engine.Server, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dump cache: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return eng.Cache().Dump(f)
}
