package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/report"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/trace"
	"github.com/MarkBennett/dart-sub004/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [directory]",
	Short: "Re-analyse the workspace whenever files change",
	Long: `Watch the workspace and print its errors every time the analysis
server becomes idle. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("path-mode", "relative", "how file paths are printed (auto|absolute|relative|basename)")
	watchCmd.Flags().Int("max-errors", 0, "syntax errors kept per file (0 uses the manifest)")
	watchCmd.Flags().Int("cache-capacity", 0, "resolved libraries kept in memory (0 uses the manifest)")
	watchCmd.Flags().Duration("debounce", 0, "wait this long for more file events (0 uses the manifest)")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (for example :9464)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := report.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q (expected auto|absolute|relative|basename)", pathModeStr)
	}
	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("failed to get metrics-addr flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	color, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}

	manifest, err := loadManifest(args)
	if err != nil {
		return err
	}
	req, err := engineSettings(cmd, manifest)
	if err != nil {
		return err
	}
	debounce := time.Duration(manifest.Config.Engine.DebounceMS) * time.Millisecond
	if cmd.Flags().Changed("debounce") {
		if debounce, err = cmd.Flags().GetDuration("debounce"); err != nil {
			return fmt.Errorf("failed to get debounce flag: %w", err)
		}
	}
	req.tracer = trace.FromContext(cmd.Context())
	req.log = cmd.ErrOrStderr()

	eng, err := newEngine(req, source.Disk{})
	if err != nil {
		return err
	}
	ws := manifest.Config.Workspace
	logf := func(format string, args ...any) {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
	w, err := watch.New(ws.Root, eng, watch.Options{
		Extension: ws.Extension,
		Debounce:  debounce,
		Logf:      logf,
		OnBatch: func(changes []watch.Change) {
			for _, c := range changes {
				logf("%s %s", c.Op, report.FormatPath(c.Source, pathMode, ws.Root))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", ws.Root, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	idle := make(chan struct{}, 1)
	eng.AddIdleListener(func() {
		select {
		case idle <- struct{}{}:
		default:
		}
	})
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()
	if err := eng.QueueAnalyzeContext(); err != nil {
		return err
	}

	printer := &watchPrinter{
		out:  cmd.OutOrStdout(),
		eng:  eng,
		opts: report.PrettyOpts{Color: color, Context: 1, PathMode: pathMode, BaseDir: ws.Root, ShowNotes: true, Max: maxDiagnostics},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-idle:
				if err := printer.print(gctx); err != nil {
					return err
				}
			}
		}
	})
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(eng.Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		logf("metrics on http://%s/metrics", metricsAddr)
	}
	logf("watching %s", ws.Root)
	return g.Wait()
}

// watchPrinter reprints the full error list after every drain.
type watchPrinter struct {
	out  io.Writer
	eng  *engine.Server
	opts report.PrettyOpts
}

func (p *watchPrinter) print(ctx context.Context) error {
	var diags []diag.Diagnostic
	for _, f := range p.eng.ErrorFiles() {
		diags = append(diags, p.eng.Errors(f)...)
	}
	diag.SortDiagnostics(diags)
	fmt.Fprintf(p.out, "[%s] analysis complete\n", time.Now().Format("15:04:05"))
	if err := report.Pretty(p.out, diags, providerText(ctx, source.Disk{}), p.opts); err != nil {
		return err
	}
	files := p.eng.Cache().Counts()[cache.Resolved]
	return report.Summary(p.out, diags, files, p.opts.Color)
}
