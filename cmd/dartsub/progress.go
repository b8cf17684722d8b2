package main

import (
	"context"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/ui"
)

// progressSink feeds the progress view. Sends after close are dropped, and
// a send never outlives the view.
type progressSink struct {
	mu     sync.Mutex
	ch     chan ui.Event
	quit   chan struct{}
	closed bool
}

func newProgressSink() *progressSink {
	return &progressSink{ch: make(chan ui.Event, 256), quit: make(chan struct{})}
}

func (p *progressSink) send(ev ui.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- ev:
	case <-p.quit:
	}
}

func (p *progressSink) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}

// progressListener turns engine events into per-file progress.
func progressListener(send func(ui.Event)) engine.AnalysisListener {
	return engine.ListenerFuncs{
		OnParsed: func(ev engine.ParsedEvent) {
			status := ui.StatusParsed
			if hasErrorIn(ev.Errors, ev.Source) {
				status = ui.StatusError
			}
			send(ui.Event{File: ev.Source.Path(), Status: status})
		},
		OnResolved: func(ev engine.ResolvedEvent) {
			for _, src := range ev.Sources {
				status := ui.StatusResolved
				if hasErrorIn(ev.Errors, src) {
					status = ui.StatusError
				}
				send(ui.Event{File: src.Path(), Status: status})
			}
		},
		OnDiscarded: func(ev engine.DiscardedEvent) {
			for _, src := range ev.Sources {
				send(ui.Event{File: src.Path(), Status: ui.StatusDiscarded})
			}
		},
	}
}

func hasErrorIn(errs []engine.AnalysisError, src source.Source) bool {
	for _, e := range errs {
		if e.Source == src && e.Severity.AtLeast(diag.SevError) {
			return true
		}
	}
	return false
}

type analyzeResult struct {
	outcome *analyzeOutcome
	err     error
}

// analyzeWithUI runs analyzeWorkspace behind the Bubble Tea progress view.
// The view draws on stderr so that stdout keeps only the report.
func analyzeWithUI(ctx context.Context, title string, req analyzeRequest) (*analyzeOutcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sink := newProgressSink()
	req.progress = sink.send
	resultCh := make(chan analyzeResult, 1)

	go func() {
		res, err := analyzeWorkspace(ctx, req)
		resultCh <- analyzeResult{outcome: res, err: err}
		sink.close()
	}()

	model := ui.NewProgressModel(title, nil, sink.ch)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	close(sink.quit)
	var result analyzeResult
	select {
	case result = <-resultCh:
	default:
		// view closed early (Ctrl+C)
		cancel()
		result = <-resultCh
	}
	if result.err != nil {
		return nil, result.err
	}
	if uiErr != nil {
		result.outcome.engine.Stop()
		return nil, uiErr
	}
	return result.outcome, nil
}
