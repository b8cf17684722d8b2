package lsp

import (
	"context"
	"sort"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// requestPublish runs on the engine worker when the queue drains. It only
// signals; publishing happens on the server's own goroutine.
func (s *Server) requestPublish() {
	select {
	case s.publishCh <- struct{}{}:
	default:
	}
}

func (s *Server) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.publishCh:
			s.publishDiagnostics(ctx)
		}
	}
}

// publishDiagnostics sends the engine's current errors for every file that
// has some, and clears files that had some on the previous round.
func (s *Server) publishDiagnostics(ctx context.Context) {
	eng := s.currentEngine()
	if eng == nil {
		return
	}
	s.mu.Lock()
	versions := make(map[string]int, len(s.versions))
	for uri, v := range s.versions {
		versions[uri] = v
	}
	prev := s.published
	s.mu.Unlock()

	targets := make(map[string]source.Source)
	for _, src := range eng.ErrorFiles() {
		targets[uriOf(src)] = src
	}
	for uri := range prev {
		if _, ok := targets[uri]; !ok {
			targets[uri] = sourceOf(uri)
		}
	}
	uris := make([]string, 0, len(targets))
	for uri := range targets {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	next := make(map[string]struct{})
	for _, uri := range uris {
		list := s.convertDiagnostics(ctx, uri, eng.Errors(targets[uri]))
		var version *int
		if v, ok := versions[uri]; ok {
			version = &v
		}
		if err := s.sendPublish(uri, version, list); err != nil {
			s.logf("failed to publish diagnostics: %v", err)
			return
		}
		if len(list) > 0 {
			next[uri] = struct{}{}
		}
	}
	s.mu.Lock()
	s.published = next
	s.mu.Unlock()
}

func (s *Server) convertDiagnostics(ctx context.Context, uri string, errs []engine.AnalysisError) []lspDiagnostic {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) > s.opts.MaxDiagnostics {
		errs = errs[:s.opts.MaxDiagnostics]
	}
	doc := s.documentOf(ctx, sourceOf(uri))
	out := make([]lspDiagnostic, 0, len(errs))
	for _, e := range errs {
		d := lspDiagnostic{
			Range:    doc.rangeOf(e.Primary),
			Severity: severityOf(e.Severity),
			Code:     e.Code.ID(),
			Source:   "dartsub",
			Message:  e.Message,
		}
		for _, n := range e.Notes {
			d.RelatedInformation = append(d.RelatedInformation, diagnosticRelatedInformation{
				Location: location{URI: uri, Range: doc.rangeOf(n.Span)},
				Message:  n.Msg,
			})
		}
		out = append(out, d)
	}
	return out
}

// documentOf returns the text the engine analysed for src: the open buffer
// if there is one, the base provider otherwise.
func (s *Server) documentOf(ctx context.Context, src source.Source) document {
	c, err := s.overlay.Contents(ctx, src)
	if err != nil {
		return newDocument(nil)
	}
	return newDocument(c.Text)
}

func severityOf(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	default:
		return severityInformation
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	uris := make([]string, 0, len(prev))
	for uri := range prev {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}
