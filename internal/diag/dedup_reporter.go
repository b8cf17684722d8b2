package diag

import "github.com/MarkBennett/dart-sub004/internal/source"

type dedupKey struct {
	code  Code
	src   source.Source
	start uint32
	end   uint32
}

// DedupReporter forwards only the first diagnostic per (code, source, span).
// Parser recovery can reach the same broken token twice; this keeps one.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, src source.Source, primary source.Span, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	key := dedupKey{code: code, src: src, start: primary.Start, end: primary.End}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	r.next.Report(code, sev, src, primary, msg, notes)
}
