package diag

import "github.com/MarkBennett/dart-sub004/internal/source"

// Reporter is the minimal contract through which phases emit diagnostics.
type Reporter interface {
	Report(code Code, sev Severity, src source.Source, primary source.Span, msg string, notes []Note)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to r.
func NewReportBuilder(r Reporter, sev Severity, code Code, src source.Source, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag: Diagnostic{
			Severity: sev,
			Code:     code,
			Message:  msg,
			Source:   src,
			Primary:  primary,
		},
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, src source.Source, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, src, primary, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, src source.Source, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, src, primary, msg)
}

// WithNote appends a note.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

// Emit sends the diagnostic to the reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		d := b.diag
		b.reporter.Report(d.Code, d.Severity, d.Source, d.Primary, d.Message, d.Notes)
	}
	b.emitted = true
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, src source.Source, primary source.Span, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Source: src, Primary: primary, Notes: notes,
	})
}

// ReporterFunc adapts a function receiving whole diagnostics.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(code Code, sev Severity, src source.Source, primary source.Span, msg string, notes []Note) {
	f(Diagnostic{Severity: sev, Code: code, Message: msg, Source: src, Primary: primary, Notes: notes})
}

// Nop drops everything.
var Nop Reporter = ReporterFunc(func(Diagnostic) {})
