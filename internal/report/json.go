package report

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// LocationJSON представляет местоположение в файле
type LocationJSON struct {
	File      string `json:"file" msgpack:"file"`
	StartByte uint32 `json:"start_byte" msgpack:"start_byte"`
	EndByte   uint32 `json:"end_byte" msgpack:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty" msgpack:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty" msgpack:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty" msgpack:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty" msgpack:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку
type NoteJSON struct {
	Message  string       `json:"message" msgpack:"message"`
	Location LocationJSON `json:"location" msgpack:"location"`
}

// DiagnosticJSON is one diagnostic in machine-readable form.
type DiagnosticJSON struct {
	Severity string       `json:"severity" msgpack:"severity"`
	Code     string       `json:"code" msgpack:"code"`
	Message  string       `json:"message" msgpack:"message"`
	Location LocationJSON `json:"location" msgpack:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty" msgpack:"notes,omitempty"`
}

// DiagnosticsOutput is the root of JSON and msgpack output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics" msgpack:"diagnostics"`
	Count       int              `json:"count" msgpack:"count"`
	Truncated   bool             `json:"truncated,omitempty" msgpack:"truncated,omitempty"`
}

type locator struct {
	text    TextFunc
	opts    JSONOpts
	indexes map[source.Source]source.LineIndex
}

func (l *locator) location(src source.Source, span source.Span) LocationJSON {
	loc := LocationJSON{
		File:      FormatPath(src, l.opts.PathMode, l.opts.BaseDir),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if !l.opts.IncludePositions {
		return loc
	}
	li, ok := l.indexes[src]
	if !ok {
		var content []byte
		if l.text != nil {
			content = l.text(src)
		}
		li = source.NewLineIndex(content)
		l.indexes[src] = li
	}
	start, end := li.Position(span.Start), li.Position(span.End)
	loc.StartLine, loc.StartCol = start.Line, start.Col
	loc.EndLine, loc.EndCol = end.Line, end.Col
	return loc
}

// BuildDiagnosticsOutput формирует структуру вывода без сериализации.
// Count is the total before truncation by opts.Max.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, text TextFunc, opts JSONOpts) DiagnosticsOutput {
	l := &locator{text: text, opts: opts, indexes: make(map[source.Source]source.LineIndex)}
	limit := len(diags)
	if opts.Max > 0 && opts.Max < limit {
		limit = opts.Max
	}
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, limit),
		Count:       len(diags),
		Truncated:   limit < len(diags),
	}
	for _, d := range diags[:limit] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: l.location(d.Source, d.Primary),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: l.location(d.Source, n.Span)})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON writes diagnostics as indented JSON.
func JSON(w io.Writer, diags []diag.Diagnostic, text TextFunc, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(diags, text, opts))
}

// Msgpack writes the same structure as JSON in msgpack encoding.
func Msgpack(w io.Writer, diags []diag.Diagnostic, text TextFunc, opts JSONOpts) error {
	return msgpack.NewEncoder(w).Encode(BuildDiagnosticsOutput(diags, text, opts))
}
