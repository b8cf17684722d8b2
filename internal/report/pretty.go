package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// palette groups the styles used by Pretty. With color disabled every
// style prints plain text.
type palette struct {
	err, warn, info, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		path:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed),
		note:   mk(color.FgCyan),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строка исходника с подчёркиванием ^~~~ по Span и заметки.
// Diagnostics are printed in the order given.
func Pretty(w io.Writer, diags []diag.Diagnostic, text TextFunc, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	pal := newPalette(opts.Color)
	indexes := make(map[source.Source]source.LineIndex)
	lookup := func(src source.Source) ([]byte, source.LineIndex) {
		var content []byte
		if text != nil {
			content = text(src)
		}
		li, ok := indexes[src]
		if !ok {
			li = source.NewLineIndex(content)
			indexes[src] = li
		}
		return content, li
	}

	for i, d := range diags {
		if opts.Max > 0 && i >= opts.Max {
			fmt.Fprintf(bw, "... %d more\n", len(diags)-i)
			break
		}
		content, li := lookup(d.Source)
		start := li.Position(d.Primary.Start)
		fmt.Fprintf(bw, "%s: %s %s: %s\n",
			pal.path.Sprintf("%s:%d:%d", FormatPath(d.Source, opts.PathMode, opts.BaseDir), start.Line, start.Col),
			pal.severity(d.Severity).Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message)
		if len(content) > 0 {
			writeSnippet(bw, pal, content, li, d.Primary, opts.Context)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			pos := li.Position(n.Span.Start)
			fmt.Fprintf(bw, "  %s %s:%d:%d: %s\n",
				pal.note.Sprint("note:"),
				FormatPath(d.Source, opts.PathMode, opts.BaseDir), pos.Line, pos.Col, n.Msg)
		}
	}
	return bw.Flush()
}

func writeSnippet(w io.Writer, pal palette, content []byte, li source.LineIndex, span source.Span, context int) {
	start := li.Position(span.Start)
	first := int(start.Line) - context
	if first < 1 {
		first = 1
	}
	width := len(fmt.Sprint(start.Line))
	for n := first; n <= int(start.Line); n++ {
		line := lineText(content, li, uint32(n))
		fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprintf("%*d |", width, n), strings.ReplaceAll(line, "\t", "    "))
	}
	line := lineText(content, li, start.Line)
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := displayWidth(line[:col])
	length := int(span.Len())
	if rest := len(line) - col; length > rest {
		length = rest
	}
	under := 1
	if length > 1 {
		under = runewidth.StringWidth(line[col : col+length])
	}
	marker := "^" + strings.Repeat("~", max(under-1, 0))
	fmt.Fprintf(w, " %s %s%s\n", pal.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), pal.caret.Sprint(marker))
}

// lineText returns the 1-based line without its newline.
func lineText(content []byte, li source.LineIndex, line uint32) string {
	start := li.LineStart(line)
	end := uint32(len(content))
	if int(line) < li.Lines() {
		end = li.LineStart(line+1) - 1
	}
	if start > end {
		return ""
	}
	return strings.TrimRight(string(content[start:end]), "\r")
}

// displayWidth measures s in terminal cells; tabs count as four.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += 4
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

// Summary prints the closing "N errors, M warnings" line.
func Summary(w io.Writer, diags []diag.Diagnostic, files int, useColor bool) error {
	pal := newPalette(useColor)
	var errs, warns int
	for _, d := range diags {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		_, err := fmt.Fprintf(w, "no issues in %s\n", plural(files, "file"))
		return err
	}
	_, err := fmt.Fprintf(w, "%s, %s in %s\n",
		pal.err.Sprint(plural(errs, "error")),
		pal.warn.Sprint(plural(warns, "warning")),
		plural(files, "file"))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
