package lsp

import (
	"unicode/utf8"

	"fortio.org/safecast"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// document pairs buffer text with its line index so LSP positions, which
// count UTF-16 units, can be mapped to byte offsets and back.
type document struct {
	text  []byte
	lines source.LineIndex
}

func newDocument(text []byte) document {
	return document{text: text, lines: source.NewLineIndex(text)}
}

func (d document) lineBounds(line int) (start, end uint32) {
	size := safeUint32(len(d.text))
	start = d.lines.LineStart(safeUint32(line + 1))
	end = size
	if line+1 < d.lines.Lines() {
		end = d.lines.LineStart(safeUint32(line+2)) - 1
	}
	if start > end {
		start = end
	}
	return start, end
}

func (d document) offsetAt(pos position) uint32 {
	if pos.Line < 0 || pos.Character < 0 || len(d.text) == 0 {
		return 0
	}
	if pos.Line >= d.lines.Lines() {
		return safeUint32(len(d.text))
	}
	start, end := d.lineBounds(pos.Line)
	units := 0
	off := start
	for off < end && units < pos.Character {
		r, size := utf8.DecodeRune(d.text[off:end])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		off += safeUint32(size)
	}
	return off
}

func (d document) positionAt(offset uint32) position {
	if size := safeUint32(len(d.text)); offset > size {
		offset = size
	}
	lc := d.lines.Position(offset)
	line := int(lc.Line) - 1
	start, _ := d.lineBounds(line)
	units := 0
	for off := start; off < offset; {
		r, size := utf8.DecodeRune(d.text[off:offset])
		if off+safeUint32(size) > offset {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += safeUint32(size)
	}
	return position{Line: line, Character: units}
}

func (d document) rangeOf(span source.Span) lspRange {
	return lspRange{Start: d.positionAt(span.Start), End: d.positionAt(span.End)}
}
