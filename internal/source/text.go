package source

import (
	"fmt"
	"slices"
	"sort"

	"fortio.org/safecast"
)

// Normalize strips a UTF-8 BOM and rewrites \r\n as \n. Lone \r is kept.
func Normalize(content []byte) []byte {
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return content
}

func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := make([]byte, 0, len(content))
	changed := false
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			continue
		}
		out = append(out, content[i])
	}
	changed = len(out) != len(content)
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

// Span is a half-open byte range [Start, End) within one source.
type Span struct {
	Start uint32
	End   uint32
}

func (s Span) Empty() bool { return s.Start == s.End }
func (s Span) Len() uint32 { return s.End - s.Start }
func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// LineCol is a 1-based human-readable position.
type LineCol struct {
	Line uint32
	Col  uint32
}

// LineIndex maps byte offsets to line/column pairs.
type LineIndex struct {
	newlines []uint32 // offsets of '\n'
}

// NewLineIndex indexes content.
func NewLineIndex(content []byte) LineIndex {
	out := make([]uint32, 0, len(content)/32)
	for i, b := range content {
		if b == '\n' {
			out = append(out, safecast.MustConv[uint32](i))
		}
	}
	return LineIndex{newlines: out}
}

// Position returns the line/column of off.
func (li LineIndex) Position(off uint32) LineCol {
	line := sort.Search(len(li.newlines), func(i int) bool { return li.newlines[i] >= off })
	var start uint32
	if line > 0 {
		start = li.newlines[line-1] + 1
	}
	return LineCol{Line: safecast.MustConv[uint32](line + 1), Col: off - start + 1}
}

// LineStart returns the offset of the first byte of the 1-based line.
func (li LineIndex) LineStart(line uint32) uint32 {
	if line <= 1 || len(li.newlines) == 0 {
		return 0
	}
	idx := int(line) - 2
	if idx >= len(li.newlines) {
		idx = len(li.newlines) - 1
	}
	return li.newlines[idx] + 1
}

// Lines returns the number of lines.
func (li LineIndex) Lines() int {
	return len(li.newlines) + 1
}
