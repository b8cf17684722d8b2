package diag

import (
	"github.com/MarkBennett/dart-sub004/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Source   source.Source
	Primary  source.Span
	Notes    []Note
}

// Offset is the byte offset of the primary span.
func (d Diagnostic) Offset() uint32 { return d.Primary.Start }

// Length is the byte length of the primary span.
func (d Diagnostic) Length() uint32 { return d.Primary.Len() }
