package engine

import (
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

func TestErrorListenerFiltersByRoot(t *testing.T) {
	l := newErrorListener("/ws")
	in := source.New("/ws/lib/a.dart")
	out := source.New("/home/pub/cache/b.dart")
	l.Report(diag.SynExpectSemicolon, diag.SevError, in, source.Span{Start: 3, End: 4}, "in", nil)
	l.Report(diag.SynExpectSemicolon, diag.SevError, out, source.Span{Start: 1, End: 2}, "out", nil)
	l.OnError(AnalysisError{Code: diag.SemaUndefinedClass, Source: source.New("dart:core")})

	errs := l.Errors()
	if len(errs) != 1 || errs[0].Source != in {
		t.Fatalf("errors = %v", errs)
	}
	if got := l.byFile(); len(got) != 1 || len(got[in]) != 1 {
		t.Fatalf("byFile = %v", got)
	}
}

func TestErrorIndexKeys(t *testing.T) {
	x := newErrorIndex()
	lib := source.New("/ws/main.dart")
	part := source.New("/ws/part.dart")
	syntax := AnalysisError{Code: diag.SynExpectSemicolon, Source: part, Primary: source.Span{Start: 9, End: 10}}
	semantic := AnalysisError{Code: diag.SemaUndefinedClass, Source: part, Primary: source.Span{Start: 2, End: 5}}

	x.setParse(part, []AnalysisError{syntax})
	x.setLibrary(lib, map[source.Source][]AnalysisError{part: {semantic}})
	got := x.get(part)
	if len(got) != 2 || got[0].Code != diag.SemaUndefinedClass || got[1].Code != diag.SynExpectSemicolon {
		t.Fatalf("merged errors = %v", got)
	}

	x.setLibrary(lib, nil)
	if got := x.get(part); len(got) != 1 || got[0].Code != diag.SynExpectSemicolon {
		t.Fatalf("after re-resolve = %v", got)
	}
	x.setParse(part, nil)
	if files := x.files(); len(files) != 0 {
		t.Fatalf("files = %v", files)
	}

	x.setParse(lib, []AnalysisError{syntax})
	x.setLibrary(lib, map[source.Source][]AnalysisError{part: {semantic}})
	x.discard(lib, []source.Source{lib, part})
	if files := x.files(); len(files) != 0 {
		t.Fatalf("discard left %v", files)
	}
}

func TestRegistryOrderAndRemoval(t *testing.T) {
	var r registry[string]
	a := r.add("a")
	r.add("b")
	c := r.add("c")
	if !r.remove(a) || r.remove(a) {
		t.Fatal("removal must succeed once")
	}
	r.remove(c)
	r.add("d")
	got := r.snapshot()
	if len(got) != 2 || got[0] != "b" || got[1] != "d" || r.len() != 2 {
		t.Fatalf("snapshot = %v", got)
	}
}
