package fuzztests

import (
	"context"
	"testing"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/parser"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzParserSpans(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		src := source.New("/fuzz/lib/a.dart")
		bag := diag.NewBag(128)
		rep := diag.BagReporter{Bag: bag}
		ts := lexer.Scan(src, input, lexer.Options{Reporter: rep})
		unit := parser.Parse(src, ts, parser.Options{Reporter: rep, MaxErrors: 128})
		if unit == nil {
			t.Fatal("Parse returned nil")
		}
		// восстановление после ошибок может оставлять пустые спаны
		if bag.HasErrors() {
			return
		}
		if err := testkit.CheckSpanInvariants(unit, input); err != nil {
			t.Fatalf("%v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

// FuzzParserNoHang tests that the parser doesn't hang on any input.
func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)

	f.Add([]byte("class A { void f() { if (x) { while (true) }"))     // unclosed blocks
	f.Add([]byte("class A { int x\nint y; }"))                         // missing semicolon
	f.Add([]byte("void f() { for (var i = 0 i < 10 i++) {} }"))        // for without semicolons
	f.Add([]byte("import 'a.dart' show;"))                             // empty combinator
	f.Add([]byte("class A extends { }"))                               // missing supertype
	f.Add([]byte("void f() => ((((((((((1"))                           // deep parens
	f.Add([]byte("class A { A.(); get => ; set x(; }"))                // broken members

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			src := source.New("/fuzz/lib/a.dart")
			rep := diag.BagReporter{Bag: diag.NewBag(128)}
			ts := lexer.Scan(src, input, lexer.Options{Reporter: rep})
			unit := parser.Parse(src, ts, parser.Options{Reporter: rep, MaxErrors: 128})
			symbols.Resolve(src, symbols.Units{src: unit}, rep)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}
