package fuzztests

import (
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		src := source.New("/fuzz/lib/a.dart")
		bag := diag.NewBag(64)
		ts := lexer.Scan(src, input, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

		toks := ts.Tokens()
		if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("stream must end with EOF: %q", truncateForLog(input, 200))
		}
		var prev uint32
		for i, tok := range toks {
			if tok.Span.End < tok.Span.Start || tok.Span.Start < prev {
				t.Fatalf("token %d (%s) has span %v after %d", i, tok.Kind, tok.Span, prev)
			}
			prev = tok.Span.Start
		}
	})
}
