package lexer

import (
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

func scan(t *testing.T, text string) (*token.Stream, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(0)
	s := Scan(source.New("/ws/a.dart"), []byte(text), Options{Reporter: diag.BagReporter{Bag: bag}})
	return s, bag
}

func kinds(s *token.Stream) []token.Kind {
	out := make([]token.Kind, 0, s.Len())
	for _, tok := range s.Tokens() {
		out = append(out, tok.Kind)
	}
	return out
}

func TestScanClass(t *testing.T) {
	s, bag := scan(t, "class A { a() { return; return; } }")
	want := []token.Kind{
		token.KwClass, token.Ident, token.LBrace,
		token.Ident, token.LParen, token.RParen, token.LBrace,
		token.KwReturn, token.Semicolon, token.KwReturn, token.Semicolon,
		token.RBrace, token.RBrace, token.EOF,
	}
	got := kinds(s)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if tok := s.At(1); tok.Text != "A" || tok.Span.Start != 6 {
		t.Fatalf("bad ident token: %+v", tok)
	}
}

func TestScanDirectivesAndComments(t *testing.T) {
	src := "// header\nimport 'b.dart'; /* a /* nested */ comment */ part \"c.dart\";"
	s, bag := scan(t, src)
	got := kinds(s)
	want := []token.Kind{token.KwImport, token.StringLit, token.Semicolon, token.KwPart, token.StringLit, token.Semicolon, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	if StringValue(s.At(1).Text) != "b.dart" || StringValue(s.At(4).Text) != "c.dart" {
		t.Fatalf("bad uris: %q %q", s.At(1).Text, s.At(4).Text)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestScanNumbersAndOperators(t *testing.T) {
	s, _ := scan(t, "0x1F 12 1.5 .5 2e10 a=>b != c && d || e++")
	want := []token.Kind{
		token.IntLit, token.IntLit, token.DoubleLit, token.DoubleLit, token.DoubleLit,
		token.Ident, token.FatArrow, token.Ident, token.BangEq, token.Ident,
		token.AndAnd, token.Ident, token.OrOr, token.Ident, token.PlusPlus, token.EOF,
	}
	got := kinds(s)
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanErrors(t *testing.T) {
	cases := []struct {
		text string
		code diag.Code
		at   uint32
	}{
		{"var x = 'abc\n;", diag.LexUnterminatedString, 8},
		{"a # b", diag.LexUnknownChar, 2},
		{"/* open", diag.LexUnterminatedBlockComment, 0},
		{"0x;", diag.LexBadNumber, 0},
	}
	for _, tc := range cases {
		_, bag := scan(t, tc.text)
		if bag.Len() != 1 {
			t.Fatalf("%q: expected 1 diagnostic, got %d", tc.text, bag.Len())
		}
		d := bag.Items()[0]
		if d.Code != tc.code || d.Primary.Start != tc.at {
			t.Fatalf("%q: got %s at %d", tc.text, d.Code.ID(), d.Primary.Start)
		}
	}
}

func TestScanNormalizesUnicodeIdentifiers(t *testing.T) {
	s1, _ := scan(t, "caf\u00e9")
	s2, _ := scan(t, "cafe\u0301")
	if s1.At(0).Text != s2.At(0).Text {
		t.Fatalf("identifiers not normalized: %q vs %q", s1.At(0).Text, s2.At(0).Text)
	}
	if s2.At(0).Kind != token.Ident || s2.Len() != 2 {
		t.Fatalf("expected single identifier, got %v", kinds(s2))
	}
}

func TestStringValue(t *testing.T) {
	cases := map[string]string{
		`'a.dart'`:    "a.dart",
		`"x\ty"`:      "x\ty",
		`r'a\n'`:      `a\n`,
		`'''multi'''`: "multi",
		`''`:          "",
	}
	for in, want := range cases {
		if got := StringValue(in); got != want {
			t.Fatalf("StringValue(%s) = %q, want %q", in, got, want)
		}
	}
}
