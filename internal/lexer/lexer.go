package lexer

import (
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// Lexer turns source text into tokens. It never fails: malformed input
// becomes Invalid tokens plus reported diagnostics.
type Lexer struct {
	src    source.Source
	text   []byte
	cursor Cursor
	opts   Options
}

func New(src source.Source, text []byte, opts Options) *Lexer {
	return &Lexer{
		src:    src,
		text:   text,
		cursor: NewCursor(text),
		opts:   opts,
	}
}

// Scan tokenizes text into an arena.
func Scan(src source.Source, text []byte, opts Options) *token.Stream {
	lx := New(src, text, opts)
	toks := make([]token.Token, 0, len(text)/4+1)
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return token.NewStream(toks, lx.cursor.limit)
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	lx.skipTrivia()
	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.cursor.SpanFrom(lx.cursor.Mark())}
	}

	ch := lx.cursor.Peek()
	switch {
	case ch == 'r' && (lx.cursor.PeekAt(1) == '\'' || lx.cursor.PeekAt(1) == '"'):
		return lx.scanString()
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '.' && isDec(lx.cursor.PeekAt(1)):
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanString()
	default:
		return lx.scanOperatorOrPunct()
	}
}

func (lx *Lexer) tokenFrom(m Mark, kind token.Kind) token.Token {
	sp := lx.cursor.SpanFrom(m)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.text[sp.Start:sp.End])}
}
