package lexer

import (
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"

	"golang.org/x/text/unicode/norm"
)

// scanIdentOrKeyword scans an identifier and classifies keywords.
// Non-ASCII identifiers are NFC-normalized so that "é" typed either way
// binds to the same declaration.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	r, _ := lx.peekRune()
	if r < utf8RuneSelf {
		lx.cursor.Bump()
	} else {
		if !isIdentStartRune(r) {
			lx.bumpRune()
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnknownChar, sp, "unexpected character "+string(r))
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.text[sp.Start:sp.End])}
		}
		ascii = false
		lx.bumpRune()
	}
	for {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) || lx.cursor.EOF() {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r2, _ := lx.peekRune()
		if !isIdentContinueRune(r2) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	tok := lx.tokenFrom(start, token.Ident)
	if !ascii {
		tok.Text = norm.NFC.String(tok.Text)
		return tok
	}
	if k, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = k
	}
	return tok
}
