package lexer

import (
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// scanNumber handles 12, 0x1F, 1.5, .5, 1e10, 1.5e-3.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	c := &lx.cursor

	if c.Peek() == '0' && (c.PeekAt(1) == 'x' || c.PeekAt(1) == 'X') {
		c.Bump()
		c.Bump()
		if !isHex(c.Peek()) {
			sp := c.SpanFrom(start)
			lx.report(diag.LexBadNumber, sp, "hexadecimal literal needs at least one digit")
			return lx.tokenFrom(start, token.Invalid)
		}
		for isHex(c.Peek()) {
			c.Bump()
		}
		return lx.tokenFrom(start, token.IntLit)
	}

	kind := token.IntLit
	for isDec(c.Peek()) {
		c.Bump()
	}
	if c.Peek() == '.' && isDec(c.PeekAt(1)) {
		kind = token.DoubleLit
		c.Bump()
		for isDec(c.Peek()) {
			c.Bump()
		}
	}
	if b := c.Peek(); b == 'e' || b == 'E' {
		exp := c.Mark()
		c.Bump()
		if c.Peek() == '+' || c.Peek() == '-' {
			c.Bump()
		}
		if !isDec(c.Peek()) {
			// "1e" is the literal 1 followed by identifier e
			c.Reset(exp)
			return lx.tokenFrom(start, kind)
		}
		for isDec(c.Peek()) {
			c.Bump()
		}
		kind = token.DoubleLit
	}
	return lx.tokenFrom(start, kind)
}
