package lexer

import (
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// scanString handles '...', "...", raw r'...', and triple-quoted strings.
// Interpolation is kept as plain text. An unterminated literal is reported
// once at its opening quote and still yields a StringLit token.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	c := &lx.cursor
	raw := c.Eat('r')
	quote := c.Bump()
	triple := c.Peek() == quote && c.PeekAt(1) == quote
	if triple {
		c.Bump()
		c.Bump()
	}

	for {
		if c.EOF() || (!triple && c.Peek() == '\n') {
			sp := c.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return lx.tokenFrom(start, token.StringLit)
		}
		b := c.Bump()
		switch {
		case b == '\\' && !raw:
			if !c.EOF() {
				c.Bump()
			}
		case b == quote && !triple:
			return lx.tokenFrom(start, token.StringLit)
		case b == quote && c.Peek() == quote && c.PeekAt(1) == quote:
			c.Bump()
			c.Bump()
			return lx.tokenFrom(start, token.StringLit)
		}
	}
}

// StringValue returns the content of a string literal token without quotes,
// with simple escapes decoded. Used for directive URIs.
func StringValue(text string) string {
	raw := false
	if len(text) > 0 && text[0] == 'r' {
		raw = true
		text = text[1:]
	}
	if len(text) < 2 {
		return ""
	}
	q := text[0]
	n := 1
	if len(text) >= 6 && text[1] == q && text[2] == q {
		n = 3
	}
	body := text[n:]
	if len(body) >= n && body[len(body)-n:] == text[:n] {
		body = body[:len(body)-n]
	}
	if raw {
		return body
	}
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			out = append(out, body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		default:
			out = append(out, body[i])
		}
	}
	return string(out)
}
