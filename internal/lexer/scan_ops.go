package lexer

import (
	"fmt"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

var singleOps = map[byte]token.Kind{
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
	';': token.Semicolon,
	',': token.Comma,
	'.': token.Dot,
	':': token.Colon,
	'?': token.Question,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'@': token.At,
}

// scanOperatorOrPunct picks the longest operator at the cursor.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	c := &lx.cursor
	b := c.Bump()

	two := func(next byte, long, short token.Kind) token.Token {
		if c.Eat(next) {
			return lx.tokenFrom(start, long)
		}
		return lx.tokenFrom(start, short)
	}

	switch b {
	case '=':
		if c.Eat('>') {
			return lx.tokenFrom(start, token.FatArrow)
		}
		return two('=', token.EqEq, token.Assign)
	case '!':
		return two('=', token.BangEq, token.Bang)
	case '<':
		return two('=', token.LtEq, token.Lt)
	case '>':
		return two('=', token.GtEq, token.Gt)
	case '+':
		return two('+', token.PlusPlus, token.Plus)
	case '-':
		return two('-', token.MinusMinus, token.Minus)
	case '&':
		if c.Eat('&') {
			return lx.tokenFrom(start, token.AndAnd)
		}
	case '|':
		if c.Eat('|') {
			return lx.tokenFrom(start, token.OrOr)
		}
	default:
		if k, ok := singleOps[b]; ok {
			return lx.tokenFrom(start, k)
		}
	}

	sp := c.SpanFrom(start)
	lx.report(diag.LexUnknownChar, sp, fmt.Sprintf("unexpected character %q", b))
	return lx.tokenFrom(start, token.Invalid)
}
