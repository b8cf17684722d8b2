package parser

import (
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

func startsExpr(k token.Kind) bool {
	switch k {
	case token.IntLit, token.DoubleLit, token.StringLit, token.KwNull, token.KwTrue, token.KwFalse,
		token.KwThis, token.KwNew, token.KwConst, token.LParen, token.LBracket, token.LBrace,
		token.Bang, token.Minus, token.PlusPlus, token.MinusMinus:
		return true
	}
	return identLike(k)
}

// Выражения разбираются только для проверки синтаксиса, узлы не строятся.
func (p *Parser) parseExpr() { p.parseAssign() }

func (p *Parser) parseAssign() {
	p.parseConditional()
	if p.eat(token.Assign) {
		p.parseAssign()
	}
}

func (p *Parser) parseConditional() {
	p.parseBinary(1)
	if p.eat(token.Question) {
		p.parseAssign()
		p.expect(token.Colon)
		p.parseAssign()
	}
}

func precedence(k token.Kind) int {
	switch k {
	case token.OrOr:
		return 1
	case token.AndAnd:
		return 2
	case token.EqEq, token.BangEq:
		return 3
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return 4
	case token.Plus, token.Minus:
		return 5
	case token.Star, token.Slash, token.Percent:
		return 6
	}
	return 0
}

func (p *Parser) parseBinary(min int) {
	p.parseUnary()
	for {
		prec := precedence(p.kind())
		if prec == 0 || prec < min {
			return
		}
		p.advance()
		p.parseBinary(prec + 1)
	}
}

func (p *Parser) parseUnary() {
	switch p.kind() {
	case token.Bang, token.Minus, token.PlusPlus, token.MinusMinus:
		p.advance()
		p.parseUnary()
		return
	}
	p.parsePostfix()
}

func (p *Parser) parsePostfix() {
	if !p.parsePrimary() {
		return
	}
	for {
		switch p.kind() {
		case token.Dot:
			p.advance()
			if _, _, ok := p.expectIdent(); !ok {
				return
			}
		case token.LParen:
			p.parseArgs()
		case token.LBracket:
			p.advance()
			p.parseExpr()
			p.expect(token.RBracket)
		case token.PlusPlus, token.MinusMinus:
			p.advance()
		default:
			return
		}
	}
}

func (p *Parser) parsePrimary() bool {
	switch k := p.kind(); {
	case k.IsLiteral(), k == token.KwNull, k == token.KwTrue, k == token.KwFalse, k == token.KwThis:
		p.advance()
	case identLike(k):
		p.advance()
	case k == token.KwNew, k == token.KwConst:
		p.advance()
		if p.at(token.LBracket) || p.at(token.LBrace) {
			return p.parsePrimary()
		}
		if _, ok := p.parseTypeRef(); !ok {
			return false
		}
		if p.eat(token.Dot) {
			if _, _, ok := p.expectIdent(); !ok {
				return false
			}
		}
		if p.at(token.LParen) {
			p.parseArgs()
		} else {
			p.expect(token.LParen)
		}
	case k == token.LParen:
		p.advance()
		p.parseExpr()
		p.expect(token.RParen)
	case k == token.LBracket:
		p.advance()
		p.parseElements(token.RBracket, false)
	case k == token.LBrace:
		p.advance()
		p.parseElements(token.RBrace, true)
	default:
		p.report(diag.SynExpectExpression, p.pos, "expected an expression, found "+describe(p.peek()))
		return false
	}
	return true
}

// parseElements handles list and map literal bodies after the opener.
func (p *Parser) parseElements(closer token.Kind, entries bool) {
	for !p.at(closer) && !p.at(token.EOF) {
		p.parseExpr()
		if entries && p.eat(token.Colon) {
			p.parseExpr()
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(closer)
}

func (p *Parser) parseArgs() {
	p.advance() // '('
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if identLike(p.kind()) && p.kindAt(p.ts.Next(p.pos)) == token.Colon {
			p.advance()
			p.advance()
		}
		before := p.pos
		p.parseExpr()
		if p.pos == before {
			break
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
}
