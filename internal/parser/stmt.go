package parser

import (
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

func (p *Parser) parseBlock() bool {
	open := p.pos
	if !p.expect(token.LBrace) {
		return false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.parseStatement()
	}
	if p.at(token.EOF) {
		p.report(diag.SynUnclosedBrace, open, "block is not closed")
		return false
	}
	p.advance()
	return true
}

func (p *Parser) parseStatement() {
	switch p.kind() {
	case token.LBrace:
		p.parseBlock()
	case token.Semicolon:
		p.advance()
	case token.KwReturn:
		p.advance()
		if !p.at(token.Semicolon) && startsExpr(p.kind()) {
			p.parseExpr()
		}
		p.expect(token.Semicolon)
	case token.KwIf:
		p.advance()
		p.parseCondition()
		p.parseStatement()
		if p.eat(token.KwElse) {
			p.parseStatement()
		}
	case token.KwWhile:
		p.advance()
		p.parseCondition()
		p.parseStatement()
	case token.KwFor:
		p.advance()
		p.skipParenthesized()
		p.parseStatement()
	case token.KwVar, token.KwFinal, token.KwConst:
		p.advance()
		p.parseLocals()
	default:
		if p.atLocalDecl() {
			p.parseLocals()
			return
		}
		if !startsExpr(p.kind()) {
			p.report(diag.SynUnexpectedToken, p.pos, "unexpected "+describe(p.peek()))
			p.advance()
			return
		}
		p.parseExpr()
		p.expect(token.Semicolon)
	}
}

func (p *Parser) parseCondition() {
	if !p.expect(token.LParen) {
		return
	}
	p.parseExpr()
	p.expect(token.RParen)
}

// skipParenthesized consumes a balanced "( ... )" group, as in for headers.
func (p *Parser) skipParenthesized() {
	open := p.pos
	if !p.expect(token.LParen) {
		return
	}
	depth := 1
	for depth > 0 {
		switch p.kind() {
		case token.EOF:
			p.report(diag.SynUnclosedParen, open, "'(' is not closed")
			return
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		}
		p.advance()
	}
}

// atLocalDecl reports "Type name" followed by '=', ';' or ','.
func (p *Parser) atLocalDecl() bool {
	end, ok := p.skipType(p.pos)
	if !ok || end == p.pos || !identLike(p.kindAt(end)) {
		return false
	}
	switch p.kindAt(p.ts.Next(end)) {
	case token.Assign, token.Semicolon, token.Comma:
		return true
	}
	return false
}

func (p *Parser) parseLocals() {
	p.pos = p.declNameAt()
	for {
		if _, _, ok := p.expectIdent(); !ok {
			return
		}
		if p.eat(token.Assign) {
			p.parseExpr()
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.Semicolon)
}
