package parser

import (
	"fmt"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint // 0 = unlimited
}

// Parser: состояние парсера на один файл
type Parser struct {
	src      source.Source
	ts       *token.Stream
	pos      token.Index
	opts     Options
	errors   uint
	errTok   token.Index // token of the last report; further reports there are cascades
	lastSpan source.Span // span of the last consumed token
	unit     *ast.Unit
}

// Parse builds the unit for ts. It always returns a unit; syntax errors go to
// opts.Reporter and the parser recovers at statement, member and
// declaration boundaries.
func Parse(src source.Source, ts *token.Stream, opts Options) *ast.Unit {
	p := &Parser{
		src:    src,
		ts:     ts,
		opts:   opts,
		errTok: token.NoIndex,
		unit:   &ast.Unit{Source: src, Tokens: ts},
	}
	p.parseUnit()
	return p.unit
}

func (p *Parser) peek() token.Token               { return p.ts.At(p.pos) }
func (p *Parser) kind() token.Kind                { return p.ts.At(p.pos).Kind }
func (p *Parser) kindAt(i token.Index) token.Kind { return p.ts.At(i).Kind }
func (p *Parser) at(k token.Kind) bool            { return p.kind() == k }

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind != token.EOF {
		p.lastSpan = tok.Span
		p.pos = p.ts.Next(p.pos)
	}
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) report(code diag.Code, at token.Index, msg string) {
	if at == p.errTok {
		return
	}
	p.errTok = at
	if p.opts.MaxErrors > 0 && p.errors >= p.opts.MaxErrors {
		return
	}
	p.errors++
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, p.src, p.ts.At(at).Span, msg, nil)
	}
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.DoubleLit, token.StringLit, token.Invalid:
		return fmt.Sprintf("'%s'", tok.Text)
	default:
		return tok.Kind.String()
	}
}

// expect consumes k or reports "expected k" at the current token without
// consuming it.
func (p *Parser) expect(k token.Kind) bool {
	if p.eat(k) {
		return true
	}
	code := diag.SynUnexpectedToken
	switch k {
	case token.Semicolon:
		code = diag.SynExpectSemicolon
	case token.RParen:
		code = diag.SynUnclosedParen
	}
	p.report(code, p.pos, fmt.Sprintf("expected %s, found %s", k, describe(p.peek())))
	return false
}

func identLike(k token.Kind) bool {
	return k == token.Ident || token.IsBuiltIn(k)
}

// expectIdent consumes an identifier (or built-in word) and returns it.
func (p *Parser) expectIdent() (string, token.Index, bool) {
	if identLike(p.kind()) {
		i := p.pos
		return p.advance().Text, i, true
	}
	p.report(diag.SynExpectIdentifier, p.pos, fmt.Sprintf("expected identifier, found %s", describe(p.peek())))
	return "", p.pos, false
}

func (p *Parser) spanFrom(start token.Index) source.Span {
	sp := p.ts.At(start).Span
	if p.lastSpan.End >= sp.Start {
		sp.End = p.lastSpan.End
	}
	return sp
}
