package parser

import (
	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

func (p *Parser) parseUnit() {
	seenDecl := false
	for !p.at(token.EOF) {
		if p.atDirective() {
			start := p.pos
			d, ok := p.parseDirective()
			if seenDecl {
				p.report(diag.SynDirectiveOrder, start, "directives must appear before any declarations")
			}
			if ok {
				p.unit.Directives = append(p.unit.Directives, d)
			} else {
				p.resyncTop()
			}
			continue
		}
		seenDecl = true
		before := p.pos
		decl, ok := p.parseTopLevel()
		if ok {
			p.unit.Decls = append(p.unit.Decls, decl)
			continue
		}
		if p.pos == before {
			p.advance()
		}
		p.resyncTop()
	}
}

// atDirective distinguishes directive keywords from the same built-in words
// used as identifiers.
func (p *Parser) atDirective() bool {
	next := p.kindAt(p.ts.Next(p.pos))
	switch p.kind() {
	case token.KwImport, token.KwExport:
		return next == token.StringLit
	case token.KwPart:
		return next == token.StringLit || next == token.KwOf
	case token.KwLibrary:
		return identLike(next) || next == token.Semicolon
	}
	return false
}

func isTopLevelStarter(k token.Kind) bool {
	switch k {
	case token.KwClass, token.KwAbstract, token.KwImport, token.KwExport, token.KwLibrary,
		token.KwPart, token.KwVar, token.KwFinal, token.KwConst, token.KwVoid, token.At, token.EOF:
		return true
	}
	return false
}

// resyncTop skips to the next plausible declaration start, honouring braces.
func (p *Parser) resyncTop() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.kind() {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth <= 1 {
				p.advance()
				return
			}
			depth--
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		default:
			if depth == 0 && isTopLevelStarter(p.kind()) {
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseDirective() (ast.Directive, bool) {
	start := p.pos
	d := ast.Directive{Keyword: start}
	switch p.advance().Kind {
	case token.KwLibrary:
		d.Kind = ast.DirLibrary
		if !p.at(token.Semicolon) {
			name, ok := p.parseDottedName()
			if !ok {
				return d, false
			}
			d.Name = name
		}
	case token.KwImport, token.KwExport:
		d.Kind = ast.DirImport
		if p.kindAt(start) == token.KwExport {
			d.Kind = ast.DirExport
		}
		if !p.parseURI(&d) {
			return d, false
		}
		if d.Kind == ast.DirImport && p.eat(token.KwAs) {
			name, _, ok := p.expectIdent()
			if !ok {
				return d, false
			}
			d.Prefix = name
		}
		for p.at(token.KwShow) || p.at(token.KwHide) {
			show := p.advance().Kind == token.KwShow
			names, ok := p.parseIdentList()
			if !ok {
				return d, false
			}
			if show {
				d.Show = append(d.Show, names...)
			} else {
				d.Hide = append(d.Hide, names...)
			}
		}
	case token.KwPart:
		d.Kind = ast.DirPart
		if p.eat(token.KwOf) {
			d.Kind = ast.DirPartOf
			if p.at(token.StringLit) {
				p.parseURI(&d)
			} else {
				name, ok := p.parseDottedName()
				if !ok {
					return d, false
				}
				d.Name = name
			}
		} else if !p.parseURI(&d) {
			return d, false
		}
	}
	p.expect(token.Semicolon)
	d.Span = p.spanFrom(start)
	return d, true
}

func (p *Parser) parseURI(d *ast.Directive) bool {
	if !p.at(token.StringLit) {
		p.report(diag.SynExpectURI, p.pos, "expected a URI string, found "+describe(p.peek()))
		return false
	}
	tok := p.advance()
	d.URI = lexer.StringValue(tok.Text)
	d.URISpan = tok.Span
	return true
}

func (p *Parser) parseDottedName() (string, bool) {
	name, _, ok := p.expectIdent()
	if !ok {
		return "", false
	}
	for p.at(token.Dot) {
		p.advance()
		part, _, ok := p.expectIdent()
		if !ok {
			return name, false
		}
		name += "." + part
	}
	return name, true
}

func (p *Parser) parseIdentList() ([]string, bool) {
	var out []string
	for {
		name, _, ok := p.expectIdent()
		if !ok {
			return out, false
		}
		out = append(out, name)
		if !p.eat(token.Comma) {
			return out, true
		}
	}
}
