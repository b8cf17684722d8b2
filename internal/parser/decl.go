package parser

import (
	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// skipType scans a type starting at i without reporting and returns the
// index just past it. Accepts void, T, p.T, T<...> and a trailing '?'.
func (p *Parser) skipType(i token.Index) (token.Index, bool) {
	switch k := p.kindAt(i); {
	case k == token.KwVoid:
		return p.ts.Next(i), true
	case !identLike(k):
		return i, false
	}
	i = p.ts.Next(i)
	if p.kindAt(i) == token.Dot && identLike(p.kindAt(p.ts.Next(i))) {
		i = p.ts.Next(p.ts.Next(i))
	}
	if p.kindAt(i) == token.Lt {
		depth := 0
	args:
		for {
			switch p.kindAt(i) {
			case token.Lt:
				depth++
			case token.Gt:
				depth--
				if depth == 0 {
					i = p.ts.Next(i)
					break args
				}
			case token.Comma, token.Dot, token.Question, token.KwVoid:
			default:
				if !identLike(p.kindAt(i)) {
					return i, false
				}
			}
			i = p.ts.Next(i)
		}
	}
	if p.kindAt(i) == token.Question {
		i = p.ts.Next(i)
	}
	return i, true
}

// declNameAt returns the index of the declared name in "Type? name".
func (p *Parser) declNameAt() token.Index {
	if end, ok := p.skipType(p.pos); ok && end != p.pos && identLike(p.kindAt(end)) {
		return end
	}
	return p.pos
}

func (p *Parser) skipMetadata() {
	for p.at(token.At) {
		p.advance()
		p.expectIdent()
		for p.at(token.Dot) {
			p.advance()
			p.expectIdent()
		}
		if p.at(token.LParen) {
			p.parseArgs()
		}
	}
}

func (p *Parser) parseTopLevel() (ast.Decl, bool) {
	p.skipMetadata()
	start := p.pos
	switch p.kind() {
	case token.KwAbstract, token.KwClass:
		if p.kind() == token.KwClass || p.kindAt(p.ts.Next(p.pos)) == token.KwClass {
			return p.parseClass()
		}
	case token.KwVar, token.KwFinal, token.KwConst:
		p.advance()
		return p.parseVariableRest(start)
	}
	if !identLike(p.kind()) && !p.at(token.KwVoid) {
		p.report(diag.SynUnexpectedTopLevel, p.pos, "expected a declaration, found "+describe(p.peek()))
		return ast.Decl{}, false
	}
	nameAt := p.declNameAt()
	if p.kindAt(p.ts.Next(nameAt)) == token.LParen {
		p.pos = nameAt
		name, tok, _ := p.expectIdent()
		d := ast.Decl{Kind: ast.DeclFunction, Name: name, NameTok: tok}
		p.parseParams()
		ok := p.parseBody()
		d.Span = p.spanFrom(start)
		return d, ok
	}
	p.pos = nameAt
	return p.parseVariableRest(start)
}

// parseVariableRest parses "name (= e)? (, name (= e)?)* ;" after any
// modifier and type. Names after the first go straight into the unit.
func (p *Parser) parseVariableRest(start token.Index) (ast.Decl, bool) {
	if nameAt := p.declNameAt(); nameAt != p.pos {
		p.pos = nameAt
	}
	name, tok, ok := p.expectIdent()
	if !ok {
		return ast.Decl{}, false
	}
	d := ast.Decl{Kind: ast.DeclVariable, Name: name, NameTok: tok}
	if p.eat(token.Assign) {
		p.parseExpr()
	}
	for p.eat(token.Comma) {
		more, mtok, ok := p.expectIdent()
		if !ok {
			return d, false
		}
		if p.eat(token.Assign) {
			p.parseExpr()
		}
		p.unit.Decls = append(p.unit.Decls, ast.Decl{
			Kind: ast.DeclVariable, Name: more, NameTok: mtok, Span: p.ts.At(mtok).Span,
		})
	}
	ok = p.expect(token.Semicolon)
	d.Span = p.spanFrom(start)
	return d, ok
}

func (p *Parser) parseTypeRef() (ast.TypeRef, bool) {
	start := p.pos
	name, tok, ok := p.expectIdent()
	if !ok {
		return ast.TypeRef{}, false
	}
	ref := ast.TypeRef{Name: name, Tok: tok}
	if p.at(token.Dot) {
		p.advance()
		inner, itok, ok := p.expectIdent()
		if !ok {
			return ref, false
		}
		ref = ast.TypeRef{Prefix: name, Name: inner, Tok: itok}
	}
	if p.at(token.Lt) {
		end, ok := p.skipType(start)
		if !ok {
			p.report(diag.SynUnexpectedToken, p.pos, "malformed type arguments")
			return ref, false
		}
		for p.pos != end {
			p.advance()
		}
	}
	p.eat(token.Question)
	ref.Span = p.spanFrom(start)
	return ref, true
}

func (p *Parser) parseTypeRefList() ([]ast.TypeRef, bool) {
	var out []ast.TypeRef
	for {
		ref, ok := p.parseTypeRef()
		if !ok {
			return out, false
		}
		out = append(out, ref)
		if !p.eat(token.Comma) {
			return out, true
		}
	}
}

func (p *Parser) parseClass() (ast.Decl, bool) {
	start := p.pos
	d := ast.Decl{Kind: ast.DeclClass}
	if p.eat(token.KwAbstract) {
		d.Abstract = true
	}
	p.expect(token.KwClass)
	name, tok, ok := p.expectIdent()
	if !ok {
		return d, false
	}
	d.Name, d.NameTok = name, tok
	if p.at(token.Lt) {
		end, ok := p.skipType(tok)
		if !ok {
			p.report(diag.SynUnexpectedToken, p.pos, "malformed type parameters")
			return d, false
		}
		for p.pos != end {
			p.advance()
		}
	}
	if p.eat(token.KwExtends) {
		if d.Extends, ok = p.parseTypeRef(); !ok {
			return d, false
		}
	}
	if p.eat(token.KwWith) {
		if d.With, ok = p.parseTypeRefList(); !ok {
			return d, false
		}
	}
	if p.eat(token.KwImplements) {
		if d.Implements, ok = p.parseTypeRefList(); !ok {
			return d, false
		}
	}
	open := p.pos
	if !p.expect(token.LBrace) {
		return d, false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		if m, ok := p.parseMember(d.Name); ok {
			d.Members = append(d.Members, m)
		} else {
			p.resyncMember(before)
		}
	}
	if p.at(token.EOF) {
		p.report(diag.SynUnclosedBrace, open, "class body is not closed")
		d.Span = p.spanFrom(start)
		return d, true
	}
	p.advance()
	d.Span = p.spanFrom(start)
	return d, true
}

// resyncMember skips past the broken member: to the next ';' or up to the
// closing brace of the class.
func (p *Parser) resyncMember(before token.Index) {
	if p.pos == before && !p.at(token.RBrace) {
		p.advance()
	}
	depth := 0
	for !p.at(token.EOF) {
		switch p.kind() {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseMember(className string) (ast.Member, bool) {
	p.skipMetadata()
	start := p.pos
	var m ast.Member
	if p.at(token.KwStatic) && p.kindAt(p.ts.Next(p.pos)) != token.LParen {
		p.advance()
		m.Static = true
	}
	if p.atConstructor(className) {
		return p.parseConstructor(m, start)
	}
	switch p.kind() {
	case token.KwVar, token.KwFinal, token.KwConst:
		p.advance()
		return p.parseFieldRest(m, start)
	}
	if !identLike(p.kind()) && !p.at(token.KwVoid) {
		p.report(diag.SynUnexpectedToken, p.pos, "expected a class member, found "+describe(p.peek()))
		return m, false
	}
	p.pos = p.declNameAt()
	if p.kindAt(p.ts.Next(p.pos)) != token.LParen {
		return p.parseFieldRest(m, start)
	}
	m.Kind = ast.MemberMethod
	m.Name, m.NameTok, _ = p.expectIdent()
	if !p.parseParams() {
		return m, false
	}
	m.Abstract = p.at(token.Semicolon)
	ok := p.parseBody()
	m.Span = p.spanFrom(start)
	return m, ok
}

func (p *Parser) atConstructor(className string) bool {
	i := p.pos
	if p.kindAt(i) == token.KwConst {
		i = p.ts.Next(i)
	}
	tok := p.ts.At(i)
	if tok.Kind != token.Ident || tok.Text != className {
		return false
	}
	next := p.kindAt(p.ts.Next(i))
	return next == token.LParen || next == token.Dot
}

func (p *Parser) parseFieldRest(m ast.Member, start token.Index) (ast.Member, bool) {
	p.pos = p.declNameAt()
	m.Kind = ast.MemberField
	var ok bool
	if m.Name, m.NameTok, ok = p.expectIdent(); !ok {
		return m, false
	}
	if p.eat(token.Assign) {
		p.parseExpr()
	}
	for p.eat(token.Comma) {
		if _, _, ok := p.expectIdent(); !ok {
			return m, false
		}
		if p.eat(token.Assign) {
			p.parseExpr()
		}
	}
	ok = p.expect(token.Semicolon)
	m.Span = p.spanFrom(start)
	return m, ok
}

func (p *Parser) parseConstructor(m ast.Member, start token.Index) (ast.Member, bool) {
	p.eat(token.KwConst)
	m.Kind = ast.MemberConstructor
	m.Name, m.NameTok, _ = p.expectIdent()
	if p.eat(token.Dot) {
		named, tok, ok := p.expectIdent()
		if !ok {
			return m, false
		}
		m.Name += "." + named
		m.NameTok = tok
	}
	if !p.parseParams() {
		return m, false
	}
	if p.eat(token.Colon) {
		// initializer list
		for {
			if p.at(token.KwThis) {
				p.advance()
				if !p.expect(token.Dot) {
					return m, false
				}
				if _, _, ok := p.expectIdent(); !ok {
					return m, false
				}
				p.expect(token.Assign)
				p.parseAssign()
			} else {
				p.parseExpr()
			}
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	m.Abstract = p.at(token.Semicolon)
	ok := p.parseBody()
	m.Span = p.spanFrom(start)
	return m, ok
}

// parseParams parses "( ... )" including optional [..] and named {..} groups.
func (p *Parser) parseParams() bool {
	if !p.expect(token.LParen) {
		return false
	}
	closers := []token.Kind{token.RParen}
	for len(closers) > 0 {
		closer := closers[len(closers)-1]
		if p.eat(closer) {
			closers = closers[:len(closers)-1]
			if len(closers) > 0 {
				p.eat(token.Comma)
			}
			continue
		}
		if p.at(token.EOF) {
			p.expect(closer)
			return false
		}
		if len(closers) == 1 && (p.at(token.LBracket) || p.at(token.LBrace)) {
			if p.advance().Kind == token.LBracket {
				closers = append(closers, token.RBracket)
			} else {
				closers = append(closers, token.RBrace)
			}
			continue
		}
		if !p.parseParam() {
			return false
		}
		if !p.eat(token.Comma) && !p.at(closer) {
			p.expect(closer)
			return false
		}
	}
	return true
}

func (p *Parser) parseParam() bool {
	p.skipMetadata()
	switch p.kind() {
	case token.KwFinal, token.KwVar, token.KwConst:
		p.advance()
	}
	if p.peek().Text == "required" && identLike(p.kindAt(p.ts.Next(p.pos))) {
		p.advance()
	}
	if p.at(token.KwThis) {
		p.advance()
		if !p.expect(token.Dot) {
			return false
		}
	} else {
		p.pos = p.declNameAt()
	}
	if _, _, ok := p.expectIdent(); !ok {
		return false
	}
	if p.eat(token.Assign) || p.eat(token.Colon) {
		p.parseExpr()
	}
	return true
}

// parseBody parses a block, "=> expr;" or a bare ';'.
func (p *Parser) parseBody() bool {
	switch p.kind() {
	case token.LBrace:
		return p.parseBlock()
	case token.FatArrow:
		p.advance()
		p.parseExpr()
		return p.expect(token.Semicolon)
	case token.Semicolon:
		p.advance()
		return true
	}
	p.report(diag.SynExpectBody, p.pos, "expected a function body, found "+describe(p.peek()))
	return false
}
