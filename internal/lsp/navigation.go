package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

const requestTimeout = 10 * time.Second

// analyzeFor flushes pending edits and blocks until uri is resolved. A nil
// result with a nil error means the document cannot be analysed.
func (s *Server) analyzeFor(ctx context.Context, uri string) (*engine.Server, *engine.Result, error) {
	eng := s.currentEngine()
	if eng == nil {
		return nil, nil, errNotReady
	}
	src := sourceOf(uri)
	if src.IsZero() {
		return eng, nil, nil
	}
	s.flushChanges()
	res, err := eng.AnalyzeNow(ctx, src)
	if errors.Is(err, engine.ErrNotResolved) {
		return eng, nil, nil
	}
	if err != nil {
		return eng, nil, err
	}
	return eng, &res, nil
}

var errNotReady = errors.New("workspace not initialized")

func (s *Server) replyFailure(id json.RawMessage, err error) error {
	if errors.Is(err, errNotReady) {
		return s.sendError(id, codeServerNotReady, err.Error())
	}
	return s.sendError(id, codeRequestFailed, err.Error())
}

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params definitionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	ctx, cancel := context.WithTimeout(s.baseCtx, requestTimeout)
	defer cancel()
	eng, res, err := s.analyzeFor(ctx, params.TextDocument.URI)
	if err != nil {
		return s.replyFailure(msg.ID, err)
	}
	if res == nil || res.Bound == nil {
		return s.sendResponse(msg.ID, nil)
	}
	entry, ok := eng.Cache().Peek(res.Source)
	if !ok || entry.Tokens == nil {
		return s.sendResponse(msg.ID, nil)
	}
	doc := s.documentOf(ctx, res.Source)
	idx := entry.Tokens.Find(doc.offsetAt(params.Position))
	if idx == token.NoIndex {
		return s.sendResponse(msg.ID, nil)
	}
	tok := entry.Tokens.At(idx)
	if tok.Kind != token.Ident {
		return s.sendResponse(msg.ID, nil)
	}
	sym, ok := lookupVisible(eng, res.Bound, tok.Text)
	if !ok || sym.Source.IsZero() {
		return s.sendResponse(msg.ID, nil)
	}
	target := s.documentOf(ctx, sym.Source)
	return s.sendResponse(msg.ID, location{
		URI:   uriOf(sym.Source),
		Range: target.rangeOf(sym.Span),
	})
}

// lookupVisible finds name in the library scope, then in the export
// namespaces of the imported libraries.
func lookupVisible(eng *engine.Server, lib *symbols.Library, name string) (symbols.Symbol, bool) {
	if sym, ok := lib.Scope.Lookup(name); ok {
		return sym, true
	}
	for _, imp := range lib.Imports {
		e, ok := eng.Cache().Peek(imp)
		if !ok || e.Bound == nil {
			continue
		}
		if sym, ok := e.Bound.Exported.Lookup(name); ok {
			return sym, true
		}
	}
	return symbols.Symbol{}, false
}

func (s *Server) handleDocumentSymbol(msg *rpcMessage) error {
	var params documentSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	ctx, cancel := context.WithTimeout(s.baseCtx, requestTimeout)
	defer cancel()
	eng, res, err := s.analyzeFor(ctx, params.TextDocument.URI)
	if err != nil {
		return s.replyFailure(msg.ID, err)
	}
	out := []documentSymbol{}
	if res == nil {
		return s.sendResponse(msg.ID, out)
	}
	entry, ok := eng.Cache().Peek(res.Source)
	if !ok || entry.Unit == nil {
		return s.sendResponse(msg.ID, out)
	}
	doc := s.documentOf(ctx, res.Source)
	for _, d := range entry.Unit.Decls {
		out = append(out, outline(doc, entry.Unit, d))
	}
	return s.sendResponse(msg.ID, out)
}

func outline(doc document, unit *ast.Unit, d ast.Decl) documentSymbol {
	sym := documentSymbol{
		Name:           d.Name,
		Detail:         d.Kind.String(),
		Kind:           declKind(d.Kind),
		Range:          doc.rangeOf(d.Span),
		SelectionRange: doc.rangeOf(nameSpan(unit, d.NameTok, d.Span)),
	}
	if !d.Extends.IsZero() {
		sym.Detail = "extends " + d.Extends.String()
	}
	for _, m := range d.Members {
		sym.Children = append(sym.Children, documentSymbol{
			Name:           m.Name,
			Kind:           memberKind(m.Kind),
			Range:          doc.rangeOf(m.Span),
			SelectionRange: doc.rangeOf(nameSpan(unit, m.NameTok, m.Span)),
		})
	}
	return sym
}

func nameSpan(unit *ast.Unit, idx token.Index, fallback source.Span) source.Span {
	if unit.Tokens == nil || idx == token.NoIndex || int(idx) >= unit.Tokens.Len() {
		return fallback
	}
	return unit.Tokens.At(idx).Span
}

func declKind(k ast.DeclKind) int {
	switch k {
	case ast.DeclClass:
		return symbolKindClass
	case ast.DeclFunction:
		return symbolKindFunction
	default:
		return symbolKindVariable
	}
}

func memberKind(k ast.MemberKind) int {
	switch k {
	case ast.MemberConstructor:
		return symbolKindConstructor
	case ast.MemberField:
		return symbolKindField
	default:
		return symbolKindMethod
	}
}
