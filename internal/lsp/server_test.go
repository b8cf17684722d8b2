package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// syncBuffer is written by the publisher goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

type harness struct {
	t    *testing.T
	root string
	mem  *source.Memory
	out  *syncBuffer
	srv  *Server
	next int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		root: t.TempDir(),
		mem:  source.NewMemory(),
		out:  &syncBuffer{},
	}
	h.srv = NewServer(bytes.NewReader(nil), h.out, ServerOptions{
		Debounce: time.Hour,
		Base:     h.mem,
		Log:      io.Discard,
	})
	t.Cleanup(h.srv.stopEngine)
	h.call("initialize", initializeParams{RootURI: pathToURI(h.root)})
	return h
}

func (h *harness) path(rel string) string { return filepath.Join(h.root, rel) }
func (h *harness) uri(rel string) string  { return pathToURI(h.path(rel)) }

func (h *harness) notify(method string, params any) {
	h.t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		h.t.Fatalf("marshal %s: %v", method, err)
	}
	if err := h.srv.handleMessage(&rpcMessage{Method: method, Params: payload}); err != nil {
		h.t.Fatalf("%s: %v", method, err)
	}
}

// call sends a request and returns the raw result of its response.
func (h *harness) call(method string, params any) json.RawMessage {
	h.t.Helper()
	h.next++
	id := json.RawMessage(strings.TrimSpace(string(mustJSON(h.t, h.next))))
	payload := mustJSON(h.t, params)
	if err := h.srv.handleMessage(&rpcMessage{ID: id, Method: method, Params: payload}); err != nil {
		h.t.Fatalf("%s: %v", method, err)
	}
	for _, msg := range h.messages() {
		if string(msg.ID) == string(id) {
			if msg.Error != nil {
				h.t.Fatalf("%s failed: %d %s", method, msg.Error.Code, msg.Error.Message)
			}
			return msg.Result
		}
	}
	h.t.Fatalf("no response to %s", method)
	return nil
}

func (h *harness) messages() []rpcMessage {
	h.t.Helper()
	reader := bufio.NewReader(bytes.NewReader(h.out.Bytes()))
	var out []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			h.t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.t.Fatalf("decode message: %v", err)
		}
		out = append(out, msg)
	}
}

// lastPublish returns the most recent diagnostics published for uri.
func (h *harness) lastPublish(uri string) (publishDiagnosticsParams, bool) {
	h.t.Helper()
	var last publishDiagnosticsParams
	found := false
	for _, msg := range h.messages() {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			h.t.Fatalf("decode params: %v", err)
		}
		if params.URI == uri {
			last, found = params, true
		}
	}
	return last, found
}

// settle flushes edits, waits for uri to be analysed and publishes.
func (h *harness) settle(uri string) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := h.srv.analyzeFor(ctx, uri); err != nil {
		h.t.Fatalf("analyze %s: %v", uri, err)
	}
	h.srv.publishDiagnostics(ctx)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestPublishDiagnosticsFollowEdits(t *testing.T) {
	h := newHarness(t)
	uri := h.uri("a.dart")
	h.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: "class A extends B {}\n"},
	})
	h.settle(uri)

	params, ok := h.lastPublish(uri)
	if !ok {
		t.Fatal("expected diagnostics for the open document")
	}
	if len(params.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", params.Diagnostics)
	}
	got := params.Diagnostics[0]
	if got.Code != "SEM3004" || got.Severity != severityError {
		t.Fatalf("unexpected diagnostic: %+v", got)
	}
	if got.Range.Start != (position{Line: 0, Character: 16}) || got.Range.End != (position{Line: 0, Character: 17}) {
		t.Fatalf("unexpected range: %+v", got.Range)
	}
	if params.Version == nil || *params.Version != 1 {
		t.Fatalf("expected version 1, got %v", params.Version)
	}

	h.notify("textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{}, End: position{}},
			Text:  "class B {}\n",
		}},
	})
	h.settle(uri)

	params, _ = h.lastPublish(uri)
	if len(params.Diagnostics) != 0 {
		t.Fatalf("expected diagnostics to clear, got %+v", params.Diagnostics)
	}
}

func TestDefinitionAcrossImport(t *testing.T) {
	h := newHarness(t)
	h.mem.Set(source.New(h.path("b.dart")), "class Base {}\n")
	uri := h.uri("a.dart")
	h.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: "import 'b.dart';\nclass A extends Base {}\n"},
	})

	raw := h.call("textDocument/definition", definitionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     position{Line: 1, Character: 18},
	})
	var loc location
	if err := json.Unmarshal(raw, &loc); err != nil {
		t.Fatalf("decode location %s: %v", raw, err)
	}
	if loc.URI != h.uri("b.dart") {
		t.Fatalf("expected b.dart, got %q", loc.URI)
	}
	want := lspRange{Start: position{Line: 0, Character: 6}, End: position{Line: 0, Character: 10}}
	if loc.Range != want {
		t.Fatalf("unexpected range %+v", loc.Range)
	}

	raw = h.call("textDocument/definition", definitionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     position{Line: 1, Character: 1},
	})
	if len(raw) != 0 && string(raw) != "null" {
		t.Fatalf("keyword should have no definition, got %s", raw)
	}
}

func TestDocumentSymbolOutline(t *testing.T) {
	h := newHarness(t)
	uri := h.uri("shapes.dart")
	text := "class Shape {\n  int sides;\n  Shape(this.sides);\n  double area() => 0.0;\n}\n\nvoid main() {}\n"
	h.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: text},
	})

	raw := h.call("textDocument/documentSymbol", documentSymbolParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	})
	var syms []documentSymbol
	if err := json.Unmarshal(raw, &syms); err != nil {
		t.Fatalf("decode symbols: %v", err)
	}
	if len(syms) != 2 || syms[0].Name != "Shape" || syms[1].Name != "main" {
		t.Fatalf("unexpected outline: %+v", syms)
	}
	if syms[0].Kind != symbolKindClass || syms[1].Kind != symbolKindFunction {
		t.Fatalf("unexpected kinds: %d %d", syms[0].Kind, syms[1].Kind)
	}
	kinds := make(map[string]int)
	for _, c := range syms[0].Children {
		kinds[c.Name] = c.Kind
	}
	if kinds["sides"] != symbolKindField || kinds["Shape"] != symbolKindConstructor || kinds["area"] != symbolKindMethod {
		t.Fatalf("unexpected members: %v", kinds)
	}
	if syms[0].SelectionRange.Start != (position{Line: 0, Character: 6}) {
		t.Fatalf("unexpected selection range: %+v", syms[0].SelectionRange)
	}
}

func TestRequestsBeforeInitializeFail(t *testing.T) {
	var out syncBuffer
	srv := NewServer(bytes.NewReader(nil), &out, ServerOptions{Log: io.Discard})
	payload := mustJSON(t, definitionParams{TextDocument: textDocumentIdentifier{URI: "file:///x.dart"}})
	if err := srv.handleMessage(&rpcMessage{ID: json.RawMessage("7"), Method: "textDocument/definition", Params: payload}); err != nil {
		t.Fatalf("definition: %v", err)
	}
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	data, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var msg rpcMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Error == nil || msg.Error.Code != codeServerNotReady {
		t.Fatalf("expected not-ready error, got %s", data)
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	var in bytes.Buffer
	if err := writeMessage(&in, []byte(`{"jsonrpc":"2.0","method":"exit"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	srv := NewServer(&in, io.Discard, ServerOptions{Log: io.Discard})
	if err := srv.Run(context.Background()); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestApplyChangesUTF16(t *testing.T) {
	text := "a🙂b\nsecond"
	got := applyChanges(text, []textDocumentContentChangeEvent{{
		Range: &lspRange{Start: position{Line: 0, Character: 3}, End: position{Line: 0, Character: 4}},
		Text:  "c",
	}})
	if got != "a🙂c\nsecond" {
		t.Fatalf("unexpected text %q", got)
	}
	got = applyChanges(got, []textDocumentContentChangeEvent{{
		Range: &lspRange{Start: position{Line: 1, Character: 0}, End: position{Line: 5, Character: 0}},
		Text:  "",
	}})
	if got != "a🙂c\n" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestDocumentPositionRoundTrip(t *testing.T) {
	doc := newDocument([]byte("x\né🙂y\n"))
	off := uint32(len("x\né🙂"))
	pos := doc.positionAt(off)
	if pos != (position{Line: 1, Character: 3}) {
		t.Fatalf("unexpected position %+v", pos)
	}
	if back := doc.offsetAt(pos); back != off {
		t.Fatalf("offset %d, want %d", back, off)
	}
}
