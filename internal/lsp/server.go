package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/frontend"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/trace"
	"github.com/MarkBennett/dart-sub004/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Debounce delays forwarding edits to the engine so bursts of
	// keystrokes become one invalidation.
	Debounce       time.Duration
	MaxDiagnostics int
	// Base supplies the text of files that are not open; defaults to disk.
	Base          source.Provider
	Frontend      frontend.Frontend
	CacheCapacity int
	Tracer        trace.Tracer
	// Log receives server and engine log lines; defaults to stderr.
	Log io.Writer
}

// Server speaks LSP over stdio and keeps one analysis engine for the
// workspace. Open buffers shadow disk contents through an overlay.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex
	opts   ServerOptions

	overlay *source.Overlay
	engine  *engine.Server
	idle    engine.Handle

	openDocs  map[string]string
	versions  map[string]int
	pending   map[source.Source]struct{}
	published map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	debounceTimer     *time.Timer
	publishCh         chan struct{}
	baseCtx           context.Context
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	if opts.Base == nil {
		opts.Base = source.Disk{}
	}
	if opts.Log == nil {
		opts.Log = os.Stderr
	}
	return &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		opts:      opts,
		overlay:   source.NewOverlay(opts.Base),
		openDocs:  make(map[string]string),
		versions:  make(map[string]int),
		pending:   make(map[source.Source]struct{}),
		published: make(map[string]struct{}),
		publishCh: make(chan struct{}, 1),
		baseCtx:   context.Background(),
	}
}

// Run serves LSP requests until exit or EOF.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	defer s.stopEngine()
	go s.publishLoop(ctx)
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "workspace/didChangeWatchedFiles":
		return s.handleDidChangeWatchedFiles(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	if root != "" {
		if err := s.ensureEngine(root); err != nil {
			s.logf("engine not started: %v", err)
		}
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    syncIncremental,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			DefinitionProvider:     true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: serverInfo{Name: "dartsub", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

// ensureEngine starts the analysis engine for the workspace containing
// hint. It is a no-op once an engine runs.
func (s *Server) ensureEngine(hint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return nil
	}
	m, err := project.Discover(resolveStartDir(hint))
	if err != nil {
		return err
	}
	ws := m.Config.Workspace
	capacity := s.opts.CacheCapacity
	if capacity == 0 {
		capacity = m.Config.Engine.CacheCapacity
	}
	eng := engine.New(engine.Options{
		Provider:      s.overlay,
		Frontend:      s.opts.Frontend,
		Root:          ws.Root,
		Roots:         ws.Roots,
		CacheCapacity: capacity,
		Tracer:        s.opts.Tracer,
		Log:           s.opts.Log,
	})
	if err := eng.Start(s.baseCtx); err != nil {
		return err
	}
	s.idle = eng.AddIdleListener(s.requestPublish)
	s.engine = eng
	s.workspaceRoot = ws.Root
	s.logf("workspace %s (engine %s)", ws.Root, eng.ID())
	return eng.QueueAnalyzeContext()
}

func (s *Server) currentEngine() *engine.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Server) stopEngine() {
	s.mu.Lock()
	eng := s.engine
	s.engine = nil
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()
	if eng != nil {
		eng.RemoveIdleListener(s.idle)
		eng.Stop()
	}
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopEngine()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	src := sourceOf(uri)
	if src.IsZero() {
		return nil
	}
	if err := s.ensureEngine(src.Path()); err != nil {
		s.logf("engine not started: %v", err)
	}
	s.mu.Lock()
	_, reopened := s.openDocs[uri]
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	// открытые документы не вытесняются из кэша
	if eng := s.currentEngine(); eng != nil && !reopened {
		eng.Pin(src)
	}
	s.overlay.Update(src, params.TextDocument.Text, int64(params.TextDocument.Version))
	s.markChanged(src)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	src := sourceOf(uri)
	if src.IsZero() {
		return nil
	}
	s.mu.Lock()
	text := applyChanges(s.openDocs[uri], params.ContentChanges)
	s.openDocs[uri] = text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.overlay.Update(src, text, int64(params.TextDocument.Version))
	s.markChanged(src)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	src := sourceOf(uri)
	if src.IsZero() || params.Text == nil {
		return nil
	}
	s.mu.Lock()
	changed := s.openDocs[uri] != *params.Text
	s.openDocs[uri] = *params.Text
	version := s.versions[uri]
	s.mu.Unlock()
	if changed {
		s.overlay.Update(src, *params.Text, int64(version))
		s.markChanged(src)
	}
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	src := sourceOf(uri)
	if src.IsZero() {
		return nil
	}
	s.mu.Lock()
	_, wasOpen := s.openDocs[uri]
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	s.mu.Unlock()
	if eng := s.currentEngine(); eng != nil && wasOpen {
		eng.Unpin(src)
	}
	// Закрытый буфер снова читается с диска.
	s.overlay.Close(src)
	s.markChanged(src)
	return nil
}

func (s *Server) handleDidChangeWatchedFiles(msg *rpcMessage) error {
	var params didChangeWatchedFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	for _, ev := range params.Changes {
		src := sourceOf(ev.URI)
		if src.IsZero() {
			continue
		}
		if _, open := s.overlay.Buffer(src); open {
			continue
		}
		s.markChanged(src)
	}
	return nil
}

// markChanged records src for the next flush and restarts the debounce.
func (s *Server) markChanged(src source.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[src] = struct{}{}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.opts.Debounce, s.flushChanges)
}

// flushChanges hands pending edits to the engine.
func (s *Server) flushChanges() {
	s.mu.Lock()
	eng := s.engine
	pending := s.pending
	s.pending = make(map[source.Source]struct{})
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.mu.Unlock()
	if eng == nil {
		return
	}
	for src := range pending {
		if err := eng.FileChanged(src); err != nil {
			s.logf("file changed %s: %v", src, err)
		}
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.opts.Log, "lsp: "+format+"\n", args...)
}
