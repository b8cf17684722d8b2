package engine

import (
	"sort"
	"sync"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// ErrorListener collects the diagnostics of one front-end invocation.
// Diagnostics for sources outside the workspace root are dropped.
type ErrorListener struct {
	root   string
	errors []AnalysisError
}

func newErrorListener(root string) *ErrorListener {
	return &ErrorListener{root: root}
}

// Report implements diag.Reporter.
func (l *ErrorListener) Report(code diag.Code, sev diag.Severity, src source.Source, primary source.Span, msg string, notes []diag.Note) {
	l.OnError(AnalysisError{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Source:   src,
		Primary:  primary,
		Notes:    notes,
	})
}

// OnError records err unless its source lies outside the root.
func (l *ErrorListener) OnError(err AnalysisError) {
	if !err.Source.Within(l.root) {
		return
	}
	l.errors = append(l.errors, err)
}

// Errors returns a copy of what was recorded.
func (l *ErrorListener) Errors() []AnalysisError {
	return append([]AnalysisError(nil), l.errors...)
}

// byFile groups the recorded errors by source.
func (l *ErrorListener) byFile() map[source.Source][]AnalysisError {
	out := make(map[source.Source][]AnalysisError)
	for _, e := range l.errors {
		out[e.Source] = append(out[e.Source], e)
	}
	return out
}

// errorKey: ключ индекса ошибок: синтаксические ошибки идут с нулевой
// библиотекой, семантические с библиотекой, в контексте которой получены.
type errorKey struct {
	library source.Source
	file    source.Source
}

// errorIndex is the server-wide error store keyed by (library, file).
type errorIndex struct {
	mu     sync.RWMutex
	byKey  map[errorKey][]AnalysisError
	byFile map[source.Source]map[errorKey]struct{}
}

func newErrorIndex() *errorIndex {
	return &errorIndex{
		byKey:  make(map[errorKey][]AnalysisError),
		byFile: make(map[source.Source]map[errorKey]struct{}),
	}
}

func (x *errorIndex) setLocked(key errorKey, errs []AnalysisError) {
	if len(errs) == 0 {
		x.deleteLocked(key)
		return
	}
	x.byKey[key] = errs
	keys, ok := x.byFile[key.file]
	if !ok {
		keys = make(map[errorKey]struct{})
		x.byFile[key.file] = keys
	}
	keys[key] = struct{}{}
}

func (x *errorIndex) deleteLocked(key errorKey) {
	delete(x.byKey, key)
	if keys, ok := x.byFile[key.file]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(x.byFile, key.file)
		}
	}
}

// setParse replaces the syntax errors of file.
func (x *errorIndex) setParse(file source.Source, errs []AnalysisError) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.setLocked(errorKey{file: file}, errs)
}

// setLibrary replaces every semantic error recorded for lib.
func (x *errorIndex) setLibrary(lib source.Source, byFile map[source.Source][]AnalysisError) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dropLibraryLocked(lib)
	for file, errs := range byFile {
		x.setLocked(errorKey{library: lib, file: file}, errs)
	}
}

func (x *errorIndex) dropLibraryLocked(lib source.Source) {
	for key := range x.byKey {
		if key.library == lib {
			x.deleteLocked(key)
		}
	}
}

// discard drops lib's semantic errors and the syntax errors of members.
func (x *errorIndex) discard(lib source.Source, members []source.Source) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dropLibraryLocked(lib)
	for _, m := range members {
		x.deleteLocked(errorKey{file: m})
	}
}

func (x *errorIndex) clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byKey = make(map[errorKey][]AnalysisError)
	x.byFile = make(map[source.Source]map[errorKey]struct{})
}

// get merges every error recorded for file, ordered by offset.
func (x *errorIndex) get(file source.Source) []AnalysisError {
	x.mu.RLock()
	var out []AnalysisError
	for key := range x.byFile[file] {
		out = append(out, x.byKey[key]...)
	}
	x.mu.RUnlock()
	diag.SortDiagnostics(out)
	return out
}

// files returns every file with recorded errors, in path order.
func (x *errorIndex) files() []source.Source {
	x.mu.RLock()
	out := make([]source.Source, 0, len(x.byFile))
	for f := range x.byFile {
		out = append(out, f)
	}
	x.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}
