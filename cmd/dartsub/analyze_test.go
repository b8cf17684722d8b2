package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/engine"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/ui"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, text := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testRequest(t *testing.T, root string, paths ...string) analyzeRequest {
	t.Helper()
	m, err := project.Discover(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	return analyzeRequest{manifest: m, paths: paths, log: io.Discard}
}

func runTestAnalysis(t *testing.T, req analyzeRequest) *analyzeOutcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome, err := analyzeWorkspace(ctx, req)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	t.Cleanup(outcome.engine.Stop)
	return outcome
}

func TestAnalyzeWorkspaceReportsUndefinedClass(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"lib/a.dart": "import 'b.dart';\nclass A extends Base {}\n",
		"lib/b.dart": "class Base {}\n",
		"lib/c.dart": "class C extends Missing {}\n",
	})
	outcome := runTestAnalysis(t, testRequest(t, root))

	if len(outcome.sources) != 3 {
		t.Fatalf("expected 3 sources, got %v", outcome.sources)
	}
	if len(outcome.diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", outcome.diags)
	}
	d := outcome.diags[0]
	if d.Code != diag.SemaUndefinedClass || !strings.HasSuffix(d.Source.Path(), "lib/c.dart") {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if !outcome.hasErrors() {
		t.Fatal("expected hasErrors")
	}
}

func TestAnalyzeExplicitPaths(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"lib/ok.dart":     "class Ok {}\n",
		"lib/bad.dart":    "class Bad extends Nope {}\n",
		"tool/other.dart": "class Other extends AlsoMissing {}\n",
	})
	req := testRequest(t, root, filepath.Join(root, "lib"), filepath.Join(root, "lib", "gone.dart"))
	outcome := runTestAnalysis(t, req)

	if len(outcome.sources) != 2 {
		t.Fatalf("expected lib/ sources only, got %v", outcome.sources)
	}
	var codes []string
	for _, d := range outcome.diags {
		codes = append(codes, d.Code.ID())
		if strings.Contains(d.Source.Path(), "tool/") {
			t.Fatalf("diagnostic outside the requested paths: %+v", d)
		}
	}
	if len(codes) != 2 {
		t.Fatalf("expected the missing file and the undefined class, got %v", codes)
	}
	found := false
	for _, d := range outcome.diags {
		if d.Code == diag.IOContentUnavailable {
			found = true
			if !strings.HasSuffix(d.Source.Path(), "gone.dart") {
				t.Fatalf("unexpected source %s", d.Source)
			}
		}
	}
	if !found {
		t.Fatalf("expected %s, got %v", diag.IOContentUnavailable.ID(), codes)
	}
}

func TestAnalyzeCleanWorkspace(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.dart": "void main() {}\n"})
	outcome := runTestAnalysis(t, testRequest(t, root))
	if outcome.hasErrors() || len(outcome.diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", outcome.diags)
	}
}

func TestAnalyzeProgressEvents(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"a.dart": "class A {}\n",
		"b.dart": "class B extends Nope {}\n",
	})
	var (
		mu   sync.Mutex
		last = make(map[string]ui.Status)
	)
	req := testRequest(t, root)
	req.progress = func(ev ui.Event) {
		mu.Lock()
		defer mu.Unlock()
		last[filepath.Base(ev.File)] = ev.Status
	}
	runTestAnalysis(t, req)

	mu.Lock()
	defer mu.Unlock()
	if last["a.dart"] != ui.StatusResolved || last["b.dart"] != ui.StatusError {
		t.Fatalf("unexpected progress: %v", last)
	}
}

func TestDumpCacheAndMetrics(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"a.dart": "class A {}\n"})
	outcome := runTestAnalysis(t, testRequest(t, root))

	dump := filepath.Join(t.TempDir(), "cache.msgpack")
	if err := dumpCache(outcome.engine, dump); err != nil {
		t.Fatalf("dump: %v", err)
	}
	f, err := os.Open(dump)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	entries, err := cache.LoadDump(f)
	if err != nil {
		t.Fatalf("load dump: %v", err)
	}
	if len(entries) != 1 || entries[0].State != cache.Resolved.String() {
		t.Fatalf("unexpected snapshot: %+v", entries)
	}

	var buf bytes.Buffer
	if err := writeMetrics(&buf, outcome.engine.Registry()); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if !strings.Contains(buf.String(), "dartsub_engine_tasks_total") {
		t.Fatalf("missing task counter:\n%s", buf.String())
	}
}

func TestHasErrorIn(t *testing.T) {
	a, b := source.New("/w/a.dart"), source.New("/w/b.dart")
	errs := []engine.AnalysisError{
		{Severity: diag.SevWarning, Source: a},
		{Severity: diag.SevError, Source: b},
	}
	if hasErrorIn(errs, a) {
		t.Fatal("warnings do not count")
	}
	if !hasErrorIn(errs, b) {
		t.Fatal("expected error for b")
	}
}
