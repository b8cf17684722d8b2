package symbols

import (
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/parser"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

func buildUnits(t *testing.T, files map[string]string) Units {
	t.Helper()
	units := make(Units, len(files))
	for path, text := range files {
		src := source.New(path)
		bag := diag.NewBag(0)
		rep := diag.BagReporter{Bag: bag}
		ts := lexer.Scan(src, []byte(text), lexer.Options{Reporter: rep})
		units[src] = parser.Parse(src, ts, parser.Options{Reporter: rep})
		if bag.Len() != 0 {
			t.Fatalf("%s: syntax errors: %+v", path, bag.Items())
		}
	}
	return units
}

func resolve(t *testing.T, root string, files map[string]string) (*Library, []diag.Diagnostic) {
	t.Helper()
	bag := diag.NewBag(0)
	lib := Resolve(source.New(root), buildUnits(t, files), diag.BagReporter{Bag: bag})
	return lib, bag.Items()
}

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestResolveImportsAndParts(t *testing.T) {
	lib, errs := resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": `library app;
import 'a.dart';
part 'src/p.dart';
class Main extends A implements P {}
`,
		"/ws/a.dart":     "class A {}\nclass _Hidden {}",
		"/ws/src/p.dart": "part of app;\nclass P {}",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", errs)
	}
	if lib.Name != "app" || len(lib.Parts) != 1 || len(lib.Imports) != 1 {
		t.Fatalf("bad library: %+v", lib)
	}
	if _, ok := lib.Scope.Lookup("P"); !ok {
		t.Fatal("part declarations should be in scope")
	}
	if got := lib.Exported.Names(); len(got) != 2 || got[0] != "Main" || got[1] != "P" {
		t.Fatalf("exported names: %v", got)
	}
	if !lib.Contains(source.New("/ws/src/p.dart")) {
		t.Fatal("part should be a member")
	}
}

func TestResolveUndefinedClass(t *testing.T) {
	_, errs := resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": "import 'a.dart';\nclass B extends Missing {}\nclass C extends _Hidden {}",
		"/ws/a.dart":    "class _Hidden {}",
	})
	got := codes(errs)
	if len(got) != 2 || got[0] != diag.SemaUndefinedClass || got[1] != diag.SemaUndefinedClass {
		t.Fatalf("got %v", got)
	}
}

func TestResolveCoreAndExternal(t *testing.T) {
	_, errs := resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": "class E implements Exception {}\nclass L extends Object {}",
	})
	if len(errs) != 0 {
		t.Fatalf("core names should resolve: %+v", errs)
	}
	_, errs = resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": "import 'package:flutter/widgets.dart';\nclass W extends StatelessWidget {}",
	})
	if len(errs) != 0 {
		t.Fatalf("names from packages are not checked: %+v", errs)
	}
}

func TestResolvePrefixedAndCombinators(t *testing.T) {
	_, errs := resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": `import 'a.dart' as a;
import 'b.dart' hide Y;
class One extends a.X {}
class Two extends Y {}
class Three extends a.Nope {}
`,
		"/ws/a.dart": "class X {}",
		"/ws/b.dart": "class Y {}",
	})
	got := codes(errs)
	if len(got) != 2 || got[0] != diag.SemaUndefinedClass || got[1] != diag.SemaUndefinedClass {
		t.Fatalf("got %v (%+v)", got, errs)
	}
}

func TestResolveExportCycle(t *testing.T) {
	lib, errs := resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": "import 'a.dart';\nclass M extends B {}",
		"/ws/a.dart":    "export 'b.dart';\nclass A {}",
		"/ws/b.dart":    "export 'a.dart';\nclass B {}",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", errs)
	}
	if len(lib.Dependencies()) != 1 {
		t.Fatalf("deps: %v", lib.Dependencies())
	}
}

func TestResolveStructuralErrors(t *testing.T) {
	_, errs := resolve(t, "/ws/main.dart", map[string]string{
		"/ws/main.dart": `library app;
import 'gone.dart';
import 'http://x/y.dart';
part 'notpart.dart';
part 'other.dart';
class A {}
class A {}
class B { f() {} f() {} }
`,
		"/ws/notpart.dart": "class N {}",
		"/ws/other.dart":   "part of elsewhere;\nimport 'x.dart';",
	})
	want := map[diag.Code]int{
		diag.SemaMissingSource:     1,
		diag.SemaUnresolvedURI:     1,
		diag.SemaNotAPart:          1,
		diag.SemaPartOfMismatch:    1,
		diag.SemaPartHasDirectives: 1,
		diag.SemaDuplicateName:     1,
		diag.SemaDuplicateMember:   1,
	}
	got := make(map[diag.Code]int)
	for _, c := range codes(errs) {
		got[c]++
	}
	for code, n := range want {
		if got[code] != n {
			t.Errorf("%s: got %d, want %d (all: %v)", code, got[code], n, codes(errs))
		}
	}
	if len(errs) != 7 {
		t.Fatalf("want 7 diagnostics, got %d", len(errs))
	}
}

func TestLinksOf(t *testing.T) {
	units := buildUnits(t, map[string]string{
		"/ws/main.dart": "import 'dart:async';\nimport 'a.dart';\nexport 'a.dart';\nexport 'b.dart';\npart 'p.dart';",
	})
	l := LinksOf(units[source.New("/ws/main.dart")])
	if len(l.Imports) != 1 || len(l.Exports) != 2 || len(l.Parts) != 1 {
		t.Fatalf("links: %+v", l)
	}
	if libs := l.Libraries(); len(libs) != 2 {
		t.Fatalf("libraries: %v", libs)
	}
	if empty := LinksOf((*ast.Unit)(nil)); len(empty.Libraries()) != 0 || len(empty.Parts) != 0 {
		t.Fatal("nil unit has no links")
	}
}
