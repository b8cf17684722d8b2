package parser

import (
	"strings"
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/testkit"
)

func parse(t *testing.T, text string) (*ast.Unit, []diag.Diagnostic) {
	t.Helper()
	src := source.New("/ws/lib/a.dart")
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	ts := lexer.Scan(src, []byte(text), lexer.Options{Reporter: rep})
	unit := Parse(src, ts, Options{Reporter: rep})
	return unit, bag.Items()
}

func TestParseCleanClass(t *testing.T) {
	unit, errs := parse(t, "class A { a() { return; return; } }")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", errs)
	}
	if len(unit.Decls) != 1 {
		t.Fatalf("want 1 decl, got %d", len(unit.Decls))
	}
	d := unit.Decls[0]
	if d.Kind != ast.DeclClass || d.Name != "A" {
		t.Fatalf("bad decl: %+v", d)
	}
	if len(d.Members) != 1 || d.Members[0].Name != "a" || d.Members[0].Kind != ast.MemberMethod {
		t.Fatalf("bad members: %+v", d.Members)
	}
}

func TestParseMissingSemicolonReportsOnce(t *testing.T) {
	text := "class A { a() { return; return } }"
	_, errs := parse(t, text)
	if len(errs) != 1 {
		t.Fatalf("want exactly 1 error, got %d: %+v", len(errs), errs)
	}
	e := errs[0]
	want := uint32(strings.LastIndex(text, "} }"))
	if e.Code != diag.SynExpectSemicolon || e.Severity != diag.SevError {
		t.Fatalf("bad diagnostic: %+v", e)
	}
	if e.Offset() != want {
		t.Fatalf("offset: got %d, want %d", e.Offset(), want)
	}
}

func TestParseStrayTokenInBody(t *testing.T) {
	text := "class A { a() { return; ) } }"
	_, errs := parse(t, text)
	if len(errs) != 1 || errs[0].Code != diag.SynUnexpectedToken {
		t.Fatalf("got %+v", errs)
	}
	if errs[0].Offset() != uint32(strings.Index(text, "; )")+2) {
		t.Fatalf("offset %d", errs[0].Offset())
	}
}

func TestParseUnclosedClass(t *testing.T) {
	_, errs := parse(t, "class A { a() { return; }")
	if len(errs) != 1 || errs[0].Code != diag.SynUnclosedBrace {
		t.Fatalf("got %+v", errs)
	}
	if errs[0].Offset() != 8 {
		t.Fatalf("should point at the class '{', got %d", errs[0].Offset())
	}
}

func TestParseDirectives(t *testing.T) {
	text := `library app.main;
import 'dart:core';
import 'b.dart' as b show B, C hide D;
export 'c.dart';
part 'src/part.dart';
`
	unit, errs := parse(t, text)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", errs)
	}
	if unit.LibraryName() != "app.main" {
		t.Fatalf("library name %q", unit.LibraryName())
	}
	imports := unit.DirectivesOf(ast.DirImport)
	if len(imports) != 2 {
		t.Fatalf("imports: %+v", imports)
	}
	imp := imports[1]
	if imp.URI != "b.dart" || imp.Prefix != "b" || len(imp.Show) != 2 || len(imp.Hide) != 1 {
		t.Fatalf("bad import: %+v", imp)
	}
	refs := unit.References()
	if len(refs) != 3 {
		t.Fatalf("references: %v", refs)
	}
	if refs[2] != source.New("/ws/lib/src/part.dart") {
		t.Fatalf("part ref %v", refs[2])
	}
}

func TestParsePartOf(t *testing.T) {
	unit, errs := parse(t, "part of '../main.dart';\nclass P {}")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", errs)
	}
	d, ok := unit.PartOf()
	if !ok || d.URI != "../main.dart" {
		t.Fatalf("part of: %+v %v", d, ok)
	}

	unit, _ = parse(t, "part of app.main;")
	if d, _ := unit.PartOf(); d.Name != "app.main" {
		t.Fatalf("part of name: %+v", d)
	}
}

func TestParseDirectiveAfterDeclaration(t *testing.T) {
	unit, errs := parse(t, "class A {}\nimport 'b.dart';")
	if len(errs) != 1 || errs[0].Code != diag.SynDirectiveOrder {
		t.Fatalf("got %+v", errs)
	}
	if len(unit.Directives) != 1 {
		t.Fatalf("directive should still be recorded")
	}
}

func TestParseDeclarations(t *testing.T) {
	text := `
abstract class Shape<T> extends Base with M1, M2 implements p.I {
  static const int sides = 0;
  final String name;
  Shape(this.name);
  Shape.named(String n) : name = n;
  double area();
  int get() => 1;
  void describe({required int x, String y = ''}) {
    var total = x + 1;
    List<int> xs = [1, 2, 3];
    if (total > 2 && y != null) { print('big'); } else return;
    while (total > 0) total--;
    for (var i = 0; i < 3; i++) { xs[i] = i * 2; }
    final m = {'a': 1};
    print(total > 1 ? 'a' : 'b');
  }
}

void main() {
  new Shape.named('x').describe(x: 1);
}

int counter = 0, other = 1;
`
	unit, errs := parse(t, text)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", errs)
	}
	names := make(map[string]ast.DeclKind)
	for _, d := range unit.Decls {
		names[d.Name] = d.Kind
	}
	if names["Shape"] != ast.DeclClass || names["main"] != ast.DeclFunction ||
		names["counter"] != ast.DeclVariable || names["other"] != ast.DeclVariable {
		t.Fatalf("decls: %v", names)
	}
	var shape ast.Decl
	for _, d := range unit.Decls {
		if d.Name == "Shape" {
			shape = d
		}
	}
	if !shape.Abstract || shape.Extends.Name != "Base" || len(shape.With) != 2 {
		t.Fatalf("shape header: %+v", shape)
	}
	if len(shape.Implements) != 1 || shape.Implements[0].Prefix != "p" || shape.Implements[0].Name != "I" {
		t.Fatalf("implements: %+v", shape.Implements)
	}
	kinds := make(map[string]ast.MemberKind)
	for _, m := range shape.Members {
		kinds[m.Name] = m.Kind
	}
	if kinds["sides"] != ast.MemberField || kinds["Shape"] != ast.MemberConstructor ||
		kinds["Shape.named"] != ast.MemberConstructor || kinds["describe"] != ast.MemberMethod {
		t.Fatalf("members: %v", kinds)
	}
}

func TestParseRecoversAtTopLevel(t *testing.T) {
	unit, errs := parse(t, "class A { int x = ; }\n) ) )\nclass B {}")
	if len(errs) == 0 {
		t.Fatal("expected errors")
	}
	found := false
	for _, d := range unit.Decls {
		if d.Name == "B" {
			found = true
		}
	}
	if !found {
		t.Fatalf("class B lost after recovery: %+v", unit.Decls)
	}
}

func TestParseMaxErrors(t *testing.T) {
	src := source.New("/ws/a.dart")
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	ts := lexer.Scan(src, []byte("1; 2; 3; 4;"), lexer.Options{})
	Parse(src, ts, Options{Reporter: rep, MaxErrors: 2})
	if bag.Len() != 2 {
		t.Fatalf("want 2 errors, got %d", bag.Len())
	}
}

func TestParseSpanInvariants(t *testing.T) {
	texts := []string{
		"import 'b.dart' as b;\npart 'c.dart';\nclass A extends b.B {\n  int x;\n  A(this.x);\n  int get() => x;\n}\n",
		"int counter = 0, other = 1;\nvoid main() { print(counter); }\n",
	}
	for i, text := range texts {
		unit, errs := parse(t, text)
		if len(errs) != 0 {
			t.Fatalf("text %d: unexpected diagnostics: %+v", i, errs)
		}
		if err := testkit.CheckSpanInvariants(unit, []byte(text)); err != nil {
			t.Fatalf("text %d: %v", i, err)
		}
	}
}
