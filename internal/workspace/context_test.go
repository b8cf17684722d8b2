package workspace

import (
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

var (
	a    = source.New("/ws/a.dart")
	b    = source.New("/ws/b.dart")
	c    = source.New("/ws/c.dart")
	part = source.New("/ws/a_part.dart")
)

func paths(list []source.Source) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Path()
	}
	return out
}

func equal(got []source.Source, want ...source.Source) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func sample() *Context {
	ctx := NewContext()
	ctx.RecordLibrary(Library{Root: a, Parts: []source.Source{part}})
	ctx.RecordLibrary(Library{Root: b, Imports: []source.Source{a}})
	ctx.RecordLibrary(Library{Root: c, Exports: []source.Source{b}})
	return ctx
}

func TestLibrariesContaining(t *testing.T) {
	ctx := sample()
	if got := ctx.LibrariesContaining(part); !equal(got, a) {
		t.Fatalf("containing part: %v", paths(got))
	}
	if got := ctx.LibrariesContaining(source.New("/ws/none.dart")); len(got) != 0 {
		t.Fatalf("unknown source: %v", paths(got))
	}
}

func TestDependentsTransitive(t *testing.T) {
	ctx := sample()
	if got := ctx.Dependents(a); !equal(got, a, b, c) {
		t.Fatalf("dependents of a: %v", paths(got))
	}
	if got := ctx.Dependents(c); !equal(got, c) {
		t.Fatalf("dependents of c: %v", paths(got))
	}
	if got := ctx.Closure(c); !equal(got, a, b, c) {
		t.Fatalf("closure of c: %v", paths(got))
	}
}

func TestRecordReplacesLinks(t *testing.T) {
	ctx := sample()
	ctx.RecordLibrary(Library{Root: b})
	if got := ctx.Dependents(a); !equal(got, a) {
		t.Fatalf("stale importer kept: %v", paths(got))
	}
}

func TestDiscard(t *testing.T) {
	ctx := sample()
	lib, ok := ctx.DiscardLibrary(a)
	if !ok || len(lib.Members()) != 2 {
		t.Fatalf("discard a: %+v %v", lib, ok)
	}
	if len(ctx.LibrariesContaining(part)) != 0 {
		t.Fatal("part still indexed after discard")
	}
	if _, ok := ctx.DiscardLibrary(a); ok {
		t.Fatal("second discard should report false")
	}
	// b still records its import of a
	if got := ctx.Dependents(a); !equal(got, a, b, c) {
		t.Fatalf("dependents after discard: %v", paths(got))
	}
	all := ctx.DiscardAll()
	if len(all) != 2 || ctx.Len() != 0 || len(ctx.Dependents(a)) != 1 {
		t.Fatalf("discard all: %d left %d", len(all), ctx.Len())
	}
}

func TestResolveOrderWithCycle(t *testing.T) {
	order := ResolveOrder(map[source.Source][]source.Source{
		a: {b},
		b: {a, c},
		c: nil,
	})
	if len(order) != 2 {
		t.Fatalf("components: %v", order)
	}
	if !equal(order[0], c) || !equal(order[1], a, b) {
		t.Fatalf("order: %v", order)
	}
}

func TestImportCycles(t *testing.T) {
	ctx := sample()
	if cycles := ctx.ImportCycles(); cycles != nil {
		t.Fatalf("unexpected cycles %v", cycles)
	}
	ctx.RecordLibrary(Library{Root: a, Parts: []source.Source{part}, Imports: []source.Source{c}})
	cycles := ctx.ImportCycles()
	if len(cycles) != 1 || !equal(cycles[0], a, b, c) {
		t.Fatalf("cycles: %v", cycles)
	}
}
