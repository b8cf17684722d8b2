package cache

import (
	"bytes"
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

func TestGetCreatesUnknown(t *testing.T) {
	c := New()
	src := source.New("/ws/a.dart")
	if _, ok := c.Peek(src); ok {
		t.Fatal("entry should not exist yet")
	}
	e := c.Get(src)
	if e.State != Unknown || e.Source != src {
		t.Fatalf("bad entry: %+v", e)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestInvalidateKeepsHistory(t *testing.T) {
	c := New()
	src := source.New("/ws/a.dart")
	digest := project.DigestOf([]byte("class A {}"))
	unit := &ast.Unit{Source: src}
	c.Update(src, func(e *Entry) {
		e.State = Parsed
		e.Digest = digest
		e.Unit = unit
		e.Failed = true
	})
	if !c.Invalidate(src) {
		t.Fatal("invalidate should find the entry")
	}
	e := c.Get(src)
	if e.State != Unknown || e.Unit != nil || e.Failed {
		t.Fatalf("entry not reset: %+v", e)
	}
	if _, got, _, ok := e.Reusable(digest); !ok || got != unit {
		t.Fatal("previous parse should be reusable for identical content")
	}
	if _, _, _, ok := e.Reusable(project.DigestOf([]byte("class B {}"))); ok {
		t.Fatal("different content must not reuse")
	}
	// a second invalidation of an UNKNOWN entry keeps the same history
	c.Invalidate(src)
	e = c.Get(src)
	if _, got, _, ok := e.Reusable(digest); !ok || got != unit {
		t.Fatal("history lost on repeated invalidation")
	}
}

func TestRemoveDropsHistory(t *testing.T) {
	c := New()
	src := source.New("/ws/a.dart")
	c.Update(src, func(e *Entry) { e.State = Resolved })
	c.Remove(src)
	if _, ok := c.Peek(src); ok {
		t.Fatal("entry should be gone")
	}
	if c.Invalidate(src) {
		t.Fatal("invalidate of removed entry should report false")
	}
}

func TestLRUEviction(t *testing.T) {
	a, b, d := source.New("/ws/a.dart"), source.New("/ws/b.dart"), source.New("/ws/d.dart")
	var evicted []source.Source
	c := New(
		WithCapacity(2),
		WithPinned(func(lib source.Source) bool { return lib == a }),
		WithEvictHook(func(lib source.Source, _ []source.Source) { evicted = append(evicted, lib) }),
	)
	for _, lib := range []source.Source{a, b, d} {
		c.Update(lib, func(e *Entry) {
			e.State = Resolved
			e.Library = lib
		})
	}
	c.Touch(a, []source.Source{a})
	c.Touch(b, []source.Source{b})
	got := c.Touch(d, []source.Source{d})
	// a is the oldest but pinned, so b goes
	if len(got) != 1 || got[0] != b {
		t.Fatalf("evicted %v", got)
	}
	if len(evicted) != 1 || c.Evictions() != 1 {
		t.Fatalf("hook saw %v, counter %d", evicted, c.Evictions())
	}
	if c.State(b) != Unknown {
		t.Fatal("evicted library should have no entry")
	}
	if c.State(a) != Resolved || c.State(d) != Resolved {
		t.Fatal("remaining libraries should stay resolved")
	}
}

func TestUnboundedByDefault(t *testing.T) {
	c := New()
	for i := 0; i < 10; i++ {
		src := source.New("/ws/" + string(rune('a'+i)) + ".dart")
		if ev := c.Touch(src, []source.Source{src}); len(ev) != 0 {
			t.Fatalf("unexpected eviction %v", ev)
		}
	}
}

func TestDumpRoundTrip(t *testing.T) {
	c := New()
	src := source.New("/ws/a.dart")
	c.Update(src, func(e *Entry) {
		e.State = Parsed
		e.Digest = project.DigestOf([]byte("x"))
		e.Library = src
	})
	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	infos, err := LoadDump(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].State != "PARSED" || infos[0].Path != "/ws/a.dart" || infos[0].Digest == "" {
		t.Fatalf("snapshot: %+v", infos)
	}
}
