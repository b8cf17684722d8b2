package frontend

import (
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
)

func TestCountingDelegates(t *testing.T) {
	c := NewCounting(nil)
	src := source.New("/ws/a.dart")
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}

	ts := c.Scan(src, []byte("class A {}"), rep)
	unit := c.Parse(src, ts, rep)
	lib := c.Resolve(src, symbols.Units{src: unit}, rep)

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if _, ok := lib.Scope.Lookup("A"); !ok {
		t.Fatal("A should be declared")
	}
	got := c.Counts()
	if got.Scans != 1 || got.Parses != 1 || got.Resolves != 1 || got.Total() != 3 {
		t.Fatalf("counts: %+v", got)
	}
	c.Reset()
	if c.Counts().Total() != 0 {
		t.Fatal("reset should zero counters")
	}
}
