package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/parser"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/testkit"
)

// TestSeedsParse keeps the seed corpus honest: every file under
// testdata/seeds is expected to parse without errors.
func TestSeedsParse(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "seeds", "*.dart"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no seeds")
	}
	for _, p := range paths {
		text, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		src := source.New(p)
		bag := diag.NewBag(0)
		rep := diag.BagReporter{Bag: bag}
		unit := parser.Parse(src, lexer.Scan(src, text, lexer.Options{Reporter: rep}), parser.Options{Reporter: rep})
		if bag.Len() != 0 {
			t.Fatalf("%s: unexpected diagnostics: %+v", p, bag.Items())
		}
		if err := testkit.CheckSpanInvariants(unit, text); err != nil {
			t.Fatalf("%s: %v", p, err)
		}
	}
}
