package observ

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("discover")
	time.Sleep(time.Millisecond)
	tm.End(idx, "3 files")
	tm.End(idx, "closed twice")
	err := tm.Measure("analyze", func() error { return errors.New("canceled") })
	if err == nil || err.Error() != "canceled" {
		t.Fatalf("Measure should return fn's error, got %v", err)
	}
	tm.End(42, "ignored")
	tm.Begin("report")

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("open phases must be skipped, got %+v", rep.Phases)
	}
	if rep.Phases[0].Note != "3 files" || rep.Phases[1].Note != "canceled" {
		t.Fatalf("notes = %+v", rep.Phases)
	}
	if rep.TotalMS < rep.Phases[0].DurationMS {
		t.Fatalf("wall %v below phase %v", rep.TotalMS, rep.Phases[0].DurationMS)
	}
	if s := rep.Phases[0].Share; s <= 0 || s > 1 {
		t.Fatalf("share %v out of range", s)
	}
	sum := tm.Summary()
	for _, want := range []string{"timings:", "discover", "(3 files)", "wall"} {
		if !strings.Contains(sum, want) {
			t.Fatalf("summary missing %q:\n%s", want, sum)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if rep := NewTimer().Report(); rep.TotalMS != 0 || len(rep.Phases) != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}
