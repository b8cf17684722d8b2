package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one measured step of a CLI run such as "discover", "analyze"
// or "report".
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	done  bool
}

// Timer collects phases. Safe for concurrent use; phases may overlap.
type Timer struct {
	mu      sync.Mutex
	created time.Time
	phases  []Phase
}

func NewTimer() *Timer {
	return &Timer{created: time.Now(), phases: make([]Phase, 0, 4)}
}

// Begin opens a phase and returns its handle for End.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End closes the phase opened by Begin. Unknown or already closed handles
// are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].done {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
	p.done = true
}

// Measure runs fn as a phase and records its error text as the note.
func (t *Timer) Measure(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	var note string
	if err != nil {
		note = err.Error()
	}
	t.End(idx, note)
	return err
}

// PhaseReport is the serialisable form of a finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Share      float64 `json:"share"`
	Note       string  `json:"note,omitempty"`
}

// Report: завершённые фазы и общее время. TotalMS считается от
// создания таймера до конца последней фазы, поэтому перекрывающиеся фазы
// не складываются дважды.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var rep Report
	var last time.Time
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		if end := p.Start.Add(p.Dur); end.After(last) {
			last = end
		}
		rep.Phases = append(rep.Phases, PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note})
	}
	if len(rep.Phases) == 0 {
		return Report{}
	}
	rep.TotalMS = millis(last.Sub(t.created))
	for i := range rep.Phases {
		if rep.TotalMS > 0 {
			rep.Phases[i].Share = rep.Phases[i].DurationMS / rep.TotalMS
		}
	}
	return rep
}

// Summary renders the report as the table printed by --timings.
func (t *Timer) Summary() string {
	rep := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range rep.Phases {
		fmt.Fprintf(&b, "  %-12s %9.2f ms %5.1f%%", p.Name, p.DurationMS, p.Share*100)
		if p.Note != "" {
			fmt.Fprintf(&b, "  (%s)", p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-12s %9.2f ms\n", "wall", rep.TotalMS)
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
