package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

var (
	bg = context.Background()
	a  = source.New("/ws/a.dart")
	b  = source.New("/ws/b.dart")
	p  = source.New("/ws/a_part.dart")
)

func kinds(ts []Task) []Kind {
	out := make([]Kind, len(ts))
	for i, t := range ts {
		out[i] = t.Kind
	}
	return out
}

func TestPriorityThenFIFO(t *testing.T) {
	q := NewQueue()
	q.Add(Scan(bg, a))
	q.Add(Scan(bg, b))
	q.Add(AnalyzeLibrary(bg, a).WithPriority(true))
	q.Add(FileChanged(bg, p))

	var got []string
	for {
		tk, ok := q.TryPop()
		if !ok {
			break
		}
		got = append(got, tk.String())
	}
	want := []string{"analyze!(/ws/a.dart)", "scan(/ws/a.dart)", "scan(/ws/b.dart)", "file-changed(/ws/a_part.dart)"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEverythingChangedCoalesces(t *testing.T) {
	q := NewQueue()
	const n = 7
	for i := 0; i < n; i++ {
		src := source.New("/ws/f" + string(rune('a'+i)) + ".dart")
		if i%2 == 0 {
			q.Add(Scan(bg, src))
		} else {
			q.Add(FileChanged(bg, src))
		}
	}
	added, removed := q.Add(EverythingChanged(bg))
	if !added || len(removed) != n {
		t.Fatalf("added=%v removed=%d", added, len(removed))
	}
	if q.Len() != 1 {
		t.Fatalf("queue should hold only the new task, has %d", q.Len())
	}
	if tk, _ := q.TryPop(); tk.Kind != KindEverythingChanged || !tk.IsPriority() {
		t.Fatalf("got %v", tk)
	}
}

func TestDuplicatesDropped(t *testing.T) {
	q := NewQueue()
	if ok, _ := q.Add(Scan(bg, a)); !ok {
		t.Fatal("first scan should be queued")
	}
	if ok, _ := q.Add(Scan(bg, a)); ok {
		t.Fatal("duplicate scan should be dropped")
	}
	ok, removed := q.Add(Scan(bg, a).WithPriority(true))
	if !ok || len(removed) != 1 {
		t.Fatalf("priority duplicate should replace: ok=%v removed=%d", ok, len(removed))
	}
	if q.Len() != 1 {
		t.Fatalf("len %d", q.Len())
	}
}

func TestFileChangedSupersedesScans(t *testing.T) {
	q := NewQueue()
	q.Add(Scan(bg, a))
	q.Add(FileChanged(bg, a))
	q.Add(Scan(bg, b))
	_, removed := q.Add(FileChanged(bg, a))
	if len(removed) != 2 {
		t.Fatalf("removed %v", kinds(removed))
	}
	if q.Len() != 2 {
		t.Fatalf("len %d", q.Len())
	}
}

func TestEverythingChangedKeepsDiscards(t *testing.T) {
	q := NewQueue()
	q.Add(Scan(bg, b))
	q.Add(Discard(bg, a, []source.Source{a, p}))
	q.Add(FileChanged(bg, p))
	_, removed := q.Add(EverythingChanged(bg))
	if len(removed) != 2 {
		t.Fatalf("removed %v", kinds(removed))
	}
	pending := kinds(q.Pending())
	if len(pending) != 2 || pending[0] != KindEverythingChanged || pending[1] != KindDiscard {
		t.Fatalf("pending %v", pending)
	}
}

func TestFileChangedSupersedesAnalyze(t *testing.T) {
	q := NewQueue()
	q.Add(AnalyzeLibrary(bg, a))
	q.Add(AnalyzeLibrary(bg, b))
	_, removed := q.Add(FileChanged(bg, a))
	if len(removed) != 1 || removed[0].Kind != KindAnalyzeLibrary || removed[0].Source != a {
		t.Fatalf("removed %v", removed)
	}
	if q.Len() != 2 {
		t.Fatalf("len %d", q.Len())
	}
}

func TestDiscardRemovesMembers(t *testing.T) {
	q := NewQueue()
	q.Add(Scan(bg, p))
	q.Add(AnalyzeLibrary(bg, a))
	q.Add(Scan(bg, b))
	q.Add(Discard(bg, b, []source.Source{b}))
	_, removed := q.Add(Discard(bg, a, []source.Source{a, p}))
	if len(removed) != 2 {
		t.Fatalf("removed %v", kinds(removed))
	}
	pending := kinds(q.Pending())
	if len(pending) != 2 || pending[0] != KindDiscard || pending[1] != KindDiscard {
		t.Fatalf("pending %v", pending)
	}
}

func TestCanRemove(t *testing.T) {
	members := []source.Source{a, p}
	cases := []struct {
		task Task
		want bool
	}{
		{Scan(bg, p), true},
		{AnalyzeLibrary(bg, a), true},
		{FileChanged(bg, a), true},
		{Scan(bg, b), false},
		{Discard(bg, a, members), false},
		{EverythingChanged(bg), false},
	}
	for _, tc := range cases {
		if got := tc.task.CanRemove(members); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.task, got, tc.want)
		}
	}
}

func TestFollowUpInherits(t *testing.T) {
	ctx, cancel := context.WithCancel(bg)
	defer cancel()
	parent := AnalyzeLibrary(ctx, a).WithPriority(true)
	child := parent.FollowUp(Scan(bg, p))
	if child.Ctx != ctx || !child.IsPriority() {
		t.Fatalf("follow-up lost context or priority: %+v", child)
	}
	if (Task{}).Context() == nil {
		t.Fatal("zero task must have a context")
	}
}

func TestPopBlocksAndCloses(t *testing.T) {
	q := NewQueue()
	done := make(chan Task, 1)
	go func() {
		tk, err := q.Pop(bg)
		if err == nil {
			done <- tk
		}
	}()
	time.Sleep(10 * time.Millisecond)
	q.Add(Scan(bg, a))
	select {
	case tk := <-done:
		if tk.Source != a {
			t.Fatalf("got %v", tk)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake")
	}

	ctx, cancel := context.WithCancel(bg)
	cancel()
	if _, err := q.Pop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want Canceled, got %v", err)
	}
	q.Close()
	if _, err := q.Pop(bg); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if ok, _ := q.Add(Scan(bg, b)); ok {
		t.Fatal("closed queue accepted a task")
	}
}
