package ui

import (
	"strings"
	"testing"
)

func TestProgressTracksFiles(t *testing.T) {
	events := make(chan Event)
	m := NewProgressModel("analyze", []string{"a.dart", "b.dart"}, events).(*progressModel)

	m.applyEvent(Event{File: "a.dart", Status: StatusParsed})
	m.applyEvent(Event{File: "c.dart", Status: StatusResolved})
	if len(m.items) != 3 {
		t.Fatalf("unannounced file should be appended, got %d items", len(m.items))
	}
	if got := m.percent(); got < 0.46 || got > 0.47 {
		t.Fatalf("percent = %v", got)
	}

	m.applyEvent(Event{File: "b.dart", Status: StatusError})
	m.applyEvent(Event{File: "b.dart", Status: StatusResolved})
	if m.items[m.index["b.dart"]].status != StatusError {
		t.Fatal("error must stick")
	}
	resolved, failed := m.counts()
	if resolved != 1 || failed != 1 {
		t.Fatalf("counts = %d, %d", resolved, failed)
	}
	view := m.View()
	if !strings.Contains(view, "analyze (1/3 resolved, 1 failed)") {
		t.Fatalf("unexpected header:\n%s", view)
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	events := make(chan Event)
	close(events)
	m := NewProgressModel("analyze", nil, events).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("expected doneMsg, got %T", msg)
	}
	m.Update(msg)
	if !m.done {
		t.Fatal("model should be done")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("lib/src/very_long_name.dart", 12); got != "lib/src/v..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("日本語", 5); got != "日..." {
		t.Fatalf("wide truncate = %q", got)
	}
}
