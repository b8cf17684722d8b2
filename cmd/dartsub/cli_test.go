package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/MarkBennett/dart-sub004/internal/ui"
)

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error for an unknown mode")
	}
	if shouldUseTUI(uiModeOn, "json") {
		t.Fatal("json output never uses the progress view")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GitCommit: "abc", GoVersion: "go1.25.1", Platform: "linux/amd64"}
	if err := renderVersionJSON(&buf, info, versionOptions{format: "json", showHash: true, showDate: true}); err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "dartsub" || payload.GitCommit != "abc" || payload.BuildDate != "unknown" || payload.Platform != "linux/amd64" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestProgressSinkDropsAfterClose(t *testing.T) {
	sink := newProgressSink()
	sink.send(ui.Event{File: "a.dart", Status: ui.StatusQueued})
	sink.close()
	sink.close()
	sink.send(ui.Event{File: "b.dart", Status: ui.StatusQueued})

	var got []string
	for ev := range sink.ch {
		got = append(got, ev.File)
	}
	if len(got) != 1 || got[0] != "a.dart" {
		t.Fatalf("unexpected events: %v", got)
	}
}
