package lsp

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadMessageFrames(t *testing.T) {
	var sb strings.Builder
	first := `{"jsonrpc":"2.0","method":"initialized"}`
	second := `{"jsonrpc":"2.0","id":1,"method":"shutdown"}`
	if err := writeMessage(&sb, []byte(first)); err != nil {
		t.Fatalf("write: %v", err)
	}
	// клиенты иногда шлют Content-Type
	sb.WriteString("Content-Type: application/vscode-jsonrpc; charset=utf-8\r\n")
	if err := writeMessage(&sb, []byte(second)); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := bufio.NewReader(strings.NewReader(sb.String()))
	for _, want := range []string{first, second} {
		got, err := readMessage(r)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	}
	if _, err := readMessage(r); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after last frame, got %v", err)
	}
}

func TestReadMessageRejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing length", input: "Content-Type: x\r\n\r\n{}"},
		{name: "negative length", input: "Content-Length: -1\r\n\r\n{}"},
		{name: "not a number", input: "Content-Length: ten\r\n\r\n{}"},
		{name: "over limit", input: "Content-Length: 999999999\r\n\r\n{}"},
		{name: "short body", input: "Content-Length: 10\r\n\r\n{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readMessage(bufio.NewReader(strings.NewReader(tt.input)))
			if err == nil || errors.Is(err, io.EOF) {
				t.Fatalf("expected a framing error, got %v", err)
			}
		})
	}
}
