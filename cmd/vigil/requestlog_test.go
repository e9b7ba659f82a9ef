package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := color.Output, color.NoColor
	color.Output, color.NoColor = &buf, true
	t.Cleanup(func() { color.Output, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestCloseWithWarning(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"clean close", nil, ""},
		{"failed close", errors.New("disk full"), "[!] Failed to write request log: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			closeWithWarning(failingCloser{err: tt.err}, "request log")

			got := strings.TrimSpace(out.String())
			if got != tt.want {
				t.Errorf("expected output %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAttachRequestLog(t *testing.T) {
	captureOutput(t)

	exec, err := executor.New("http://127.0.0.1:1", types.DefaultConfig().HTTP)
	if err != nil {
		t.Fatal(err)
	}

	closeLog, err := attachRequestLog(exec, "", "run-1")
	if err != nil || closeLog == nil {
		t.Fatalf("expected a no-op closer for an empty path, got %v", err)
	}
	closeLog()

	path := filepath.Join(t.TempDir(), "requests.json")
	closeLog, err = attachRequestLog(exec, path, "run-1")
	if err != nil {
		t.Fatalf("attachRequestLog() returned error: %v", err)
	}
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("request log not written: %v", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Errorf("closed request log is not a JSON array: %v\n%s", err, data)
	}

	if _, err := attachRequestLog(exec, filepath.Join(t.TempDir(), "missing", "log.json"), "run-1"); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
