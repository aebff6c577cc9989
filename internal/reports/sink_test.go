package reports

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, string, any) error {
	f.calls++
	return errors.New("unavailable")
}

func TestFileSinkDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewFileSink(dir)

	report := CategorySpendingReport{Category: "Супермаркеты"}
	if err := s.Write(context.Background(), "category", report); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "category.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), `"category": "Супермаркеты"`) {
		t.Fatalf("unexpected file content: %s", raw)
	}
	if !strings.Contains(string(raw), "\n    \"spending\": 0.00") {
		t.Fatalf("expected four-space indentation: %s", raw)
	}
}

func TestFileSinkExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	s := NewFileSink(path)
	for _, kind := range []string{"dashboard", "events"} {
		if err := s.Write(context.Background(), kind, map[string]string{"kind": kind}); err != nil {
			t.Fatalf("Write %s: %v", kind, err)
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "events") || strings.Contains(string(raw), "dashboard") {
		t.Fatalf("expected last report to overwrite the file: %s", raw)
	}
}

func TestFileSinkCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "report.json")
	if err := NewFileSink(path).Write(ctx, "dashboard", struct{}{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file must be created for a cancelled write")
	}
}

func TestMultiSinkStopsAtFirstError(t *testing.T) {
	var buf bytes.Buffer
	failing := &failingSink{}
	after := &failingSink{}
	m := MultiSink{WriterSink{W: &buf}, failing, after}

	if err := m.Write(context.Background(), "dashboard", map[string]int{"n": 1}); err == nil {
		t.Fatalf("expected error")
	}
	if buf.Len() == 0 {
		t.Fatalf("first sink must have been written")
	}
	if failing.calls != 1 || after.calls != 0 {
		t.Fatalf("calls = %d, %d", failing.calls, after.calls)
	}
}
