package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type recordingWriter struct {
	bytes.Buffer
	ctx      context.Context
	closed   bool
	closeErr error
	// abortedAtClose records whether the upload context was already done
	// when Close ran.
	abortedAtClose bool
}

func (w *recordingWriter) Close() error {
	w.closed = true
	w.abortedAtClose = w.ctx != nil && w.ctx.Err() != nil
	return w.closeErr
}

func newTestSink(w *recordingWriter, objects *[]string) *Sink {
	return &Sink{
		prefix: "reports",
		newWriter: func(ctx context.Context, object string) io.WriteCloser {
			*objects = append(*objects, object)
			w.ctx = ctx
			return w
		},
		now: func() time.Time { return time.Date(2023, 11, 15, 13, 45, 10, 0, time.UTC) },
	}
}

func TestSinkWritesObject(t *testing.T) {
	var objects []string
	w := &recordingWriter{}
	s := newTestSink(w, &objects)

	if err := s.Write(context.Background(), "dashboard", map[string]string{"greeting": "Добрый день"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(objects) != 1 || objects[0] != "reports/dashboard/20231115T134510Z.json" {
		t.Fatalf("objects = %v", objects)
	}
	if !w.closed || w.abortedAtClose {
		t.Fatalf("writer must be closed with a live context: closed=%v aborted=%v", w.closed, w.abortedAtClose)
	}
	if !strings.Contains(w.String(), "Добрый день") {
		t.Fatalf("body = %q", w.String())
	}
}

func TestSinkReportsFinalizeError(t *testing.T) {
	var objects []string
	w := &recordingWriter{closeErr: errors.New("boom")}
	s := newTestSink(w, &objects)

	if err := s.Write(context.Background(), "", struct{}{}); err == nil {
		t.Fatalf("expected finalize error")
	}
	if objects[0] != "reports/report/20231115T134510Z.json" {
		t.Fatalf("object = %q", objects[0])
	}
}

func TestSinkAbortsUploadOnEncodeError(t *testing.T) {
	var objects []string
	w := &recordingWriter{}
	s := newTestSink(w, &objects)

	err := s.Write(context.Background(), "dashboard", map[string]any{"bad": make(chan int)})
	if err == nil {
		t.Fatalf("expected encode error")
	}
	if !w.closed {
		t.Fatalf("writer not closed")
	}
	if !w.abortedAtClose {
		t.Fatalf("upload context must be cancelled before Close so the object is discarded")
	}
}
