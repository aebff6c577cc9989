package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives a finished report. kind names the report, e.g. "dashboard".
type Sink interface {
	Write(ctx context.Context, kind string, report any) error
}

// Encode writes report as indented JSON without escaping non-ASCII text.
func Encode(w io.Writer, report any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriterSink encodes reports to an io.Writer such as os.Stdout.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(_ context.Context, _ string, report any) error {
	return Encode(s.W, report)
}

// FileSink writes each report to a file. When Path ends in .json every report
// overwrites that file; otherwise Path is a directory and the report lands
// in <kind>.json inside it.
type FileSink struct {
	Path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) Write(ctx context.Context, kind string, report any) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.target(kind)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}()

	return Encode(f, report)
}

func (s *FileSink) target(kind string) string {
	if strings.EqualFold(filepath.Ext(s.Path), ".json") {
		return s.Path
	}
	if kind == "" {
		kind = "report"
	}
	return filepath.Join(s.Path, kind+".json")
}

// MultiSink fans a report out to every sink, stopping at the first error.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, kind string, report any) error {
	for _, s := range m {
		if err := s.Write(ctx, kind, report); err != nil {
			return err
		}
	}
	return nil
}
