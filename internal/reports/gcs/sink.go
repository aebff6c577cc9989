// Package gcs archives reports as JSON objects in a Google Cloud Storage
// bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"

	"spendview/internal/reports"
)

const uploadTimeout = 2 * time.Minute

// Sink writes every report to <prefix>/<kind>/<timestamp>.json.
// It assumes Application Default Credentials are configured.
type Sink struct {
	client    *storage.Client
	prefix    string
	newWriter func(ctx context.Context, object string) io.WriteCloser
	now       func() time.Time
}

// New opens a storage client for bucket.
func New(ctx context.Context, bucket, prefix string) (*Sink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	bkt := client.Bucket(bucket)
	return &Sink{
		client: client,
		prefix: prefix,
		newWriter: func(ctx context.Context, object string) io.WriteCloser {
			w := bkt.Object(object).NewWriter(ctx)
			w.ContentType = "application/json"
			return w
		},
		now: time.Now,
	}, nil
}

// Write uploads report as one object. A report that fails to encode aborts
// the upload so no partial object is left behind.
func (s *Sink) Write(ctx context.Context, kind string, report any) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	object := s.objectName(kind)
	w := s.newWriter(ctx, object)
	if err := reports.Encode(w, report); err != nil {
		// Cancelling the writer's context before Close discards the upload.
		cancel()
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", object, err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Sink) objectName(kind string) string {
	if kind == "" {
		kind = "report"
	}
	return path.Join(s.prefix, kind, s.now().UTC().Format("20060102T150405Z")+".json")
}
