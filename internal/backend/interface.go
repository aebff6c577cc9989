package backend

import (
	"context"

	"spendview/internal/sources"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the transaction store and optional cleanup function.
// Writer is nil for read-only backends.
type BackendResult struct {
	Source  sources.TransactionSource
	Writer  sources.TransactionWriter
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	XLSXBackend   BackendType = "xlsx"
	SheetsBackend BackendType = "sheets"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case XLSXBackend, SheetsBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
