package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendview/internal/sources"
)

// ImportResult counts the rows seen and the rows newly stored.
type ImportResult struct {
	Read     int
	Inserted int
}

// Skipped is the number of rows the destination already held.
func (r ImportResult) Skipped() int {
	return r.Read - r.Inserted
}

// ImportService copies a transaction source into a writable store, e.g. an
// exported workbook into the SQLite database.
type ImportService struct {
	from sources.TransactionSource
	to   sources.TransactionWriter
}

func NewImportService(from sources.TransactionSource, to sources.TransactionWriter) *ImportService {
	return &ImportService{from: from, to: to}
}

// Import loads every transaction from the source and inserts it. Re-running
// an import with the same input stores nothing new.
func (s *ImportService) Import(ctx context.Context) (ImportResult, error) {
	txs, err := s.from.Load(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import source: %w", err)
	}
	if len(txs) == 0 {
		slog.InfoContext(ctx, "Nothing to import")
		return ImportResult{}, nil
	}

	n, err := s.to.Insert(ctx, txs)
	if err != nil {
		return ImportResult{Read: len(txs)}, fmt.Errorf("store imported transactions: %w", err)
	}

	res := ImportResult{Read: len(txs), Inserted: n}
	slog.InfoContext(ctx, "Import completed",
		"transactions", res.Read,
		"inserted", res.Inserted,
		"skipped", res.Skipped())
	return res, nil
}
