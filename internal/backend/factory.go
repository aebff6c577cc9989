package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"spendview/internal/sources/google"
	"spendview/internal/sources/memory"
	"spendview/internal/sources/xlsx"
	"spendview/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case XLSXBackend:
		return f.createXLSXBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createXLSXBackend(config Config) (*BackendResult, error) {
	src := xlsx.New(config.OperationsFile, config.OperationsSheet, config.Location)
	f.logger.Info("Initialized xlsx backend", "file", config.OperationsFile, "sheet", config.OperationsSheet)
	return &BackendResult{Source: src}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:  repo,
		Writer:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		Location:        config.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{Source: cli}, nil
}

// createMemoryBackend seeds the store from OperationsFile when that file
// exists.
func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := memory.New()

	if config.OperationsFile != "" {
		if _, err := os.Stat(config.OperationsFile); err == nil {
			txs, err := xlsx.New(config.OperationsFile, config.OperationsSheet, config.Location).Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("seed memory backend: %w", err)
			}
			if _, err := store.Insert(ctx, txs); err != nil {
				return nil, fmt.Errorf("seed memory backend: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat seed file: %w", err)
		}
	}

	f.logger.Info("Initialized memory backend", "transactions", store.Len())

	return &BackendResult{
		Source: store,
		Writer: store,
	}, nil
}
