// Package storage keeps imported transactions in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendview/internal/core"
	"spendview/internal/sources"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically in the same order as the instants.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// fingerprintSpace namespaces the deterministic row fingerprints.
var fingerprintSpace = uuid.MustParse("6f1c1b7e-3c57-4b8e-9a55-2f0d4b0c9d21")

var (
	_ sources.TransactionSource = (*SQLiteRepository)(nil)
	_ sources.TransactionWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	loc     *time.Location
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it. Loaded times are converted to loc; nil means time.Local.
func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	if loc == nil {
		loc = time.Local
	}
	return &SQLiteRepository{db: db, queries: New(db), loc: loc}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements sources.TransactionSource, returning rows in import order.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", core.ErrSourceUnavailable, err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := r.fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", core.ErrSourceUnavailable, row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Insert implements sources.TransactionWriter. Rows already present, judged
// by their content fingerprint, are skipped, so re-importing an export is
// idempotent. The returned count only includes new rows.
func (r *SQLiteRepository) Insert(ctx context.Context, txs []core.Transaction) (int, error) {
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	inserted := 0
	seen := make(map[string]int)
	for _, t := range txs {
		p := toParams(t)
		// Identical rows within one export are distinct purchases.
		key := contentKey(p)
		p.Fingerprint = fingerprint(key, seen[key])
		seen[key]++
		ok, err := q.InsertTransaction(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
		if ok {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Transactions imported to SQLite",
		"received", len(txs),
		"inserted", inserted,
		"skipped", len(txs)-inserted)
	return inserted, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) fromRow(row TransactionRow) (core.Transaction, error) {
	opTime, err := time.Parse(timeLayout, row.OperationTime)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("operation time: %w", err)
	}
	var payTime time.Time
	if row.PaymentTime != "" {
		payTime, err = time.Parse(timeLayout, row.PaymentTime)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("payment time: %w", err)
		}
		payTime = payTime.In(r.loc)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	return core.Transaction{
		OperationTime: opTime.In(r.loc),
		PaymentTime:   payTime,
		Account:       row.Account,
		Amount:        amount,
		Category:      row.Category,
		Description:   row.Description,
	}, nil
}

func toParams(t core.Transaction) InsertTransactionParams {
	p := InsertTransactionParams{
		OperationTime: t.OperationTime.UTC().Format(timeLayout),
		Account:       strings.TrimSpace(t.Account),
		Amount:        t.Amount.String(),
		Category:      strings.TrimSpace(t.Category),
		Description:   strings.TrimSpace(t.Description),
	}
	if !t.PaymentTime.IsZero() {
		p.PaymentTime = t.PaymentTime.UTC().Format(timeLayout)
	}
	return p
}

func contentKey(p InsertTransactionParams) string {
	return strings.Join([]string{p.OperationTime, p.PaymentTime, p.Account, p.Amount, p.Category, p.Description}, "\x1f")
}

// fingerprint derives a stable id from the row content and its occurrence
// index among identical rows of the same batch.
func fingerprint(key string, occurrence int) string {
	return uuid.NewSHA1(fingerprintSpace, []byte(key+"\x1f"+strconv.Itoa(occurrence))).String()
}
