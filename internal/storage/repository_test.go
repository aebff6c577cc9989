package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "spendview.db"), time.UTC)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample() []core.Transaction {
	moscow := time.FixedZone("MSK", 3*60*60)
	return []core.Transaction{
		{
			OperationTime: time.Date(2023, 11, 1, 9, 0, 0, 0, moscow),
			PaymentTime:   time.Date(2023, 11, 2, 0, 0, 0, 0, moscow),
			Account:       "*7197",
			Amount:        decimal.RequireFromString("-160.890"),
			Category:      "Супермаркеты",
			Description:   "Колхоз",
		},
		{
			OperationTime: time.Date(2023, 11, 3, 12, 0, 0, 0, time.UTC),
			Account:       "*5091",
			Amount:        decimal.NewFromInt(1500),
			Description:   "Пополнение",
		},
	}
}

func TestRepositoryInsertAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.Insert(ctx, sample())
	if err != nil || n != 2 {
		t.Fatalf("Insert: n=%d err=%v", n, err)
	}

	txs, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	first := txs[0]
	if !first.OperationTime.Equal(time.Date(2023, 11, 1, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("operation time = %v", first.OperationTime)
	}
	if first.OperationTime.Location() != time.UTC {
		t.Errorf("expected times in the repository location")
	}
	if !first.Amount.Equal(decimal.RequireFromString("-160.89")) || first.Category != "Супермаркеты" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if !txs[1].PaymentTime.IsZero() || txs[1].Category != "" {
		t.Errorf("unexpected second row: %+v", txs[1])
	}
}

func TestRepositoryReimportIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Insert(ctx, sample()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	n, err := repo.Insert(ctx, sample())
	if err != nil || n != 0 {
		t.Fatalf("re-import: n=%d err=%v", n, err)
	}
	count, err := repo.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("Count: %d err=%v", count, err)
	}
}

func TestRepositoryKeepsIdenticalRowsOfOneBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	coffee := core.Transaction{
		OperationTime: time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC),
		Account:       "*7197",
		Amount:        decimal.NewFromInt(-200),
		Category:      "Кафе",
	}

	n, err := repo.Insert(ctx, []core.Transaction{coffee, coffee})
	if err != nil || n != 2 {
		t.Fatalf("Insert: n=%d err=%v", n, err)
	}
	n, err = repo.Insert(ctx, []core.Transaction{coffee, coffee, coffee})
	if err != nil || n != 1 {
		t.Fatalf("second batch must add only the third copy: n=%d err=%v", n, err)
	}
}

func TestRepositoryRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Insert(context.Background(), []core.Transaction{{Amount: decimal.NewFromInt(-1)}})
	if !errors.Is(err, core.ErrZeroOperationTime) {
		t.Fatalf("expected ErrZeroOperationTime, got %v", err)
	}
}

func TestRepositoryEmptyLoad(t *testing.T) {
	txs, err := newTestRepo(t).Load(context.Background())
	if err != nil || txs == nil || len(txs) != 0 {
		t.Fatalf("expected empty slice, got %v err=%v", txs, err)
	}
}

func TestRunMigrationsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		v, err := RunMigrations(path)
		if err != nil || v != 1 {
			t.Fatalf("run %d: version=%d err=%v", i, v, err)
		}
	}
}
