package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

func TestMemoryStoreInsertAndLoad(t *testing.T) {
	s := New()
	n, err := s.Insert(context.Background(), []core.Transaction{
		{OperationTime: time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(-10), Category: "A"},
		{OperationTime: time.Date(2023, 11, 2, 9, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(20), Category: "B"},
	})
	if err != nil || n != 2 {
		t.Fatalf("unexpected insert: n=%d err=%v", n, err)
	}

	txs, err := s.Load(context.Background())
	if err != nil || len(txs) != 2 || txs[0].Category != "A" {
		t.Fatalf("unexpected load: %+v err=%v", txs, err)
	}

	txs[0].Category = "mutated"
	again, _ := s.Load(context.Background())
	if again[0].Category != "A" {
		t.Fatalf("Load must return a copy")
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Insert(context.Background(), []core.Transaction{
		{OperationTime: time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC)},
		{},
	})
	if !errors.Is(err, core.ErrZeroOperationTime) {
		t.Fatalf("expected ErrZeroOperationTime, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("nothing must be stored on error, got %d", s.Len())
	}
}

func TestMemoryStoreEmptyAndCancelled(t *testing.T) {
	txs, err := New().Load(context.Background())
	if err != nil || txs == nil || len(txs) != 0 {
		t.Fatalf("expected empty slice, got %v err=%v", txs, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
