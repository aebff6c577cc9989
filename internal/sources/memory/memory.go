// Package memory keeps transactions in process memory. It backs tests and the
// "memory" data backend.
package memory

import (
	"context"
	"sync"

	"spendview/internal/core"
	"spendview/internal/sources"
)

var (
	_ sources.TransactionSource = (*Store)(nil)
	_ sources.TransactionWriter = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New(txs ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), txs...)}
}

// Load returns a copy of the stored transactions in insertion order.
func (s *Store) Load(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Insert validates and appends txs. Nothing is stored if any of them is
// invalid.
func (s *Store) Insert(_ context.Context, txs []core.Transaction) (int, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, txs...)
	return len(txs), nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
