// Package sources holds the ports through which transactions and market data
// enter the application, plus the row parser shared by the spreadsheet
// adapters.
package sources

import (
	"context"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionSource loads the full transaction store. An empty slice is a
	// valid result. Failures wrap core.ErrSourceUnavailable.
	TransactionSource interface {
		Load(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionWriter persists transactions, returning how many were stored.
	TransactionWriter interface {
		Insert(ctx context.Context, txs []core.Transaction) (int, error)
	}

	// RateProvider returns exchange rates for the requested currency codes.
	// Unknown codes may be missing from the result.
	RateProvider interface {
		Rates(ctx context.Context, codes []string) (map[string]decimal.Decimal, error)
	}

	// PriceProvider returns prices for the requested instrument symbols, with
	// the same contract as RateProvider.
	PriceProvider interface {
		Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	}
)

// SourceFunc adapts a function to TransactionSource.
type SourceFunc func(ctx context.Context) ([]core.Transaction, error)

func (f SourceFunc) Load(ctx context.Context) ([]core.Transaction, error) {
	return f(ctx)
}
