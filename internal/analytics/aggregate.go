package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

type (
	// KeyFunc extracts the grouping key of a transaction.
	KeyFunc func(core.Transaction) string

	// ValueFunc extracts the summed value of a transaction.
	ValueFunc func(core.Transaction) decimal.Decimal
)

// AggregateBy groups txs by key and sums value. Transactions with an empty
// key are skipped, which is how rows without a category drop out of a
// category breakdown. Decimal sums are exact, so the result does not depend
// on input order.
func AggregateBy(txs []core.Transaction, key KeyFunc, value ValueFunc) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		k := key(t)
		if k == "" {
			continue
		}
		out[k] = out[k].Add(value(t))
	}
	return out
}

// Total sums value over txs.
func Total(txs []core.Transaction, value ValueFunc) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(value(t))
	}
	return sum
}

// ByCategory keys a transaction by its trimmed category.
func ByCategory(t core.Transaction) string {
	return strings.TrimSpace(t.Category)
}

// ByAccount keys a transaction by its account identifier.
func ByAccount(t core.Transaction) string {
	return strings.TrimSpace(t.Account)
}

// SignedAmount is the raw amount.
func SignedAmount(t core.Transaction) decimal.Decimal {
	return t.Amount
}

// Magnitude is the absolute amount.
func Magnitude(t core.Transaction) decimal.Decimal {
	return t.Amount.Abs()
}

// Expenses keeps transactions with a negative amount.
func Expenses(txs []core.Transaction) []core.Transaction {
	return filter(txs, core.Transaction.IsExpense)
}

// Income keeps transactions with a positive amount.
func Income(txs []core.Transaction) []core.Transaction {
	return filter(txs, core.Transaction.IsIncome)
}

func filter(txs []core.Transaction, keep func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
