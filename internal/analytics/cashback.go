package analytics

import (
	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

// DefaultCashbackRate is the share of spend returned as cashback.
var DefaultCashbackRate = decimal.New(1, -2)

// Estimator derives cashback from spend at a fixed rate.
type Estimator struct {
	rate decimal.Decimal
}

// NewEstimator creates an estimator. A negative rate is treated as zero.
func NewEstimator(rate decimal.Decimal) Estimator {
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	return Estimator{rate: rate}
}

// Rate returns the configured rate
func (e Estimator) Rate() decimal.Decimal {
	return e.rate
}

// Estimate returns spend × rate without rounding.
func (e Estimator) Estimate(spend decimal.Decimal) decimal.Decimal {
	return spend.Mul(e.rate)
}

// AccountSummaries reports spend and cashback per account in the order
// accounts first appear in txs. Accounts with income only are listed with
// zero spend.
func AccountSummaries(txs []core.Transaction, est Estimator) []core.AccountSummary {
	spent := AggregateBy(Expenses(txs), ByAccount, Magnitude)

	seen := make(map[string]struct{})
	out := make([]core.AccountSummary, 0)
	for _, t := range txs {
		account := ByAccount(t)
		if account == "" {
			continue
		}
		if _, ok := seen[account]; ok {
			continue
		}
		seen[account] = struct{}{}
		total := spent[account]
		out = append(out, core.AccountSummary{
			Account:    account,
			TotalSpent: total,
			Cashback:   est.Estimate(total),
		})
	}
	return out
}

// CashbackByCategory estimates the cashback each category earned in w,
// most profitable first.
func CashbackByCategory(txs []core.Transaction, w core.Window, est Estimator) []core.CategoryAmount {
	spent := AggregateBy(Expenses(FilterWindow(txs, w)), ByCategory, Magnitude)
	ranked := SortByMagnitude(CategoryTotals(spent))
	for i := range ranked {
		ranked[i].Amount = est.Estimate(ranked[i].Amount)
	}
	return ranked
}

// SpendingByCategory returns the spend magnitude of one category in w.
func SpendingByCategory(txs []core.Transaction, category string, w core.Window) decimal.Decimal {
	spent := decimal.Zero
	for _, t := range Expenses(FilterWindow(txs, w)) {
		if ByCategory(t) == category {
			spent = spent.Add(t.Amount.Abs())
		}
	}
	return spent
}
