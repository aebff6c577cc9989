package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

const (
	// RollupAlways reports the rollup bucket even when nothing was cut.
	RollupAlways RollupPolicy = iota
	// RollupOmitEmpty drops the rollup bucket when nothing was cut.
	RollupOmitEmpty
)

type (
	// RollupPolicy decides whether an empty rollup bucket is reported.
	RollupPolicy int

	// Rollup is the synthetic bucket of the categories beyond the top cut.
	Rollup struct {
		Present bool
		Value   decimal.Decimal
	}
)

// TopNByAmount returns at most n transactions ranked by signed amount,
// largest first. Ties keep their input order.
func TopNByAmount(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return []core.Transaction{}
	}
	ranked := make([]core.Transaction, len(txs))
	copy(ranked, txs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.GreaterThan(ranked[j].Amount)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// CategoryTotals flattens an aggregate into a slice ordered by name. This
// fixes the pre-sort order that ranking ties fall back to.
func CategoryTotals(m map[string]decimal.Decimal) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(m))
	for name, amount := range m {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SortByMagnitude orders totals by absolute amount, largest first, keeping
// the relative order of equal totals.
func SortByMagnitude(totals []core.CategoryAmount) []core.CategoryAmount {
	ranked := make([]core.CategoryAmount, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.Abs().GreaterThan(ranked[j].Amount.Abs())
	})
	return ranked
}

// TopCategoriesWithRollup keeps the k largest categories by magnitude and sums
// the rest into a rollup. Top values plus the rollup always equal the sum of
// the input.
func TopCategoriesWithRollup(totals []core.CategoryAmount, k int, policy RollupPolicy) ([]core.CategoryAmount, Rollup) {
	if k < 0 {
		k = 0
	}
	ranked := SortByMagnitude(totals)
	if len(ranked) <= k {
		return ranked, Rollup{Present: policy == RollupAlways, Value: decimal.Zero}
	}
	rest := decimal.Zero
	for _, c := range ranked[k:] {
		rest = rest.Add(c.Amount)
	}
	return ranked[:k], Rollup{Present: true, Value: rest}
}

// AllowListBreakdown reports the allow-listed categories that have a non-zero
// total, largest first, regardless of their overall rank.
func AllowListBreakdown(totals []core.CategoryAmount, allow []string) []core.CategoryAmount {
	allowed := make(map[string]struct{}, len(allow))
	for _, name := range allow {
		allowed[name] = struct{}{}
	}
	picked := make([]core.CategoryAmount, 0, len(allow))
	for _, c := range totals {
		if _, ok := allowed[c.Name]; ok && !c.Amount.IsZero() {
			picked = append(picked, c)
		}
	}
	return SortByMagnitude(picked)
}
