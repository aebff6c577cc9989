// Package reports composes analytics results into the dashboard and period
// reports and writes them to sinks.
package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/analytics"
	"spendview/internal/core"
)

const (
	DefaultTopN        = 5
	DefaultTopK        = 7
	DefaultRollupLabel = "Остальное"
	DefaultTrailing    = 3
)

// DefaultAllowList names the categories reported under transfers_and_cash.
var DefaultAllowList = []string{"Наличные", "Переводы"}

type (
	// Options tunes report assembly. Zero values fall back to the defaults.
	Options struct {
		TopNTransactions int
		TopKCategories   int
		AllowList        []string
		Rollup           analytics.RollupPolicy
		RollupLabel      string
		Estimator        analytics.Estimator
		Location         *time.Location
	}

	// Market is the externally fetched data passed through to a report.
	Market struct {
		Rates  map[string]decimal.Decimal
		Prices map[string]decimal.Decimal
	}

	// Assembler builds reports from a transaction store. It keeps no state
	// between calls.
	Assembler struct {
		opts Options
	}
)

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TopNTransactions: DefaultTopN,
		TopKCategories:   DefaultTopK,
		AllowList:        append([]string(nil), DefaultAllowList...),
		Rollup:           analytics.RollupAlways,
		RollupLabel:      DefaultRollupLabel,
		Estimator:        analytics.NewEstimator(analytics.DefaultCashbackRate),
		Location:         time.Local,
	}
}

func NewAssembler(opts Options) *Assembler {
	if opts.TopNTransactions <= 0 {
		opts.TopNTransactions = DefaultTopN
	}
	if opts.TopKCategories <= 0 {
		opts.TopKCategories = DefaultTopK
	}
	if opts.AllowList == nil {
		opts.AllowList = append([]string(nil), DefaultAllowList...)
	}
	if opts.RollupLabel == "" {
		opts.RollupLabel = DefaultRollupLabel
	}
	if opts.Estimator == (analytics.Estimator{}) {
		opts.Estimator = analytics.NewEstimator(analytics.DefaultCashbackRate)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Assembler{opts: opts}
}

// Options returns the effective options.
func (a *Assembler) Options() Options {
	return a.opts
}

// Dashboard builds the current-month view at ref.
func (a *Assembler) Dashboard(txs []core.Transaction, ref time.Time, m Market) (DashboardReport, error) {
	w, err := analytics.SelectWindow(ref, core.CalendarMonth, txs)
	if err != nil {
		return DashboardReport{}, fmt.Errorf("select dashboard window: %w", err)
	}
	inWindow := analytics.FilterWindow(txs, w)

	summaries := analytics.AccountSummaries(inWindow, a.opts.Estimator)
	cards := make([]Card, 0, len(summaries))
	for _, s := range summaries {
		cards = append(cards, Card{
			Account:    s.Account,
			TotalSpent: core.NewAmount(s.TotalSpent),
			Cashback:   core.NewAmount(s.Cashback),
		})
	}

	top := analytics.TopNByAmount(inWindow, a.opts.TopNTransactions)
	ranked := make([]TopTransaction, 0, len(top))
	for _, t := range top {
		ranked = append(ranked, topTransaction(t))
	}

	return DashboardReport{
		Greeting:        analytics.GreetingFor(ref).Text(),
		Cards:           cards,
		TopTransactions: ranked,
		CurrencyRates:   quotes(m.Rates),
		StockPrices:     quotes(m.Prices),
	}, nil
}

// Period builds the income and expense breakdown of the window that period
// selects at ref.
func (a *Assembler) Period(txs []core.Transaction, ref time.Time, period core.Period, m Market) (PeriodReport, error) {
	w, err := analytics.SelectWindow(ref, period, txs)
	if err != nil {
		return PeriodReport{}, fmt.Errorf("select %s window: %w", period, err)
	}
	inWindow := analytics.FilterWindow(txs, w)

	expenses := analytics.Expenses(inWindow)
	expenseTotals := analytics.CategoryTotals(analytics.AggregateBy(expenses, analytics.ByCategory, analytics.Magnitude))
	top, rollup := analytics.TopCategoriesWithRollup(expenseTotals, a.opts.TopKCategories, a.opts.Rollup)

	income := analytics.Income(inWindow)
	incomeTotals := analytics.CategoryTotals(analytics.AggregateBy(income, analytics.ByCategory, analytics.SignedAmount))

	return PeriodReport{
		Expenses: ExpenseSummary{
			TotalAmount:      core.NewAmount(analytics.Total(expenses, analytics.Magnitude)),
			Main:             a.withRollup(top, rollup),
			TransfersAndCash: Breakdown(analytics.AllowListBreakdown(expenseTotals, a.opts.AllowList)),
		},
		Income: IncomeSummary{
			TotalAmount: core.NewAmount(analytics.Total(income, analytics.SignedAmount)),
			Main:        Breakdown(analytics.SortByMagnitude(incomeTotals)),
		},
		CurrencyRates: quotes(m.Rates),
		StockPrices:   quotes(m.Prices),
	}, nil
}

// CategorySpending reports the spend of one category over the months
// trailing ref.
func (a *Assembler) CategorySpending(txs []core.Transaction, category string, ref time.Time, months int) (CategorySpendingReport, error) {
	if ref.IsZero() {
		return CategorySpendingReport{}, core.ErrInvalidTimestamp
	}
	if months <= 0 {
		months = DefaultTrailing
	}
	category = strings.TrimSpace(category)
	w := analytics.TrailingMonthsWindow(ref, months)
	return CategorySpendingReport{
		Category: category,
		Spending: core.NewAmount(analytics.SpendingByCategory(txs, category, w)),
	}, nil
}

// Cashback reports the estimated cashback per category for a calendar month.
func (a *Assembler) Cashback(txs []core.Transaction, year int, month time.Month) (CashbackReport, error) {
	if month < time.January || month > time.December {
		return CashbackReport{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidTimestamp)
	}
	w := analytics.MonthWindow(year, month, a.opts.Location)
	return CashbackReport{
		Year:       year,
		Month:      int(month),
		Categories: Breakdown(analytics.CashbackByCategory(txs, w, a.opts.Estimator)),
	}, nil
}

// withRollup appends the rollup bucket after the top categories. A real
// category that shares the rollup label absorbs the bucket so keys stay
// unique.
func (a *Assembler) withRollup(top []core.CategoryAmount, rollup analytics.Rollup) Breakdown {
	out := make(Breakdown, len(top), len(top)+1)
	copy(out, top)
	if !rollup.Present {
		return out
	}
	for i := range out {
		if out[i].Name == a.opts.RollupLabel {
			out[i].Amount = out[i].Amount.Add(rollup.Value)
			return out
		}
	}
	return append(out, core.CategoryAmount{Name: a.opts.RollupLabel, Amount: rollup.Value})
}

func topTransaction(t core.Transaction) TopTransaction {
	out := TopTransaction{
		Date:        Timestamp(t.OperationTime),
		Amount:      core.NewAmount(t.Amount),
		Description: t.Description,
	}
	if t.HasCategory() {
		c := strings.TrimSpace(t.Category)
		out.Category = &c
	}
	return out
}

func quotes(m map[string]decimal.Decimal) Quotes {
	out := make(Quotes, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
