package reports

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

// TimestampLayout is the ISO-8601 layout used for dates in reports.
const TimestampLayout = "2006-01-02T15:04:05"

type (
	// DashboardReport is the point-in-time view of the current month.
	DashboardReport struct {
		Greeting        string           `json:"greeting"`
		Cards           []Card           `json:"cards"`
		TopTransactions []TopTransaction `json:"top_transactions"`
		CurrencyRates   Quotes           `json:"currency_rates"`
		StockPrices     Quotes           `json:"stock_prices"`
	}

	// Card is the spend summary of one account.
	Card struct {
		Account    string      `json:"account"`
		TotalSpent core.Amount `json:"total_spent"`
		Cashback   core.Amount `json:"cashback"`
	}

	// TopTransaction is one entry of the dashboard ranking.
	TopTransaction struct {
		Date        Timestamp   `json:"date"`
		Amount      core.Amount `json:"amount"`
		Category    *string     `json:"category"`
		Description string      `json:"description"`
	}

	// PeriodReport aggregates income and expenses over a window.
	PeriodReport struct {
		Expenses      ExpenseSummary `json:"expenses"`
		Income        IncomeSummary  `json:"income"`
		CurrencyRates Quotes         `json:"currency_rates"`
		StockPrices   Quotes         `json:"stock_prices"`
	}

	// ExpenseSummary holds expense magnitudes.
	ExpenseSummary struct {
		TotalAmount      core.Amount `json:"total_amount"`
		Main             Breakdown   `json:"main"`
		TransfersAndCash Breakdown   `json:"transfers_and_cash"`
	}

	IncomeSummary struct {
		TotalAmount core.Amount `json:"total_amount"`
		Main        Breakdown   `json:"main"`
	}

	// CategorySpendingReport is the spend of one category over trailing months.
	CategorySpendingReport struct {
		Category string      `json:"category"`
		Spending core.Amount `json:"spending"`
	}

	// CashbackReport lists the estimated cashback per category for a month.
	CashbackReport struct {
		Year       int       `json:"year"`
		Month      int       `json:"month"`
		Categories Breakdown `json:"categories"`
	}

	// Breakdown is a category → amount object that keeps rank order when
	// serialized.
	Breakdown []core.CategoryAmount

	// Quotes are externally supplied rates or prices, passed through as is.
	Quotes map[string]decimal.Decimal

	// Timestamp serializes as TimestampLayout.
	Timestamp time.Time
)

// MarshalJSON writes the breakdown as a JSON object in slice order.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(c.Amount.StringFixed(core.MinorUnits))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the amount of a category and whether it is present.
func (b Breakdown) Get(name string) (decimal.Decimal, bool) {
	for _, c := range b {
		if c.Name == name {
			return c.Amount, true
		}
	}
	return decimal.Zero, false
}

// MarshalJSON writes the quotes as bare JSON numbers with sorted keys.
func (q Quotes) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(q[k].String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(TimestampLayout))
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func marshalNoEscape(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
