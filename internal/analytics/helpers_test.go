package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(when, amount, category, account string) core.Transaction {
	return core.Transaction{
		OperationTime: at(when),
		PaymentTime:   at(when).Add(24 * time.Hour),
		Account:       account,
		Amount:        dec(amount),
		Category:      category,
		Description:   category + " " + amount,
	}
}

func mustEqualDecimal(t *testing.T, what string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: expected %s, got %s", what, want, got)
	}
}
