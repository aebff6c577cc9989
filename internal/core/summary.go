package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// AccountSummary is the spend and estimated cashback of one account.
type AccountSummary struct {
	Account    string
	TotalSpent decimal.Decimal // magnitude of the summed expenses
	Cashback   decimal.Decimal
}
