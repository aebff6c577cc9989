package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Week          Period = "WEEK"
	Month         Period = "MONTH"
	Year          Period = "YEAR"
	All           Period = "ALL"
	CalendarMonth Period = "CALENDAR_MONTH"
)

type (
	// Period selects the date window of a report.
	Period string

	// Transaction is one ledger row as produced by a source. It is never
	// mutated after construction.
	Transaction struct {
		OperationTime time.Time
		PaymentTime   time.Time // may lag OperationTime, zero when unknown
		Account       string    // opaque, usually the masked card number
		Amount        decimal.Decimal
		Category      string // empty when the row has no category
		Description   string
	}

	// Window is an inclusive [Start, End] range.
	Window struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidPeriodCode = errors.New("invalid period code")
	ErrSourceUnavailable = errors.New("transaction source unavailable")
	ErrMarketUnavailable = errors.New("market data unavailable")
	ErrZeroOperationTime = errors.New("operation time cannot be zero")
)

// referenceLayouts are tried in order by ParseReferenceTime.
var referenceLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseReferenceTime parses the reference date of a report request.
// A nil location means time.Local.
func ParseReferenceTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// ParsePeriod maps an external period code to a Period. Unknown codes fall
// back to Month unless strict is set.
func ParsePeriod(code string, strict bool) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "W", "WEEK":
		return Week, nil
	case "M", "MONTH":
		return Month, nil
	case "Y", "YEAR":
		return Year, nil
	case "ALL":
		return All, nil
	case "CALENDAR_MONTH":
		return CalendarMonth, nil
	case "":
		return Month, nil
	}
	if strict {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodCode, code)
	}
	return Month, nil
}

// IsValid returns true for the known periods
func (p Period) IsValid() bool {
	switch p {
	case Week, Month, Year, All, CalendarMonth:
		return true
	default:
		return false
	}
}

func (p Period) String() string {
	return string(p)
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (t Transaction) Validate() error {
	if t.OperationTime.IsZero() {
		return ErrZeroOperationTime
	}
	return nil
}

// IsExpense is true for negative amounts.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome is true for positive amounts.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// HasCategory returns false when the source row had no category
func (t Transaction) HasCategory() bool {
	return strings.TrimSpace(t.Category) != ""
}
