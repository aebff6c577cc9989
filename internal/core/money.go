// Package core provides money parsing and handling utilities.
//
// This file contains the parser for monetary amounts as they appear in bank
// exports and the Amount type used when reports are serialized.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimals kept when an amount leaves the system.
const MinorUnits = 2

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a signed decimal string to a Decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, a leading
// sign, and space or non-breaking-space thousand separators. No rounding is
// applied; precision is kept until serialization.
//
// Examples:
//   ParseAmount("-1 234,56") -> -1234.56, nil
//   ParseAmount("+12.5")     -> 12.5, nil
//   ParseAmount("12.345")    -> 12.345, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, s)
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Amount is a Decimal that marshals as a JSON number with exactly two
// decimals. It is the only place where rounding happens.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d for serialization.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// MarshalJSON writes the amount rounded half away from zero to MinorUnits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.StringFixed(MinorUnits)), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	a.Decimal = d
	return nil
}

// String renders the amount the way it is serialized.
func (a Amount) String() string {
	return a.Decimal.StringFixed(MinorUnits)
}
