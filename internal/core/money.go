// Money parsing and formatting.
//
// Amounts are shopspring decimals fixed to two places. Storage keeps them as
// integer cents.

package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	MinAmount = decimal.New(1, -2)
	MaxAmount = decimal.NewFromInt(1_000_000)
)

// ParseAmount converts a decimal string to an amount with two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Range checks are left to validation.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// AmountFromCents builds an amount from integer cents.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Cents returns the amount as integer cents. Callers round first.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FormatAmount renders an amount with exactly two decimals ("1234.50").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
