// Package money wraps decimal parsing and formatting for amounts that travel
// as strings through the API and are stored in DECIMAL(12,2) columns. All
// arithmetic on invoice and payment amounts goes through this package so that
// totals never round-trip through float64.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string cannot be parsed as a decimal
// amount or the parsed value is negative.
var ErrInvalidAmount = errors.New("invalid amount")

// Parse converts a decimal string like "59.97" into a decimal value. Empty
// strings and negative values are rejected.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Format serializes a decimal to the canonical two-decimal-place string used
// in responses and DECIMAL(12,2) columns.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Sum adds amounts with decimal-safe arithmetic.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// LineAmount computes quantity * unitPrice rounded to two decimal places.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// TaxAmount computes amount * taxRate / 100 rounded to two decimal places.
// The result is tracked separately and is never folded into the line amount.
func TaxAmount(amount, taxRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
}
