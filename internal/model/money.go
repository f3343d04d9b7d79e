package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor is the scale applied to every amount (cents per euro).
const MinorUnitsPerMajor = 100

// Money is an exact amount in minor units of a currency.
type Money struct {
	Currency string // ISO 4217 code
	Amount   int64  // Minor units, e.g. cents
}

// ParseMinorUnits converts a decimal string such as "-500.25" into minor units,
// rounding half away from zero to two decimal places.
func ParseMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid decimal amount %q: %w", s, err)
	}
	return MinorUnitsFromDecimal(d)
}

// MinorUnitsFromDecimal rounds d to two places and returns it as minor units.
func MinorUnitsFromDecimal(d decimal.Decimal) (int64, error) {
	scaled := d.Shift(2).Round(0)
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s overflows minor units", d.String())
	}
	return scaled.IntPart(), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -2)
}

// String formats the amount with two decimals followed by the currency code.
func (m Money) String() string {
	if m.Currency == "" {
		return m.Decimal().StringFixed(2)
	}
	return m.Decimal().StringFixed(2) + " " + m.Currency
}

// IsNegative reports whether the amount is a debit.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}
