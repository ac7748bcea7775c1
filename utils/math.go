package utils

import (
	"github.com/shopspring/decimal"
)

var minorUnits = decimal.NewFromInt(MinorUnitsPerMajor)

// RoundWhole rounds to the nearest whole currency unit, half away from zero.
// Amounts are never negative, so this is round-half-up.
func RoundWhole(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// ToMinorUnits converts a major-unit amount to integer minor units (cents).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnits).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorUnits)
}

// FormatMinorUnits renders minor units as a fixed two-decimal string ("980.00").
func FormatMinorUnits(minor int64) string {
	return FromMinorUnits(minor).StringFixed(2)
}

// ParseMinorUnits parses a decimal string ("980.00") into minor units.
func ParseMinorUnits(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	return ToMinorUnits(d), nil
}

// SumAmounts adds a slice of amounts
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
