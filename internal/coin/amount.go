package coin

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sebikillmachin/SUI/internal/domain"
)

var maxU64 = decimal.NewFromUint64(math.MaxUint64)

// ParseAmount parses a user-entered decimal amount such as "1.25".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("coin: parse amount %q: %w", s, domain.ErrInvalidAmount)
	}
	return d, nil
}

// ToSmallestUnit returns floor(amount * 10^decimals). It truncates and never
// rounds up, so the escrow requested can never exceed what the user typed.
// Negative amounts and results that do not fit a u64 are rejected.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("coin: negative amount %s: %w", amount, domain.ErrInvalidAmount)
	}
	if decimals < 0 {
		return 0, fmt.Errorf("coin: negative precision %d: %w", decimals, domain.ErrInvalidAmount)
	}
	units := amount.Shift(decimals).Floor()
	if units.GreaterThan(maxU64) {
		return 0, fmt.Errorf("coin: amount %s overflows u64: %w", amount, domain.ErrInvalidAmount)
	}
	return units.BigInt().Uint64(), nil
}

// PositiveSmallestUnit is ToSmallestUnit for amounts that must be strictly
// positive before conversion (escrow payments, bonds, deposits).
func PositiveSmallestUnit(amount decimal.Decimal, decimals int32) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("coin: amount must be positive, got %s: %w", amount, domain.ErrInvalidAmount)
	}
	return ToSmallestUnit(amount, decimals)
}

// FormatUnits renders a smallest-unit amount for display, trimming trailing
// zeros. It is a display helper, not an exact inverse of ToSmallestUnit.
func FormatUnits(units uint64, decimals int32) string {
	return decimal.NewFromUint64(units).Shift(-decimals).String()
}

// FormatWithSymbol renders units with the asset's symbol, e.g. "1.5 SUI".
func (r *Registry) FormatWithSymbol(units uint64, typeTag string) string {
	t := r.Lookup(typeTag)
	return FormatUnits(units, t.Decimals) + " " + t.Symbol
}
