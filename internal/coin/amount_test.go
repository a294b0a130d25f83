package coin

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sebikillmachin/SUI/internal/domain"
)

func TestToSmallestUnit(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     uint64
	}{
		{"whole", "1", 9, 1_000_000_000},
		{"eight decimals", "1.23456789", 8, 123_456_789},
		{"truncates to zero precision", "1.5", 0, 1},
		{"truncates excess fraction", "0.1234567899", 9, 123_456_789},
		{"never rounds up", "0.9999999999", 9, 999_999_999},
		{"usdc", "12.345678", 6, 12_345_678},
		{"zero", "0", 9, 0},
		{"max u64", "18446744073709551615", 0, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, err := ParseAmount(tt.amount)
			require.NoError(t, err)
			got, err := ToSmallestUnit(amt, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToSmallestUnitRejects(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
	}{
		{"negative", "-1", 9},
		{"overflow", "18446744073709551616", 0},
		{"overflow after shift", "18446744074", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, err := ParseAmount(tt.amount)
			require.NoError(t, err)
			_, err = ToSmallestUnit(amt, tt.decimals)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
		})
	}

	_, err := ToSmallestUnit(decimal.NewFromInt(1), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestPositiveSmallestUnit(t *testing.T) {
	_, err := PositiveSmallestUnit(decimal.Zero, 9)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = PositiveSmallestUnit(decimal.NewFromInt(-3), 9)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	got, err := PositiveSmallestUnit(decimal.RequireFromString("0.5"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), got)
}

func TestParseAmountInvalid(t *testing.T) {
	_, err := ParseAmount("one point five")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.5", FormatUnits(1_500_000_000, 9))
	assert.Equal(t, "0.000001", FormatUnits(1, 6))
	assert.Equal(t, "42", FormatUnits(42, 0))
}

func TestSmallestUnitProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		units := rapid.Uint64().Draw(t, "units").(uint64)
		decimals := int32(rapid.IntRange(0, 18).Draw(t, "decimals").(int))

		// Formatting then converting back is lossless.
		amt, err := ParseAmount(FormatUnits(units, decimals))
		require.NoError(t, err)
		back, err := ToSmallestUnit(amt, decimals)
		require.NoError(t, err)
		require.Equal(t, units, back)

		// Extra fractional digits are truncated, never rounded up.
		extra := rapid.IntRange(1, 9).Draw(t, "extra").(int)
		padded := amt.Add(decimal.RequireFromString("0." + strconv.Itoa(extra)).Shift(-decimals))
		got, err := ToSmallestUnit(padded, decimals)
		require.NoError(t, err)
		require.Equal(t, units, got)
	})
}
