package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestImpliedRates(t *testing.T) {
	cases := []struct {
		yes, no uint64
		wantYes uint64
		wantNo  uint64
	}{
		{0, 0, 5000, 5000},
		{1, 0, 10000, 0},
		{0, 1, 0, 10000},
		{1, 1, 5000, 5000},
		{1, 2, 3333, 6667},
		{2, 1, 6666, 3334},
		{math.MaxUint64, math.MaxUint64, 5000, 5000},
		{math.MaxUint64, 1, 9999, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.wantYes, ImpliedYesRate(tc.yes, tc.no), "yes(%d,%d)", tc.yes, tc.no)
		assert.Equal(t, tc.wantNo, ImpliedNoRate(tc.yes, tc.no), "no(%d,%d)", tc.yes, tc.no)
	}
}

func TestImpliedRatesSumToScale(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		yes := rapid.Uint64().Draw(t, "yes").(uint64)
		no := rapid.Uint64().Draw(t, "no").(uint64)

		y := ImpliedYesRate(yes, no)
		require.LessOrEqual(t, y, uint64(Scale))
		require.Equal(t, uint64(Scale), y+ImpliedNoRate(yes, no))
	})
}

func TestImpliedYesRateMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		yes := rapid.Uint64Range(0, math.MaxUint64-1).Draw(t, "yes").(uint64)
		no := rapid.Uint64Range(1, math.MaxUint64).Draw(t, "no").(uint64)

		require.GreaterOrEqual(t, ImpliedYesRate(yes+1, no), ImpliedYesRate(yes, no))
	})
}
