// Package pricing derives implied outcome prices from a market's vault
// balances.
package pricing

import "math/big"

const (
	// Scale is the basis-point denominator for prices and fees.
	Scale = 10_000
	// Neutral is the implied rate of a market with no liquidity.
	Neutral = Scale / 2
)

var bigScale = big.NewInt(Scale)

// ImpliedYesRate returns floor(yes*10000/(yes+no)) in basis points, or the
// neutral 5000 when both vaults are empty. The sum and product are computed
// in arbitrary precision so vaults near the uint64 ceiling do not overflow.
func ImpliedYesRate(yesVault, noVault uint64) uint64 {
	if yesVault == 0 && noVault == 0 {
		return Neutral
	}
	y := new(big.Int).SetUint64(yesVault)
	total := new(big.Int).Add(y, new(big.Int).SetUint64(noVault))
	y.Mul(y, bigScale)
	return y.Quo(y, total).Uint64()
}

// ImpliedNoRate is the complement of ImpliedYesRate.
func ImpliedNoRate(yesVault, noVault uint64) uint64 {
	return Scale - ImpliedYesRate(yesVault, noVault)
}
