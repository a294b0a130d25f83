package domain

import (
	"time"

	"github.com/sebikillmachin/SUI/internal/pricing"
)

// Market is a read-only snapshot of one on-chain prediction market. Vault
// balances and share totals are denominated in the smallest unit of the
// market's settlement asset (CoinType).
type Market struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	EndTime    time.Time `json:"end_time"`
	FeeBps     uint64    `json:"fee_bps"`
	Resolved   bool      `json:"resolved"`
	OutcomeYes bool      `json:"outcome_yes"` // meaningful only when Resolved

	YesVault       uint64 `json:"yes_vault"`
	NoVault        uint64 `json:"no_vault"`
	TotalYesShares uint64 `json:"total_yes_shares"`
	TotalNoShares  uint64 `json:"total_no_shares"`
	TotalLPShares  uint64 `json:"total_lp_shares"`

	HasPendingResolution bool   `json:"has_pending_resolution"`
	CoinType             string `json:"coin_type"`
}

// Ended reports whether the market's end time has passed at now. A market
// without an end time never ends locally.
func (m Market) Ended(now time.Time) bool {
	return !m.EndTime.IsZero() && !now.Before(m.EndTime)
}

// Winner returns the winning side of a resolved market. ok is false while
// the market is unresolved.
func (m Market) Winner() (side Side, ok bool) {
	if !m.Resolved {
		return "", false
	}
	return SideFromBool(m.OutcomeYes), true
}

// YesPriceBps is the implied yes price in basis points.
func (m Market) YesPriceBps() uint64 { return pricing.ImpliedYesRate(m.YesVault, m.NoVault) }

// NoPriceBps is the implied no price in basis points.
func (m Market) NoPriceBps() uint64 { return pricing.ImpliedNoRate(m.YesVault, m.NoVault) }
