package domain

import "time"

// LimitOrder is an owned resting order on a market's order book. Matching and
// expiry are enforced by the ledger; the helpers below are advisory only.
type LimitOrder struct {
	ID              string    `json:"id"`
	MarketID        string    `json:"market_id"`
	Side            Side      `json:"side"`
	PriceBps        uint64    `json:"price_bps"`
	MaxShares       uint64    `json:"max_shares"`
	RemainingShares uint64    `json:"remaining_shares"`
	Expiry          time.Time `json:"expiry"`
	CoinType        string    `json:"coin_type"`
}

// Expired reports whether the order's expiry has passed at now. Orders
// without an expiry never expire locally.
func (o LimitOrder) Expired(now time.Time) bool {
	return !o.Expiry.IsZero() && !now.Before(o.Expiry)
}

// IsOpen reports whether the order can still be filled at now, as far as the
// last snapshot can tell.
func (o LimitOrder) IsOpen(now time.Time) bool {
	return o.RemainingShares > 0 && !o.Expired(now)
}

// FilledShares returns how many shares have been matched so far.
func (o LimitOrder) FilledShares() uint64 {
	if o.RemainingShares >= o.MaxShares {
		return 0
	}
	return o.MaxShares - o.RemainingShares
}

// OrderView is a LimitOrder annotated with its advisory state at one instant.
type OrderView struct {
	LimitOrder
	Open         bool   `json:"open"`
	Expired      bool   `json:"expired"`
	FilledShares uint64 `json:"filled_shares"`
}

// OrderViews annotates orders as of now. The result is never nil.
func OrderViews(orders []LimitOrder, now time.Time) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderView{
			LimitOrder:   o,
			Open:         o.IsOpen(now),
			Expired:      o.Expired(now),
			FilledShares: o.FilledShares(),
		})
	}
	return out
}
