package domain

// Side identifies an outcome of a binary market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// SideFromBool maps the on-chain side_yes flag to a Side.
func SideFromBool(yes bool) Side {
	if yes {
		return SideYes
	}
	return SideNo
}

// IsYes returns the on-chain flag for s.
func (s Side) IsYes() bool { return s == SideYes }

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Position is an owned claim on one outcome of a market.
type Position struct {
	ID       string `json:"id"`
	MarketID string `json:"market_id"`
	Shares   uint64 `json:"shares"`
	Side     Side   `json:"side"`
	CoinType string `json:"coin_type"`
}

// LPPosition is an owned claim on a market's pooled liquidity.
type LPPosition struct {
	ID       string `json:"id"`
	MarketID string `json:"market_id"`
	Shares   uint64 `json:"shares"`
	CoinType string `json:"coin_type"`
}
