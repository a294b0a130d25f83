package domain

// Portfolio is everything one identity owns across all settlement assets. It
// is recomputed wholesale on every refresh.
type Portfolio struct {
	Owner     string       `json:"owner,omitempty"`
	Positions []Position   `json:"positions"`
	LPs       []LPPosition `json:"lps"`
	Orders    []LimitOrder `json:"orders"`
}

// EmptyPortfolio returns a portfolio with non-nil, empty collections.
func EmptyPortfolio(owner string) Portfolio {
	return Portfolio{
		Owner:     owner,
		Positions: []Position{},
		LPs:       []LPPosition{},
		Orders:    []LimitOrder{},
	}
}

// ForMarket returns the subset of p that belongs to marketID.
func (p Portfolio) ForMarket(marketID string) Portfolio {
	out := EmptyPortfolio(p.Owner)
	for _, pos := range p.Positions {
		if pos.MarketID == marketID {
			out.Positions = append(out.Positions, pos)
		}
	}
	for _, lp := range p.LPs {
		if lp.MarketID == marketID {
			out.LPs = append(out.LPs, lp)
		}
	}
	for _, o := range p.Orders {
		if o.MarketID == marketID {
			out.Orders = append(out.Orders, o)
		}
	}
	return out
}
