package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// Session tracks the scope one client is looking at: the connected identity
// and the selected market. A load started under one scope that finishes
// after the scope changed returns domain.ErrStaleScope; callers drop it.
type Session struct {
	markets    *MarketService
	portfolios *PortfolioService
	now        func() time.Time

	mu       sync.Mutex
	owner    string
	marketID string
	epoch    uint64
}

// NewSession creates a disconnected session with no market selected.
func NewSession(markets *MarketService, portfolios *PortfolioService) *Session {
	return &Session{markets: markets, portfolios: portfolios, now: time.Now}
}

// Connect switches the session to owner; "" disconnects.
func (s *Session) Connect(owner string) {
	if owner != "" {
		owner = normalizeID(owner)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner != s.owner {
		s.owner = owner
		s.epoch++
	}
}

// Select switches the selected market; "" clears the selection.
func (s *Session) Select(marketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if marketID != s.marketID {
		s.marketID = marketID
		s.epoch++
	}
}

// Scope returns the current identity and selected market.
func (s *Session) Scope() (owner, marketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner, s.marketID
}

func (s *Session) snapshot() (owner, marketID string, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner, s.marketID, s.epoch
}

func (s *Session) current(epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return domain.ErrStaleScope
	}
	return nil
}

// Portfolio loads the connected identity's portfolio.
func (s *Session) Portfolio(ctx context.Context) (domain.Portfolio, error) {
	owner, _, epoch := s.snapshot()
	p, err := s.portfolios.Portfolio(ctx, owner)
	if err != nil {
		return domain.Portfolio{}, err
	}
	if err := s.current(epoch); err != nil {
		return domain.Portfolio{}, fmt.Errorf("session: portfolio %s: %w", owner, err)
	}
	return p, nil
}

// View is everything a client renders for its current scope.
type View struct {
	Owner     string           `json:"owner,omitempty"`
	Markets   []domain.Market  `json:"markets"`
	Selected  *domain.Market   `json:"selected,omitempty"`
	Portfolio domain.Portfolio `json:"portfolio"`
	// Orders annotates Portfolio.Orders with their state at load time.
	Orders []domain.OrderView `json:"orders"`
	// Holdings is the part of Portfolio that belongs to Selected.
	Holdings *domain.Portfolio `json:"holdings,omitempty"`
}

// View loads the market list and the portfolio concurrently and assembles
// them for the current scope.
func (s *Session) View(ctx context.Context) (View, error) {
	owner, marketID, epoch := s.snapshot()

	var (
		markets   []domain.Market
		portfolio domain.Portfolio
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		markets, err = s.markets.Markets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		portfolio, err = s.portfolios.Portfolio(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	if err := s.current(epoch); err != nil {
		return View{}, fmt.Errorf("session: view: %w", err)
	}

	v := View{
		Owner:     owner,
		Markets:   markets,
		Portfolio: portfolio,
		Orders:    domain.OrderViews(portfolio.Orders, s.now()),
	}
	if marketID != "" {
		want := normalizeID(marketID)
		for i := range markets {
			if normalizeID(markets[i].ID) == want {
				v.Selected = &markets[i]
				h := portfolio.ForMarket(markets[i].ID)
				v.Holdings = &h
				break
			}
		}
	}
	return v, nil
}
