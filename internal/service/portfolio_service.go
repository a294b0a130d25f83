package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// PortfolioLoader projects the holdings of one identity.
type PortfolioLoader interface {
	LoadPortfolio(ctx context.Context, owner string) (domain.Portfolio, error)
}

// PortfolioService serves cached portfolios keyed by owner.
type PortfolioService struct {
	loader PortfolioLoader
	query  *cachedQuery[domain.Portfolio]
	logger *slog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(loader PortfolioLoader, cache domain.QueryCache, freshness time.Duration, logger *slog.Logger) *PortfolioService {
	logger = logger.With(slog.String("component", "portfolio_service"))
	return &PortfolioService{
		loader: loader,
		query: &cachedQuery[domain.Portfolio]{
			cache:     cache,
			freshness: freshness,
			now:       time.Now,
			logger:    logger,
		},
		logger: logger,
	}
}

// PortfolioKey is the cache key of owner's portfolio.
func PortfolioKey(owner string) domain.CacheKey {
	return domain.CacheKey{Kind: domain.KindPortfolio, Scope: normalizeID(owner)}
}

// Portfolio returns owner's portfolio. An empty owner is "not connected" and
// yields an empty portfolio without touching the cache or the network.
func (s *PortfolioService) Portfolio(ctx context.Context, owner string) (domain.Portfolio, error) {
	if owner == "" {
		return domain.EmptyPortfolio(""), nil
	}
	owner = normalizeID(owner)
	p, err := s.query.load(ctx, PortfolioKey(owner), func(ctx context.Context) (domain.Portfolio, error) {
		return s.loader.LoadPortfolio(ctx, owner)
	})
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("portfolio_service: portfolio %s: %w", owner, err)
	}
	return p, nil
}

// normalizeID canonicalises an address or object id, leaving values that do
// not parse untouched.
func normalizeID(id string) string {
	if n, err := sui.NormalizeAddress(id); err == nil {
		return n
	}
	return id
}
