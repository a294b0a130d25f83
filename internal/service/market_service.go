package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// MarketLoader projects the market list of a registry.
type MarketLoader interface {
	LoadMarkets(ctx context.Context, registryID string) ([]domain.Market, error)
}

// MarketService serves the cached market list of one registry.
type MarketService struct {
	loader     MarketLoader
	registryID string
	query      *cachedQuery[[]domain.Market]
	logger     *slog.Logger
}

// NewMarketService creates a MarketService. Results younger than freshness
// are served from cache.
func NewMarketService(
	loader MarketLoader,
	cache domain.QueryCache,
	registryID string,
	freshness time.Duration,
	logger *slog.Logger,
) *MarketService {
	logger = logger.With(slog.String("component", "market_service"))
	return &MarketService{
		loader:     loader,
		registryID: registryID,
		query: &cachedQuery[[]domain.Market]{
			cache:     cache,
			freshness: freshness,
			now:       time.Now,
			logger:    logger,
		},
		logger: logger,
	}
}

// Key returns the cache key of the market list.
func (s *MarketService) Key() domain.CacheKey {
	return domain.CacheKey{Kind: domain.KindMarkets, Scope: s.registryID}
}

// Markets returns the registry's markets in registry order.
func (s *MarketService) Markets(ctx context.Context) ([]domain.Market, error) {
	markets, err := s.query.load(ctx, s.Key(), func(ctx context.Context) ([]domain.Market, error) {
		return s.loader.LoadMarkets(ctx, s.registryID)
	})
	if err != nil {
		return nil, fmt.Errorf("market_service: markets: %w", err)
	}
	return markets, nil
}

// Market returns one market of the registry.
func (s *MarketService) Market(ctx context.Context, id string) (domain.Market, error) {
	markets, err := s.Markets(ctx)
	if err != nil {
		return domain.Market{}, err
	}
	want := normalizeID(id)
	for _, m := range markets {
		if normalizeID(m.ID) == want {
			return m, nil
		}
	}
	return domain.Market{}, fmt.Errorf("market_service: market %s: %w", id, domain.ErrNotFound)
}
