package projection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sebikillmachin/SUI/internal/coin"
	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// MarketProjector loads the market list published by a registry object.
type MarketProjector struct {
	reader ObjectReader
	logger *slog.Logger
}

// NewMarketProjector creates a MarketProjector.
func NewMarketProjector(reader ObjectReader, logger *slog.Logger) *MarketProjector {
	return &MarketProjector{
		reader: reader,
		logger: logger.With(slog.String("component", "market_projector")),
	}
}

// LoadMarkets fetches the registry, bulk-fetches every listed market and maps
// each into a domain.Market. The result preserves registry order; absent or
// malformed markets are omitted. An empty registry is an empty result.
func (p *MarketProjector) LoadMarkets(ctx context.Context, registryID string) ([]domain.Market, error) {
	reg, err := p.reader.GetObject(ctx, registryID)
	if err != nil {
		return nil, fmt.Errorf("market_projector: load registry %s: %w", registryID, err)
	}
	regFields, _, ok := moveFields(reg)
	if !ok {
		return nil, fmt.Errorf("market_projector: registry %s: %s: %w", registryID, skipReason(reg), domain.ErrNotFound)
	}

	ids := regFields.idList("markets")
	if len(ids) == 0 {
		return []domain.Market{}, nil
	}

	objs, err := p.reader.MultiGetObjects(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("market_projector: fetch %d markets: %w", len(ids), err)
	}

	markets := make([]domain.Market, 0, len(objs))
	for i, obj := range objs {
		m, ok := projectMarket(obj)
		if !ok {
			id := ""
			if i < len(ids) {
				id = ids[i]
			}
			p.logger.Debug("market_projector: skipping object",
				slog.String("object_id", id),
				slog.String("reason", skipReason(obj)),
			)
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func projectMarket(obj sui.ObjectResponse) (domain.Market, bool) {
	f, objType, ok := moveFields(obj)
	if !ok {
		return domain.Market{}, false
	}
	return domain.Market{
		ID:                   obj.Data.ObjectID,
		Question:             f.str("question"),
		EndTime:              f.millis("end_time_ms"),
		FeeBps:               f.u64("fee_bps"),
		Resolved:             f.boolean("resolved"),
		OutcomeYes:           f.boolean("outcome_yes"),
		YesVault:             f.balance("yes_vault"),
		NoVault:              f.balance("no_vault"),
		TotalYesShares:       f.u64("total_yes_shares"),
		TotalNoShares:        f.u64("total_no_shares"),
		TotalLPShares:        f.u64("total_lp_shares"),
		HasPendingResolution: f.boolean("has_pending"),
		CoinType:             settlementAsset(objType),
	}, true
}

// settlementAsset recovers the generic asset parameter of an object type,
// falling back to the native asset when the type does not parse.
func settlementAsset(objType string) string {
	asset, err := sui.SettlementAsset(objType)
	if err != nil {
		return coin.NativeType
	}
	return asset
}
