package projection

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// Owned object kinds, as module/struct pairs in the protocol package.
const (
	positionModule = "market"
	positionStruct = "Position"
	lpModule       = "market"
	lpStruct       = "LPPosition"
	orderModule    = "orders"
	orderStruct    = "LimitOrder"
)

// PortfolioReconciler gathers everything an identity owns across every
// configured settlement asset.
type PortfolioReconciler struct {
	reader    ObjectReader
	packageID string
	assets    []string
	logger    *slog.Logger
}

// NewPortfolioReconciler creates a PortfolioReconciler for the protocol
// package packageID and the given settlement asset types.
func NewPortfolioReconciler(reader ObjectReader, packageID string, assets []string, logger *slog.Logger) *PortfolioReconciler {
	return &PortfolioReconciler{
		reader:    reader,
		packageID: packageID,
		assets:    assets,
		logger:    logger.With(slog.String("component", "portfolio_reconciler")),
	}
}

type assetHoldings struct {
	positions []domain.Position
	lps       []domain.LPPosition
	orders    []domain.LimitOrder
}

// LoadPortfolio returns the portfolio of owner. An empty owner means "not
// connected" and yields an empty portfolio without any network call.
//
// For each asset the three owned-object kinds are queried concurrently and
// every asset runs concurrently too. A failed query contributes nothing; the
// aggregate is assembled only after every query has settled, in asset order.
// Only the first page of each query is read.
func (r *PortfolioReconciler) LoadPortfolio(ctx context.Context, owner string) (domain.Portfolio, error) {
	out := domain.EmptyPortfolio(owner)
	if owner == "" {
		return out, nil
	}

	holdings := make([]assetHoldings, len(r.assets))
	var g errgroup.Group
	for i, asset := range r.assets {
		h := &holdings[i]
		g.Go(func() error {
			for _, obj := range r.owned(ctx, owner, asset, positionModule, positionStruct) {
				h.positions = append(h.positions, domain.Position{
					ID:       obj.id,
					MarketID: obj.f.id("market_id"),
					Shares:   obj.f.u64("shares"),
					Side:     domain.SideFromBool(obj.f.boolean("side_yes")),
					CoinType: asset,
				})
			}
			return nil
		})
		g.Go(func() error {
			for _, obj := range r.owned(ctx, owner, asset, lpModule, lpStruct) {
				h.lps = append(h.lps, domain.LPPosition{
					ID:       obj.id,
					MarketID: obj.f.id("market_id"),
					Shares:   obj.f.u64("shares"),
					CoinType: asset,
				})
			}
			return nil
		})
		g.Go(func() error {
			for _, obj := range r.owned(ctx, owner, asset, orderModule, orderStruct) {
				h.orders = append(h.orders, domain.LimitOrder{
					ID:              obj.id,
					MarketID:        obj.f.id("market_id"),
					Side:            domain.SideFromBool(obj.f.boolean("side_yes")),
					PriceBps:        obj.f.u64("price_bps"),
					MaxShares:       obj.f.u64("max_shares"),
					RemainingShares: obj.f.u64("remaining_shares"),
					Expiry:          obj.f.millis("expiry_ms"),
					CoinType:        asset,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.Portfolio{}, fmt.Errorf("portfolio_reconciler: load %s: %w", owner, err)
	}

	for _, h := range holdings {
		out.Positions = append(out.Positions, h.positions...)
		out.LPs = append(out.LPs, h.lps...)
		out.Orders = append(out.Orders, h.orders...)
	}
	return out, nil
}

type ownedObject struct {
	id string
	f  fields
}

// owned runs one owned-objects query and returns its usable entries. Errors
// are logged and produce an empty result.
func (r *PortfolioReconciler) owned(ctx context.Context, owner, asset, module, name string) []ownedObject {
	structType := sui.StructType(r.packageID, module, name, asset)
	page, err := r.reader.GetOwnedObjects(ctx, owner, structType)
	if err != nil {
		r.logger.Warn("portfolio_reconciler: owned objects query failed",
			slog.String("owner", owner),
			slog.String("type", structType),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if page.HasNextPage {
		r.logger.Warn("portfolio_reconciler: more owned objects than one page, showing first page only",
			slog.String("owner", owner),
			slog.String("type", structType),
			slog.Int("returned", len(page.Data)),
		)
	}

	objs := make([]ownedObject, 0, len(page.Data))
	for _, obj := range page.Data {
		if obj.Data == nil {
			continue
		}
		f, _, ok := moveFields(obj)
		if !ok {
			// Owned objects are kept with defaulted fields.
			f = fields{}
		}
		objs = append(objs, ownedObject{id: obj.Data.ObjectID, f: f})
	}
	return objs
}
