package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	Markets(ctx context.Context) ([]domain.Market, error)
	Market(ctx context.Context, id string) (domain.Market, error)
}

// AssetFormatter renders smallest-unit amounts of a settlement asset.
type AssetFormatter interface {
	Symbol(typeTag string) string
	FormatWithSymbol(units uint64, typeTag string) string
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	assets  AssetFormatter
	now     func() time.Time
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, assets AssetFormatter, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		assets:  assets,
		now:     time.Now,
		logger:  logHandler(logger, "markets"),
	}
}

// marketView is a market with its implied prices, lifecycle state and
// vault balances formatted in the settlement asset.
type marketView struct {
	domain.Market
	YesBps       uint64       `json:"yes_bps"`
	NoBps        uint64       `json:"no_bps"`
	Ended        bool         `json:"ended"`
	Winner       *domain.Side `json:"winner,omitempty"`
	Asset        string       `json:"asset"`
	YesLiquidity string       `json:"yes_liquidity"`
	NoLiquidity  string       `json:"no_liquidity"`
}

func (h *MarketHandler) viewOf(m domain.Market, now time.Time) marketView {
	v := marketView{
		Market:       m,
		YesBps:       m.YesPriceBps(),
		NoBps:        m.NoPriceBps(),
		Ended:        m.Ended(now),
		Asset:        h.assets.Symbol(m.CoinType),
		YesLiquidity: h.assets.FormatWithSymbol(m.YesVault, m.CoinType),
		NoLiquidity:  h.assets.FormatWithSymbol(m.NoVault, m.CoinType),
	}
	if side, ok := m.Winner(); ok {
		v.Winner = &side
	}
	return v
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []marketView `json:"markets"`
	Total   int          `json:"total"`
}

// ListMarkets returns the registry's markets in registry order.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.markets.Markets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), "failed to list markets")
		return
	}

	now := h.now()
	views := make([]marketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, h.viewOf(m, now))
	}
	writeJSON(w, http.StatusOK, listMarketsResponse{Markets: views, Total: len(views)})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.markets.Market(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, h.viewOf(market, h.now()))
}
