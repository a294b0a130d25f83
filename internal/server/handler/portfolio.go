package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// PortfolioService defines what the portfolio handler needs.
type PortfolioService interface {
	Portfolio(ctx context.Context, owner string) (domain.Portfolio, error)
}

// PortfolioHandler serves per-identity holdings.
type PortfolioHandler struct {
	portfolios PortfolioService
	now        func() time.Time
	logger     *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(portfolios PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, now: time.Now, logger: logHandler(logger, "portfolio")}
}

// portfolioView replaces the raw orders with their open, expired and filled
// state.
type portfolioView struct {
	domain.Portfolio
	Orders []domain.OrderView `json:"orders"`
}

// GetPortfolio returns the positions, LP positions and orders owned by an
// address, optionally narrowed to one market.
// GET /api/portfolio/{owner}?market_id=0x...
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	owner := pathParam(r, "owner")
	if !sui.IsAddress(owner) {
		writeError(w, http.StatusBadRequest, "owner must be a hex address")
		return
	}

	p, err := h.portfolios.Portfolio(r.Context(), owner)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get portfolio failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), "failed to load portfolio")
		return
	}

	if marketID := r.URL.Query().Get("market_id"); marketID != "" {
		if n, err := sui.NormalizeAddress(marketID); err == nil {
			marketID = n
		}
		p = p.ForMarket(marketID)
	}
	writeJSON(w, http.StatusOK, portfolioView{Portfolio: p, Orders: domain.OrderViews(p.Orders, h.now())})
}
