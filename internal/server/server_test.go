package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebikillmachin/SUI/internal/cache/memory"
	"github.com/sebikillmachin/SUI/internal/coin"
	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/server/handler"
	"github.com/sebikillmachin/SUI/internal/service"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

type loader struct{}

func (loader) LoadMarkets(context.Context, string) ([]domain.Market, error) {
	return []domain.Market{{ID: "0x" + strings.Repeat("0", 63) + "a", CoinType: coin.NativeType}}, nil
}

func (loader) LoadPortfolio(_ context.Context, owner string) (domain.Portfolio, error) {
	return domain.EmptyPortfolio(owner), nil
}

type executor struct{}

func (executor) Execute(context.Context, string, string, *txbuilder.Transaction) (service.Submission, error) {
	return service.Submission{Digest: "Dg"}, nil
}

func routes(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := memory.NewQueryCache()
	markets := service.NewMarketService(loader{}, cache, "0xreg", time.Minute, logger)
	portfolios := service.NewPortfolioService(loader{}, cache, time.Minute, logger)
	registry := coin.NewRegistry(nil)
	builder := txbuilder.New(txbuilder.ProtocolIDs{PackageID: "0xfeed", ConfigID: "0xc0", ClockID: "0x6"})
	intents := service.NewIntentService(builder, markets, registry)

	return Routes(cfg, Handlers{
		Health:     handler.NewHealthHandler(nil, logger),
		Markets:    handler.NewMarketHandler(markets, registry, logger),
		Portfolios: handler.NewPortfolioHandler(portfolios, logger),
		Tokens:     handler.NewTokenHandler(registry),
		Tx:         handler.NewTxHandler(intents, executor{}, logger),
	}, nil, memory.NewRateLimiter(), logger)
}

func do(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	h := routes(t, Config{})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/markets", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/markets/0xa", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/portfolio/0xb0b", "", nil).Code)

	rec := do(h, http.MethodGet, "/api/tokens", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), coin.NativeType)

	rec = do(h, http.MethodPost, "/api/tx/buy", `{"market_id":"0xa","side":"yes","amount":"0.25"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"function":"entry_buy_yes"`)

	rec = do(h, http.MethodPost, "/api/tx/buy", `{"market_id":"0xa","side":"yes","amount":"0"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteIsRateLimited(t *testing.T) {
	h := routes(t, Config{ExecuteLimit: 1, ExecuteWindow: time.Minute})
	body := `{"market_id":"0xa","owner":"0xb0b","position_id":"0x9"}`

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/tx/redeem/execute", body, nil).Code)
	rec := do(h, http.MethodPost, "/api/tx/redeem/execute", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	other := map[string]string{"X-Forwarded-For": "10.0.0.9"}
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/tx/redeem/execute", body, other).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/tx/buy", `{"market_id":"0xa","side":"no","amount":"1"}`, nil).Code,
		"building is not limited")
}

func TestAuthAndCORS(t *testing.T) {
	h := routes(t, Config{APIKey: "s3cret", CORSOrigins: []string{"https://app.example"}})

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/markets", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/markets", "", map[string]string{"Authorization": "Bearer s3cret"}).Code)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/markets", "", map[string]string{"X-API-Key": "s3cret"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/markets", "", map[string]string{"X-API-Key": "nope"}).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/health", "", nil).Code, "health is public")

	rec := do(h, http.MethodOptions, "/api/markets", "", map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(h, http.MethodGet, "/api/health", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
