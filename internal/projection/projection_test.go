package projection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebikillmachin/SUI/internal/coin"
	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

type fakeReader struct {
	mu      sync.Mutex
	objects map[string]sui.ObjectResponse
	owned   map[string]sui.OwnedObjectsPage // keyed by struct type
	failing map[string]error                // keyed by struct type
	calls   []string
}

func (f *fakeReader) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeReader) GetObject(_ context.Context, id string) (sui.ObjectResponse, error) {
	f.record("get:" + id)
	obj, ok := f.objects[id]
	if !ok {
		return sui.ObjectResponse{Error: &sui.ObjectError{Code: "notExists"}}, nil
	}
	return obj, nil
}

func (f *fakeReader) MultiGetObjects(_ context.Context, ids []string) ([]sui.ObjectResponse, error) {
	f.record("multi:" + strings.Join(ids, ","))
	out := make([]sui.ObjectResponse, len(ids))
	for i, id := range ids {
		if obj, ok := f.objects[id]; ok {
			out[i] = obj
		} else {
			out[i] = sui.ObjectResponse{Error: &sui.ObjectError{Code: "notExists", ObjectID: id}}
		}
	}
	return out, nil
}

func (f *fakeReader) GetOwnedObjects(_ context.Context, owner, structType string) (sui.OwnedObjectsPage, error) {
	f.record("owned:" + owner + ":" + structType)
	if err := f.failing[structType]; err != nil {
		return sui.OwnedObjectsPage{}, err
	}
	return f.owned[structType], nil
}

func moveObject(id, typ, fieldsJSON string) sui.ObjectResponse {
	return sui.ObjectResponse{Data: &sui.ObjectData{
		ObjectID: id,
		Type:     typ,
		Content: &sui.MoveContent{
			DataType: sui.DataTypeMoveObject,
			Type:     typ,
			Fields:   json.RawMessage(fieldsJSON),
		},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const marketType = "0xfeed::market::Market<0x2::sui::SUI>"

func TestLoadMarketsDropsMalformedAndKeepsOrder(t *testing.T) {
	reader := &fakeReader{objects: map[string]sui.ObjectResponse{
		"0xreg": moveObject("0xreg", "0xfeed::registry::Registry", `{"markets":["0xa","0xb","0xc"]}`),
		"0xa": moveObject("0xa", marketType, `{
			"question":"A?","end_time_ms":"1700000000000","fee_bps":"30",
			"resolved":false,"outcome_yes":false,
			"yes_vault":{"type":"0x2::balance::Balance<0x2::sui::SUI>","fields":{"value":"600"}},
			"no_vault":{"value":"400"},
			"total_yes_shares":"10","total_no_shares":"20","total_lp_shares":"1000",
			"has_pending":true}`),
		"0xb": {Data: &sui.ObjectData{ObjectID: "0xb", Content: &sui.MoveContent{DataType: "package"}}},
		"0xc": moveObject("0xc", "0xfeed::market::Market<0xbeef::usdc::USDC>", `{"question":"C?","resolved":true,"outcome_yes":true}`),
	}}
	p := NewMarketProjector(reader, discardLogger())

	markets, err := p.LoadMarkets(context.Background(), "0xreg")
	require.NoError(t, err)
	require.Len(t, markets, 2)

	a := markets[0]
	assert.Equal(t, "0xa", a.ID)
	assert.Equal(t, "A?", a.Question)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), a.EndTime)
	assert.Equal(t, uint64(30), a.FeeBps)
	assert.Equal(t, uint64(600), a.YesVault)
	assert.Equal(t, uint64(400), a.NoVault)
	assert.Equal(t, uint64(10), a.TotalYesShares)
	assert.Equal(t, uint64(20), a.TotalNoShares)
	assert.Equal(t, uint64(1000), a.TotalLPShares)
	assert.True(t, a.HasPendingResolution)
	assert.Equal(t, "0x2::sui::SUI", a.CoinType)
	assert.Equal(t, uint64(6000), a.YesPriceBps())

	c := markets[1]
	assert.Equal(t, "0xc", c.ID)
	assert.Equal(t, "0xbeef::usdc::USDC", c.CoinType)
	assert.True(t, c.Resolved)
	assert.True(t, c.OutcomeYes)
	assert.Zero(t, c.YesVault)
	assert.True(t, c.EndTime.IsZero())
	assert.Equal(t, uint64(5000), c.YesPriceBps())
}

func TestLoadMarketsEmptyRegistry(t *testing.T) {
	reader := &fakeReader{objects: map[string]sui.ObjectResponse{
		"0xreg": moveObject("0xreg", "0xfeed::registry::Registry", `{"markets":[]}`),
	}}
	markets, err := NewMarketProjector(reader, discardLogger()).LoadMarkets(context.Background(), "0xreg")
	require.NoError(t, err)
	assert.NotNil(t, markets)
	assert.Empty(t, markets)
	assert.Equal(t, []string{"get:0xreg"}, reader.calls)
}

func TestLoadMarketsMissingRegistry(t *testing.T) {
	reader := &fakeReader{objects: map[string]sui.ObjectResponse{}}
	_, err := NewMarketProjector(reader, discardLogger()).LoadMarkets(context.Background(), "0xreg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettlementAssetFallsBackToNative(t *testing.T) {
	assert.Equal(t, coin.NativeType, settlementAsset("0xfeed::market::Market"))
	assert.Equal(t, coin.NativeType, settlementAsset("garbage<"))
	assert.Equal(t, "0xbeef::usdc::USDC", settlementAsset("0xfeed::market::Market<0xbeef::usdc::USDC>"))
}

func TestLoadPortfolioWithoutOwnerMakesNoCalls(t *testing.T) {
	reader := &fakeReader{}
	r := NewPortfolioReconciler(reader, "0xfeed", []string{coin.NativeType}, discardLogger())

	pf, err := r.LoadPortfolio(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, reader.calls)
	assert.NotNil(t, pf.Positions)
	assert.NotNil(t, pf.LPs)
	assert.NotNil(t, pf.Orders)
	assert.Empty(t, pf.Positions)
	assert.Empty(t, pf.LPs)
	assert.Empty(t, pf.Orders)
}

func page(objs ...sui.ObjectResponse) sui.OwnedObjectsPage {
	return sui.OwnedObjectsPage{Data: objs}
}

func TestLoadPortfolioAcrossAssets(t *testing.T) {
	const usdc = "0xbeef::usdc::USDC"
	reader := &fakeReader{
		owned: map[string]sui.OwnedObjectsPage{
			"0xfeed::market::Position<0x2::sui::SUI>": page(
				moveObject("0xp1", "", `{"market_id":"0xa","shares":"15","side_yes":true}`),
				moveObject("0xp2", "", `{"market_id":{"id":"0xa"},"shares":"bad","side_yes":false}`),
			),
			"0xfeed::market::LPPosition<0x2::sui::SUI>": page(
				moveObject("0xlp", "", `{"market_id":"0xa","shares":"1000"}`),
			),
			"0xfeed::orders::LimitOrder<0xbeef::usdc::USDC>": page(
				moveObject("0xo1", "", `{"market_id":"0xc","side_yes":true,"price_bps":"6000",
					"max_shares":"10","remaining_shares":"4","expiry_ms":"1700000000000"}`),
			),
			"0xfeed::market::Position<0xbeef::usdc::USDC>": page(
				moveObject("0xp3", "", `{"market_id":"0xc","shares":"2","side_yes":false}`),
			),
		},
		failing: map[string]error{
			"0xfeed::market::LPPosition<0xbeef::usdc::USDC>": errors.New("node unavailable"),
		},
	}
	r := NewPortfolioReconciler(reader, "0xfeed", []string{coin.NativeType, usdc}, discardLogger())

	pf, err := r.LoadPortfolio(context.Background(), "0xuser")
	require.NoError(t, err)
	assert.Equal(t, "0xuser", pf.Owner)
	assert.Len(t, reader.calls, 6)

	require.Len(t, pf.Positions, 3)
	assert.Equal(t, domain.Position{ID: "0xp1", MarketID: "0xa", Shares: 15, Side: domain.SideYes, CoinType: coin.NativeType}, pf.Positions[0])
	assert.Equal(t, domain.Position{ID: "0xp2", MarketID: "0xa", Shares: 0, Side: domain.SideNo, CoinType: coin.NativeType}, pf.Positions[1])
	assert.Equal(t, domain.Position{ID: "0xp3", MarketID: "0xc", Shares: 2, Side: domain.SideNo, CoinType: usdc}, pf.Positions[2])

	require.Len(t, pf.LPs, 1)
	assert.Equal(t, uint64(1000), pf.LPs[0].Shares)

	require.Len(t, pf.Orders, 1)
	o := pf.Orders[0]
	assert.Equal(t, domain.SideYes, o.Side)
	assert.Equal(t, uint64(6000), o.PriceBps)
	assert.Equal(t, uint64(10), o.MaxShares)
	assert.Equal(t, uint64(4), o.RemainingShares)
	assert.Equal(t, uint64(6), o.FilledShares())
	assert.Equal(t, usdc, o.CoinType)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), o.Expiry)
}

func TestLoadPortfolioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewPortfolioReconciler(&fakeReader{}, "0xfeed", []string{coin.NativeType}, discardLogger())
	_, err := r.LoadPortfolio(ctx, "0xuser")
	assert.ErrorIs(t, err, context.Canceled)
}
