// Package txbuilder assembles one programmable transaction per protocol
// action. Builders never submit; argument order, arity and encodings follow
// the protocol's entry functions exactly.
package txbuilder

import (
	"fmt"
	"math"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// Protocol modules.
const (
	ModuleMarket     = "market"
	ModuleOrders     = "orders"
	ModuleResolution = "resolution"
)

// ProtocolIDs are the static object ids every builder needs.
type ProtocolIDs struct {
	PackageID  string
	ConfigID   string
	ClockID    string
	AdminCapID string // optional; finalize is unavailable without it
}

// Builder builds transactions against one protocol deployment.
type Builder struct {
	ids ProtocolIDs
}

// New creates a Builder.
func New(ids ProtocolIDs) *Builder {
	return &Builder{ids: ids}
}

// HasAdminCap reports whether admin-only actions can be built.
func (b *Builder) HasAdminCap() bool { return b.ids.AdminCapID != "" }

// positive checks an amount the action cannot do without.
func positive(name string, v int64) (uint64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("txbuilder: %s must be positive, got %d: %w", name, v, domain.ErrInvalidAmount)
	}
	return uint64(v), nil
}

// nonNegative checks a floor such as a slippage minimum, where zero is valid.
func nonNegative(name string, v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("txbuilder: %s must not be negative, got %d: %w", name, v, domain.ErrInvalidAmount)
	}
	return uint64(v), nil
}

func (b *Builder) call(tx *Transaction, module, function, coinType string, args ...Argument) *Transaction {
	tx.MoveCall(b.ids.PackageID, module, function, []string{coinType}, args...)
	return tx
}

// Buy buys outcome shares with amount units of the settlement asset.
//
//	market::entry_buy_{yes,no}(config, market, clock, payment, min_shares)
func (b *Builder) Buy(marketID, coinType string, side domain.Side, amount, minShares int64) (*Transaction, error) {
	amt, err := positive("amount", amount)
	if err != nil {
		return nil, err
	}
	minOut, err := nonNegative("min shares", minShares)
	if err != nil {
		return nil, err
	}
	fn := "entry_buy_no"
	if side.IsYes() {
		fn = "entry_buy_yes"
	}
	tx := NewTransaction()
	pay := tx.SplitGas(amt)
	return b.call(tx, ModuleMarket, fn, coinType,
		tx.Object(b.ids.ConfigID), tx.Object(marketID), tx.Object(b.ids.ClockID), pay, tx.U64(minOut)), nil
}

// BuyYes is Buy on the yes side.
func (b *Builder) BuyYes(marketID, coinType string, amount, minShares int64) (*Transaction, error) {
	return b.Buy(marketID, coinType, domain.SideYes, amount, minShares)
}

// BuyNo is Buy on the no side.
func (b *Builder) BuyNo(marketID, coinType string, amount, minShares int64) (*Transaction, error) {
	return b.Buy(marketID, coinType, domain.SideNo, amount, minShares)
}

// Sell sells a whole position back to the pool.
//
//	market::entry_sell_{yes,no}(config, market, clock, position, min_out)
func (b *Builder) Sell(marketID, coinType string, side domain.Side, positionID string, minOut int64) (*Transaction, error) {
	floor, err := nonNegative("min out", minOut)
	if err != nil {
		return nil, err
	}
	fn := "entry_sell_no"
	if side.IsYes() {
		fn = "entry_sell_yes"
	}
	tx := NewTransaction()
	return b.call(tx, ModuleMarket, fn, coinType,
		tx.Object(b.ids.ConfigID), tx.Object(marketID), tx.Object(b.ids.ClockID), tx.Object(positionID), tx.U64(floor)), nil
}

// SellYes is Sell of a yes position.
func (b *Builder) SellYes(marketID, coinType, positionID string, minOut int64) (*Transaction, error) {
	return b.Sell(marketID, coinType, domain.SideYes, positionID, minOut)
}

// SellNo is Sell of a no position.
func (b *Builder) SellNo(marketID, coinType, positionID string, minOut int64) (*Transaction, error) {
	return b.Sell(marketID, coinType, domain.SideNo, positionID, minOut)
}

// AddLiquidity deposits amount units split evenly across both vaults.
//
//	market::entry_add_liquidity_balanced(config, market, clock, payment, min_lp)
func (b *Builder) AddLiquidity(marketID, coinType string, amount, minLP int64) (*Transaction, error) {
	amt, err := positive("amount", amount)
	if err != nil {
		return nil, err
	}
	floor, err := nonNegative("min lp", minLP)
	if err != nil {
		return nil, err
	}
	tx := NewTransaction()
	dep := tx.SplitGas(amt)
	return b.call(tx, ModuleMarket, "entry_add_liquidity_balanced", coinType,
		tx.Object(b.ids.ConfigID), tx.Object(marketID), tx.Object(b.ids.ClockID), dep, tx.U64(floor)), nil
}

// RemoveLiquidity burns an LP position.
//
//	market::entry_remove_liquidity(market, lp)
func (b *Builder) RemoveLiquidity(marketID, lpID, coinType string) *Transaction {
	tx := NewTransaction()
	return b.call(tx, ModuleMarket, "entry_remove_liquidity", coinType, tx.Object(marketID), tx.Object(lpID))
}

// Redeem pays out a position of a resolved market.
//
//	market::entry_redeem(market, position)
func (b *Builder) Redeem(marketID, positionID, coinType string) *Transaction {
	tx := NewTransaction()
	return b.call(tx, ModuleMarket, "entry_redeem", coinType, tx.Object(marketID), tx.Object(positionID))
}

// ClosePosition redeems pos on a resolved market and sells it otherwise.
func (b *Builder) ClosePosition(m domain.Market, pos domain.Position, minOut int64) (*Transaction, error) {
	if m.Resolved {
		return b.Redeem(m.ID, pos.ID, m.CoinType), nil
	}
	return b.Sell(m.ID, m.CoinType, pos.Side, pos.ID, minOut)
}

// OrderIntent describes a resting limit order.
type OrderIntent struct {
	Side      domain.Side
	PriceBps  int64
	MaxShares int64
	// ExpiryMs is the absolute expiry in Unix milliseconds.
	ExpiryMs int64
	// Amount is the escrow in smallest units.
	Amount int64
}

// CreateOrder places a limit order, escrowing Amount units.
//
//	orders::entry_create_order(config, market, clock, side_yes, price_bps, max_shares, expiry_ms, payment)
func (b *Builder) CreateOrder(marketID, coinType string, o OrderIntent) (*Transaction, error) {
	amt, err := positive("amount", o.Amount)
	if err != nil {
		return nil, err
	}
	maxShares, err := positive("max shares", o.MaxShares)
	if err != nil {
		return nil, err
	}
	price, err := nonNegative("price", o.PriceBps)
	if err != nil {
		return nil, err
	}
	expiry, err := nonNegative("expiry", o.ExpiryMs)
	if err != nil {
		return nil, err
	}
	tx := NewTransaction()
	pay := tx.SplitGas(amt)
	return b.call(tx, ModuleOrders, "entry_create_order", coinType,
		tx.Object(b.ids.ConfigID),
		tx.Object(marketID),
		tx.Object(b.ids.ClockID),
		tx.Bool(o.Side.IsYes()),
		tx.U64(price),
		tx.U64(maxShares),
		tx.U64(expiry),
		pay,
	), nil
}

// CancelOrder cancels an order and refunds its remaining escrow.
//
//	orders::entry_cancel_order(market, order)
func (b *Builder) CancelOrder(marketID, orderID, coinType string) *Transaction {
	tx := NewTransaction()
	return b.call(tx, ModuleOrders, "entry_cancel_order", coinType, tx.Object(marketID), tx.Object(orderID))
}

// FillOrder sells shares from sellerPositionID into a resting order.
//
//	orders::entry_fill_order(config, clock, market, order, seller_position, shares)
func (b *Builder) FillOrder(marketID, coinType, orderID, sellerPositionID string, shares int64) (*Transaction, error) {
	n, err := positive("shares", shares)
	if err != nil {
		return nil, err
	}
	tx := NewTransaction()
	return b.call(tx, ModuleOrders, "entry_fill_order", coinType,
		tx.Object(b.ids.ConfigID),
		tx.Object(b.ids.ClockID),
		tx.Object(marketID),
		tx.Object(orderID),
		tx.Object(sellerPositionID),
		tx.U64(n),
	), nil
}

func (b *Builder) bonded(function, marketID, coinType string, outcomeYes bool, bond int64) (*Transaction, error) {
	amt, err := positive("bond", bond)
	if err != nil {
		return nil, err
	}
	tx := NewTransaction()
	pay := tx.SplitGas(amt)
	return b.call(tx, ModuleResolution, function, coinType,
		tx.Object(b.ids.ConfigID), tx.Object(marketID), tx.Object(b.ids.ClockID), pay, tx.Bool(outcomeYes)), nil
}

// Propose proposes an outcome, escrowing bond units.
//
//	resolution::entry_propose_result(config, market, clock, bond, outcome_yes)
func (b *Builder) Propose(marketID, coinType string, outcomeYes bool, bond int64) (*Transaction, error) {
	return b.bonded("entry_propose_result", marketID, coinType, outcomeYes, bond)
}

// Challenge disputes a pending proposal with the opposing outcome.
//
//	resolution::entry_challenge_result(config, market, clock, bond, outcome_yes)
func (b *Builder) Challenge(marketID, coinType string, outcomeYes bool, bond int64) (*Transaction, error) {
	return b.bonded("entry_challenge_result", marketID, coinType, outcomeYes, bond)
}

// Finalize settles a market. priceUpdateHex is an optional price
// attestation; an empty value is sent as an empty vector.
//
//	resolution::entry_finalize_result(admin_cap, config, market, outcome_yes, price_update)
func (b *Builder) Finalize(marketID, coinType string, outcomeYes bool, priceUpdateHex string) (*Transaction, error) {
	if !b.HasAdminCap() {
		return nil, fmt.Errorf("txbuilder: finalize %s: %w", marketID, domain.ErrAdminCapMissing)
	}
	update, err := DecodeHexPayload(priceUpdateHex)
	if err != nil {
		return nil, err
	}
	tx := NewTransaction()
	return b.call(tx, ModuleResolution, "entry_finalize_result", coinType,
		tx.Object(b.ids.AdminCapID),
		tx.Object(b.ids.ConfigID),
		tx.Object(marketID),
		tx.Bool(outcomeYes),
		tx.Bytes(update),
	), nil
}

// ExpiryFromNow returns now plus hours as Unix milliseconds, the duration
// rounded to the nearest millisecond.
func ExpiryFromNow(now time.Time, hours float64) int64 {
	return now.UnixMilli() + int64(math.Round(hours*float64(time.Hour/time.Millisecond)))
}
