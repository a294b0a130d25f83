package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sebikillmachin/SUI/internal/coin"
	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

// Action names a protocol action.
type Action string

const (
	ActionBuy             Action = "buy"
	ActionSell            Action = "sell"
	ActionAddLiquidity    Action = "add_liquidity"
	ActionRemoveLiquidity Action = "remove_liquidity"
	ActionRedeem          Action = "redeem"
	ActionClose           Action = "close"
	ActionCreateOrder     Action = "create_order"
	ActionCancelOrder     Action = "cancel_order"
	ActionFillOrder       Action = "fill_order"
	ActionPropose         Action = "propose"
	ActionChallenge       Action = "challenge"
	ActionFinalize        Action = "finalize"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionBuy, ActionSell, ActionAddLiquidity, ActionRemoveLiquidity, ActionRedeem, ActionClose,
	ActionCreateOrder, ActionCancelOrder, ActionFillOrder, ActionPropose, ActionChallenge, ActionFinalize,
}

// blockedWhenResolved are the actions a resolved market no longer accepts.
var blockedWhenResolved = map[Action]bool{
	ActionBuy:          true,
	ActionSell:         true,
	ActionAddLiquidity: true,
	ActionCreateOrder:  true,
	ActionFillOrder:    true,
	ActionPropose:      true,
	ActionChallenge:    true,
	ActionFinalize:     true,
}

// Intent is a user's request in display terms. Amount is in display units of
// the market's settlement asset and is converted with the asset's decimals;
// share counts, prices and slippage floors are raw integers.
type Intent struct {
	MarketID       string      `json:"market_id"`
	Owner          string      `json:"owner,omitempty"`
	Side           domain.Side `json:"side,omitempty"`
	Amount         string      `json:"amount,omitempty"`
	MinOut         int64       `json:"min_out,omitempty"`
	PositionID     string      `json:"position_id,omitempty"`
	LPID           string      `json:"lp_id,omitempty"`
	OrderID        string      `json:"order_id,omitempty"`
	PriceBps       int64       `json:"price_bps,omitempty"`
	MaxShares      int64       `json:"max_shares,omitempty"`
	ExpiryHours    float64     `json:"expiry_hours,omitempty"`
	Shares         int64       `json:"shares,omitempty"`
	OutcomeYes     bool        `json:"outcome_yes,omitempty"`
	PriceUpdateHex string      `json:"price_update_hex,omitempty"`
}

// MarketLookup resolves a market snapshot by id.
type MarketLookup interface {
	Market(ctx context.Context, id string) (domain.Market, error)
}

// IntentService turns intents into transactions against the current market
// snapshot. Its resolved-market check is advisory; the ledger decides.
type IntentService struct {
	builder  *txbuilder.Builder
	markets  MarketLookup
	registry *coin.Registry
	now      func() time.Time
}

// NewIntentService creates an IntentService.
func NewIntentService(builder *txbuilder.Builder, markets MarketLookup, registry *coin.Registry) *IntentService {
	return &IntentService{builder: builder, markets: markets, registry: registry, now: time.Now}
}

// Build assembles the transaction for action. The sender is set to the
// intent's owner when given.
func (s *IntentService) Build(ctx context.Context, action Action, in Intent) (*txbuilder.Transaction, error) {
	if in.MarketID == "" {
		return nil, fmt.Errorf("intent: %s: market_id is required: %w", action, domain.ErrInvalidIntent)
	}
	m, err := s.markets.Market(ctx, in.MarketID)
	if err != nil {
		return nil, fmt.Errorf("intent: %s: %w", action, err)
	}
	if m.Resolved && blockedWhenResolved[action] {
		return nil, fmt.Errorf("intent: %s on %s: %w", action, m.ID, domain.ErrMarketResolved)
	}
	if m.CoinType != "" && !s.registry.Known(m.CoinType) {
		return nil, fmt.Errorf("intent: %s on %s: settlement asset %s is not configured: %w",
			action, m.ID, m.CoinType, domain.ErrInvalidIntent)
	}

	tx, err := s.build(action, m, in)
	if err != nil {
		return nil, fmt.Errorf("intent: %s: %w", action, err)
	}
	if in.Owner != "" {
		tx.Sender = normalizeID(in.Owner)
	}
	return tx, nil
}

func (s *IntentService) build(action Action, m domain.Market, in Intent) (*txbuilder.Transaction, error) {
	b := s.builder
	switch action {
	case ActionBuy:
		side, err := requireSide(in.Side)
		if err != nil {
			return nil, err
		}
		amount, err := s.units(in.Amount, m.CoinType)
		if err != nil {
			return nil, err
		}
		return b.Buy(m.ID, m.CoinType, side, amount, in.MinOut)

	case ActionSell:
		side, err := requireSide(in.Side)
		if err != nil {
			return nil, err
		}
		if err := requireID("position_id", in.PositionID); err != nil {
			return nil, err
		}
		return b.Sell(m.ID, m.CoinType, side, in.PositionID, in.MinOut)

	case ActionClose:
		side, err := requireSide(in.Side)
		if err != nil {
			return nil, err
		}
		if err := requireID("position_id", in.PositionID); err != nil {
			return nil, err
		}
		return b.ClosePosition(m, domain.Position{ID: in.PositionID, MarketID: m.ID, Side: side, CoinType: m.CoinType}, in.MinOut)

	case ActionAddLiquidity:
		amount, err := s.units(in.Amount, m.CoinType)
		if err != nil {
			return nil, err
		}
		return b.AddLiquidity(m.ID, m.CoinType, amount, in.MinOut)

	case ActionRemoveLiquidity:
		if err := requireID("lp_id", in.LPID); err != nil {
			return nil, err
		}
		return b.RemoveLiquidity(m.ID, in.LPID, m.CoinType), nil

	case ActionRedeem:
		if err := requireID("position_id", in.PositionID); err != nil {
			return nil, err
		}
		return b.Redeem(m.ID, in.PositionID, m.CoinType), nil

	case ActionCreateOrder:
		side, err := requireSide(in.Side)
		if err != nil {
			return nil, err
		}
		amount, err := s.units(in.Amount, m.CoinType)
		if err != nil {
			return nil, err
		}
		return b.CreateOrder(m.ID, m.CoinType, txbuilder.OrderIntent{
			Side:      side,
			PriceBps:  in.PriceBps,
			MaxShares: in.MaxShares,
			ExpiryMs:  txbuilder.ExpiryFromNow(s.now(), in.ExpiryHours),
			Amount:    amount,
		})

	case ActionCancelOrder:
		if err := requireID("order_id", in.OrderID); err != nil {
			return nil, err
		}
		return b.CancelOrder(m.ID, in.OrderID, m.CoinType), nil

	case ActionFillOrder:
		if err := requireID("order_id", in.OrderID); err != nil {
			return nil, err
		}
		if err := requireID("position_id", in.PositionID); err != nil {
			return nil, err
		}
		return b.FillOrder(m.ID, m.CoinType, in.OrderID, in.PositionID, in.Shares)

	case ActionPropose, ActionChallenge:
		bond, err := s.units(in.Amount, m.CoinType)
		if err != nil {
			return nil, err
		}
		if action == ActionPropose {
			return b.Propose(m.ID, m.CoinType, in.OutcomeYes, bond)
		}
		return b.Challenge(m.ID, m.CoinType, in.OutcomeYes, bond)

	case ActionFinalize:
		return b.Finalize(m.ID, m.CoinType, in.OutcomeYes, in.PriceUpdateHex)

	default:
		return nil, fmt.Errorf("unknown action %q: %w", action, domain.ErrNotFound)
	}
}

// units converts a positive display amount to smallest units of coinType.
// An amount that truncates to zero is passed on so the builder can reject it.
func (s *IntentService) units(amount, coinType string) (int64, error) {
	d, err := coin.ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	u, err := coin.PositiveSmallestUnit(d, s.registry.Decimals(coinType))
	if err != nil {
		return 0, err
	}
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("amount %s exceeds the largest payment: %w", amount, domain.ErrInvalidAmount)
	}
	return int64(u), nil
}

func requireSide(s domain.Side) (domain.Side, error) {
	switch s {
	case domain.SideYes, domain.SideNo:
		return s, nil
	default:
		return "", fmt.Errorf("side must be %q or %q, got %q: %w", domain.SideYes, domain.SideNo, s, domain.ErrInvalidIntent)
	}
}

func requireID(name, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required: %w", name, domain.ErrInvalidIntent)
	}
	return nil
}
