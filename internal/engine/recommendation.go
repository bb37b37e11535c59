package engine

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Kind is the stable tag of a Recommendation.
type Kind string

const (
	KindHold               Kind = "hold"
	KindMonitorOnly        Kind = "monitor_only"
	KindSellFuelToTopOrder Kind = "sell_fuel_to_top_order"
	KindSellFuelCritical   Kind = "sell_fuel_critical"
	KindWaitForBetterPrice Kind = "wait_for_better_price"
	KindWaitNoBuyOrders    Kind = "wait_no_buy_orders"
	KindWaitNoMarketData   Kind = "wait_no_market_data"
	KindPowerUp            Kind = "power_up"
	KindNoPowerUp          Kind = "no_power_up"
	KindTradeableSellable  Kind = "tradeable_sellable"
)

// Recommendation is the closed set of decisions the engine emits. Only the
// types in this file implement it.
type Recommendation interface {
	Kind() Kind
	recommendation()
}

// Hold means liquidity is healthy and nothing needs to move.
type Hold struct{}

// MonitorOnly means liquidity is below target but no sale should happen
// this cycle.
type MonitorOnly struct {
	Reason string `json:"reason"`
}

// SellFuelToTopOrder sells fuel into the single best bid.
type SellFuelToTopOrder struct {
	Amount           decimal.Decimal `json:"amount"`
	Price            decimal.Decimal `json:"price"`
	ExpectedProceeds decimal.Decimal `json:"expected_proceeds"`
	Counterparty     string          `json:"counterparty,omitempty"`
	Shortfall        bool            `json:"shortfall"`
}

// SellFuelCritical sells fuel into the best bid even though it is below the
// minimum fuel price, because liquidity is critical.
type SellFuelCritical struct {
	Amount           decimal.Decimal `json:"amount"`
	Price            decimal.Decimal `json:"price"`
	ExpectedProceeds decimal.Decimal `json:"expected_proceeds"`
	Counterparty     string          `json:"counterparty,omitempty"`
	Shortfall        bool            `json:"shortfall"`
}

// WaitForBetterPrice means the best bid is below the minimum fuel price.
type WaitForBetterPrice struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	MinPrice     decimal.Decimal `json:"min_price"`
}

// WaitNoBuyOrders means the fuel bid book is empty.
type WaitNoBuyOrders struct{}

// WaitNoMarketData means no bid price was available for fuel.
type WaitNoMarketData struct{}

// PowerUp commits surplus liquidity to the reserve.
type PowerUp struct {
	Amount decimal.Decimal `json:"amount"`
	Tier   int             `json:"tier"`
}

// Stance names the tier.
func (p PowerUp) Stance() string {
	switch p.Tier {
	case 3:
		return "aggressive"
	case 2:
		return "moderate"
	default:
		return "conservative"
	}
}

// NoPowerUp means surplus is not large enough for the first tier.
type NoPowerUp struct {
	Shortfall decimal.Decimal `json:"shortfall"`
	Reason    string          `json:"reason"`
}

// TradeableSellable marks a tradeable holding the book can absorb.
type TradeableSellable struct {
	Symbol           string          `json:"symbol"`
	Amount           decimal.Decimal `json:"amount"`
	ExpectedProceeds decimal.Decimal `json:"expected_proceeds"`
}

func (Hold) Kind() Kind               { return KindHold }
func (MonitorOnly) Kind() Kind        { return KindMonitorOnly }
func (SellFuelToTopOrder) Kind() Kind { return KindSellFuelToTopOrder }
func (SellFuelCritical) Kind() Kind   { return KindSellFuelCritical }
func (WaitForBetterPrice) Kind() Kind { return KindWaitForBetterPrice }
func (WaitNoBuyOrders) Kind() Kind    { return KindWaitNoBuyOrders }
func (WaitNoMarketData) Kind() Kind   { return KindWaitNoMarketData }
func (PowerUp) Kind() Kind            { return KindPowerUp }
func (NoPowerUp) Kind() Kind          { return KindNoPowerUp }
func (TradeableSellable) Kind() Kind  { return KindTradeableSellable }

func (Hold) recommendation()               {}
func (MonitorOnly) recommendation()        {}
func (SellFuelToTopOrder) recommendation() {}
func (SellFuelCritical) recommendation()   {}
func (WaitForBetterPrice) recommendation() {}
func (WaitNoBuyOrders) recommendation()    {}
func (WaitNoMarketData) recommendation()   {}
func (PowerUp) recommendation()            {}
func (NoPowerUp) recommendation()          {}
func (TradeableSellable) recommendation()  {}

// IsFuelSale reports whether r asks the caller to sell fuel. Callers gate
// these on their cooldown tracker.
func IsFuelSale(r Recommendation) bool {
	switch r.(type) {
	case SellFuelToTopOrder, SellFuelCritical:
		return true
	}
	return false
}

// Envelope is the tagged wire form of a Recommendation.
type Envelope struct {
	Kind   Kind           `json:"kind"`
	Detail Recommendation `json:"detail,omitempty"`
}

// Wrap tags r for serialization.
func Wrap(r Recommendation) Envelope {
	if r == nil {
		return Envelope{}
	}
	return Envelope{Kind: r.Kind(), Detail: r}
}

// MarshalJSON renders r as {"kind": ..., "detail": {...}}.
func MarshalJSON(r Recommendation) ([]byte, error) {
	return json.Marshal(Wrap(r))
}
