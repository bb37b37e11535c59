package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CounterOrder is one standing buy order a seller can fill against.
type CounterOrder struct {
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Counterparty string          `json:"counterparty"`
	TxID         string          `json:"tx_id,omitempty"`
}

// Value is price * quantity, in liquidity units.
func (o CounterOrder) Value() decimal.Decimal {
	return o.Price.Mul(o.Quantity)
}

// OrderBook is the bid side of a market, best price first.
type OrderBook []CounterOrder

// Normalize drops rows with a non-positive price or quantity and sorts the
// remaining orders descending by price. Orders at the same price keep their
// feed order.
func (b OrderBook) Normalize() OrderBook {
	out := make(OrderBook, 0, len(b))
	for _, o := range b {
		if !o.Price.IsPositive() || !o.Quantity.IsPositive() {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price.GreaterThan(out[j].Price)
	})
	return out
}

// Top returns the best-priced order.
func (b OrderBook) Top() (CounterOrder, bool) {
	if len(b) == 0 {
		return CounterOrder{}, false
	}
	return b[0], true
}

// Depth is the total quantity resting in the book.
func (b OrderBook) Depth() decimal.Decimal {
	total := decimal.Zero
	for _, o := range b {
		total = total.Add(o.Quantity)
	}
	return total
}

// MarketPrice is the metrics row for one symbol.
type MarketPrice struct {
	Symbol    string          `json:"symbol"`
	LastPrice decimal.Decimal `json:"last_price"`
	BestBid   decimal.Decimal `json:"best_bid"`
	BestAsk   decimal.Decimal `json:"best_ask"`
	Volume    decimal.Decimal `json:"volume"`
}

// HasBid reports whether a usable best bid is present.
func (p *MarketPrice) HasBid() bool {
	return p != nil && p.BestBid.IsPositive()
}
