package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot maps symbol to held quantity.
type BalanceSnapshot map[string]decimal.Decimal

// Get returns the balance of symbol, zero when absent. Negative feed values
// are reported as zero.
func (b BalanceSnapshot) Get(symbol string) decimal.Decimal {
	v, ok := b[NormalizeSymbol(symbol)]
	if !ok || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// OrderBookSnapshot maps symbol to its bid book.
type OrderBookSnapshot map[string]OrderBook

// Get returns the normalized book for symbol.
func (s OrderBookSnapshot) Get(symbol string) OrderBook {
	return s[NormalizeSymbol(symbol)].Normalize()
}

// PriceSnapshot maps symbol to its market metrics. Absent symbols have no
// market data.
type PriceSnapshot map[string]*MarketPrice

// Get returns the metrics for symbol or nil.
func (s PriceSnapshot) Get(symbol string) *MarketPrice {
	return s[NormalizeSymbol(symbol)]
}

// Snapshot is the point-in-time view consumed by one decision cycle.
type Snapshot struct {
	Account    string            `json:"account"`
	TakenAt    time.Time         `json:"taken_at"`
	Balances   BalanceSnapshot   `json:"balances"`
	OrderBooks OrderBookSnapshot `json:"order_books"`
	Prices     PriceSnapshot     `json:"prices"`
}

// NewSnapshot returns an empty snapshot with its maps allocated.
func NewSnapshot(account string, takenAt time.Time) *Snapshot {
	return &Snapshot{
		Account:    account,
		TakenAt:    takenAt,
		Balances:   BalanceSnapshot{},
		OrderBooks: OrderBookSnapshot{},
		Prices:     PriceSnapshot{},
	}
}
