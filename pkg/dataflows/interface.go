package dataflows

import (
	"context"

	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

// MarketSource is the read-only market access a decision cycle needs.
type MarketSource interface {
	GetBalances(ctx context.Context, account string) (models.BalanceSnapshot, error)
	GetMarketPrice(ctx context.Context, symbol string) (*models.MarketPrice, error)
	GetBuyOrders(ctx context.Context, symbol string, depth int) (models.OrderBook, error)
}

// PrecisionSource reports token decimals. Sources that cannot answer leave
// amounts unrounded.
type PrecisionSource interface {
	GetPrecision(ctx context.Context, symbol string) (int32, error)
}

// BalanceSource reads a single balance.
type BalanceSource interface {
	GetBalance(ctx context.Context, account, symbol string) (decimal.Decimal, error)
}

var (
	_ MarketSource    = (*HiveEngineClient)(nil)
	_ PrecisionSource = (*HiveEngineClient)(nil)
	_ BalanceSource   = (*HiveEngineClient)(nil)
)
