package engine

import (
	"testing"

	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func order(price, qty, who string) models.CounterOrder {
	return models.CounterOrder{Price: d(price), Quantity: d(qty), Counterparty: who}
}

func bid(price string) *models.MarketPrice {
	return &models.MarketPrice{BestBid: d(price), LastPrice: d(price)}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got)
	}
}
