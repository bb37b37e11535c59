package dataflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	balances   models.BalanceSnapshot
	balanceErr error
	prices     map[string]*models.MarketPrice
	books      map[string]models.OrderBook
	failSymbol string
	precision  map[string]int32
}

func (f *fakeSource) GetBalances(ctx context.Context, account string) (models.BalanceSnapshot, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balances, nil
}

func (f *fakeSource) GetMarketPrice(ctx context.Context, symbol string) (*models.MarketPrice, error) {
	if symbol == f.failSymbol {
		return nil, errors.New("metrics down")
	}
	return f.prices[symbol], nil
}

func (f *fakeSource) GetBuyOrders(ctx context.Context, symbol string, depth int) (models.OrderBook, error) {
	if symbol == f.failSymbol {
		return nil, errors.New("book down")
	}
	return f.books[symbol], nil
}

func (f *fakeSource) GetPrecision(ctx context.Context, symbol string) (int32, error) {
	p, ok := f.precision[symbol]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return p, nil
}

func testAssets() models.AssetBook {
	return models.AssetBook{
		Liquidity: "SWAP.HIVE",
		Fuel:      "SWAP.BLURT",
		Premium:   []string{"VKBT"},
		Tradeable: []string{"BBH", "POB"},
	}
}

func TestCollector_Collect(t *testing.T) {
	src := &fakeSource{
		balances: models.BalanceSnapshot{"SWAP.HIVE": decimal.NewFromInt(3), "SWAP.BLURT": decimal.NewFromInt(2000)},
		prices: map[string]*models.MarketPrice{
			"SWAP.BLURT": {Symbol: "SWAP.BLURT", BestBid: decimal.RequireFromString("0.002")},
		},
		books: map[string]models.OrderBook{
			"SWAP.BLURT": {
				{Price: decimal.RequireFromString("0.0019"), Quantity: decimal.NewFromInt(10)},
				{Price: decimal.RequireFromString("0.002"), Quantity: decimal.NewFromInt(5)},
			},
		},
		failSymbol: "POB",
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCollector(src, WithClock(func() time.Time { return at }), WithConcurrency(2))

	snap, err := c.Collect(context.Background(), "alice", testAssets())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !snap.TakenAt.Equal(at) || snap.Account != "alice" {
		t.Fatalf("snapshot header = %s %s", snap.Account, snap.TakenAt)
	}
	if snap.Prices.Get("SWAP.BLURT") == nil {
		t.Fatal("expected fuel price")
	}
	if snap.Prices.Get("POB") != nil {
		t.Fatal("failed symbol should have no price")
	}
	if _, ok := snap.OrderBooks["POB"]; ok {
		t.Fatal("failed symbol should have no book")
	}
	book := snap.OrderBooks.Get("SWAP.BLURT")
	if len(book) != 2 || !book[0].Price.Equal(decimal.RequireFromString("0.002")) {
		t.Fatalf("fuel book not normalized: %+v", book)
	}
	if !snap.Balances.Get("SWAP.HIVE").Equal(decimal.NewFromInt(3)) {
		t.Fatalf("liquidity balance = %s", snap.Balances.Get("SWAP.HIVE"))
	}
}

func TestCollector_BalanceFailureIsFatal(t *testing.T) {
	src := &fakeSource{balanceErr: errors.New("node down")}
	c := NewCollector(src)

	if _, err := c.Collect(context.Background(), "alice", testAssets()); err == nil {
		t.Fatal("expected error when balances are unavailable")
	}
}

func TestCollector_RequiresAccount(t *testing.T) {
	c := NewCollector(&fakeSource{})
	if _, err := c.Collect(context.Background(), "", testAssets()); err == nil {
		t.Fatal("expected error for empty account")
	}
}

func TestCollector_ResolvePrecision(t *testing.T) {
	src := &fakeSource{precision: map[string]int32{"SWAP.BLURT": 3, "BBH": 8}}
	c := NewCollector(src)

	assets := testAssets()
	assets.Precision = map[string]int32{"POB": 4}
	got := c.ResolvePrecision(context.Background(), assets)

	if got.Precision["SWAP.BLURT"] != 3 || got.Precision["BBH"] != 8 || got.Precision["POB"] != 4 {
		t.Fatalf("precision = %v", got.Precision)
	}
	if len(assets.Precision) != 1 {
		t.Fatalf("input precision map mutated: %v", assets.Precision)
	}
}
