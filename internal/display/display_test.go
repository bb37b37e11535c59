package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/dyike/CapitalGo/internal/storage"
	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

func TestFormatRecommendation(t *testing.T) {
	cases := []struct {
		rec  engine.Recommendation
		want string
	}{
		{nil, "none"},
		{engine.Hold{}, "hold"},
		{engine.WaitNoBuyOrders{}, "no buy orders"},
		{engine.WaitForBetterPrice{CurrentPrice: decimal.RequireFromString("0.0008"), MinPrice: decimal.RequireFromString("0.001")}, "0.0008 below minimum 0.001"},
		{engine.SellFuelToTopOrder{Amount: decimal.NewFromInt(950), Price: decimal.RequireFromString("0.0025"), Counterparty: "bob", ExpectedProceeds: decimal.RequireFromString("2.375"), Shortfall: true}, "to bob"},
		{engine.PowerUp{Amount: decimal.NewFromInt(12), Tier: 2}, "tier 2"},
		{engine.TradeableSellable{Symbol: "BBH", Amount: decimal.NewFromInt(50)}, "sell 50 BBH"},
	}
	for _, tc := range cases {
		if got := FormatRecommendation(tc.rec); !strings.Contains(got, tc.want) {
			t.Fatalf("FormatRecommendation(%T) = %q, want substring %q", tc.rec, got, tc.want)
		}
	}
}

func TestShowRendersAllSections(t *testing.T) {
	snap := models.NewSnapshot("alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	snap.Balances["SWAP.HIVE"] = decimal.NewFromInt(3)
	snap.Balances["BBH"] = decimal.NewFromInt(100)
	assets := models.AssetBook{Liquidity: "SWAP.HIVE", Fuel: "SWAP.BLURT", Tradeable: []string{"BBH"}}
	report := engine.Evaluate(snap, assets, engine.DefaultPolicy())

	var buf bytes.Buffer
	NewReportDisplay(&buf).Show(report)
	out := buf.String()
	for _, want := range []string{"alice", "CRITICAL", "no market data", "Reserve", "BBH", "hold:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCycles(t *testing.T) {
	if got := RenderCycles(nil); !strings.Contains(got, "no cycles") {
		t.Fatalf("empty journal = %q", got)
	}
	cycles := []storage.CycleWithMeta{
		{CycleRecord: storage.CycleRecord{ID: "c2", TakenAt: time.Now(), Status: storage.StatusError, Error: "rpc down"}},
		{CycleRecord: storage.CycleRecord{ID: "c1", TakenAt: time.Now(), Status: storage.StatusDone, Liquidity: "LOW", FuelKind: "hold"}},
	}
	got := RenderCycles(cycles)
	if !strings.Contains(got, "rpc down") || !strings.Contains(got, "LOW") {
		t.Fatalf("journal output = %q", got)
	}
}
