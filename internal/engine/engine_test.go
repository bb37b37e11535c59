package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dyike/CapitalGo/models"
)

func evalAssets() models.AssetBook {
	return models.AssetBook{
		Liquidity: "SWAP.HIVE",
		Fuel:      "SWAP.BLURT",
		Premium:   []string{"VKBT", "CURE"},
		Tradeable: []string{"BBH", "POB"},
	}
}

func evalSnapshot() *models.Snapshot {
	s := models.NewSnapshot("angelicalist", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	s.Balances["SWAP.HIVE"] = d("8")
	s.Balances["SWAP.BLURT"] = d("1000.123456")
	s.Balances["VKBT"] = d("5000")
	s.Prices["SWAP.BLURT"] = bid("0.0025")
	s.OrderBooks["SWAP.BLURT"] = models.OrderBook{
		order("0.0025", "2000", "whale"),
		order("0.0020", "5000", "shrimp"),
	}
	return s
}

func TestEvaluate(t *testing.T) {
	report := Evaluate(evalSnapshot(), evalAssets(), DefaultPolicy())

	sell, ok := report.Fuel.Recommendation.(SellFuelToTopOrder)
	if !ok {
		t.Fatalf("expected SellFuelToTopOrder, got %#v", report.Fuel.Recommendation)
	}
	assertDecimal(t, "amount", sell.Amount, "950.123456")

	no, ok := report.Reserve.(NoPowerUp)
	if !ok {
		t.Fatalf("expected NoPowerUp, got %#v", report.Reserve)
	}
	assertDecimal(t, "reserve shortfall", no.Shortfall, "17")

	if got := len(report.Recommendations()); got != 2 {
		t.Fatalf("expected 2 recommendations, got %d", got)
	}
}

func TestEvaluateRoundsToPrecision(t *testing.T) {
	assets := evalAssets()
	assets.Precision = map[string]int32{"SWAP.BLURT": 3}

	report := Evaluate(evalSnapshot(), assets, DefaultPolicy())
	sell, ok := report.Fuel.Recommendation.(SellFuelToTopOrder)
	if !ok {
		t.Fatalf("expected SellFuelToTopOrder, got %#v", report.Fuel.Recommendation)
	}
	assertDecimal(t, "amount", sell.Amount, "950.123")
	assertDecimal(t, "proceeds", sell.ExpectedProceeds, "2.3753075")
}

func TestRoundDownToZeroBecomesMonitor(t *testing.T) {
	r := roundFuelSale(SellFuelCritical{Amount: d("0.4"), Price: d("0.001")}, 0)
	if _, ok := r.(MonitorOnly); !ok {
		t.Fatalf("expected MonitorOnly, got %#v", r)
	}
}

func TestEvaluateIsPureAcrossGoroutines(t *testing.T) {
	s := evalSnapshot()
	assets := evalAssets()
	p := DefaultPolicy()
	want := Evaluate(s, assets, p)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Evaluate(s, assets, p); !reflect.DeepEqual(got, want) {
				errs <- "report differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestReportJSONCarriesKinds(t *testing.T) {
	report := Evaluate(evalSnapshot(), evalAssets(), DefaultPolicy())

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"kind":"sell_fuel_to_top_order"`, `"kind":"no_power_up"`, `"status":"LOW"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestEvaluateRechecksTradeablesAfterPrecision(t *testing.T) {
	s := models.NewSnapshot("angelicalist", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	s.Balances["SWAP.HIVE"] = d("30")
	// 0.75 passes the scan but truncates to zero
	s.Balances["BBH"] = d("1.5")
	s.Prices["BBH"] = bid("1")
	s.OrderBooks["BBH"] = models.OrderBook{order("1", "10", "bob")}
	// 0.15 earns 0.105, truncated to 0.1 it earns 0.07
	s.Balances["POB"] = d("0.3")
	s.Prices["POB"] = bid("0.7")
	s.OrderBooks["POB"] = models.OrderBook{order("0.7", "10", "bob")}
	// still worth selling after truncation
	s.Balances["LEO"] = d("101")
	s.Prices["LEO"] = bid("1")
	s.OrderBooks["LEO"] = models.OrderBook{order("1", "1000", "bob")}

	assets := models.AssetBook{
		Liquidity: "SWAP.HIVE",
		Fuel:      "SWAP.BLURT",
		Tradeable: []string{"BBH", "POB", "LEO"},
		Precision: map[string]int32{"BBH": 0, "POB": 1, "LEO": 0},
	}
	report := Evaluate(s, assets, DefaultPolicy())

	if got := len(report.Tradeables.Sellable); got != 1 {
		t.Fatalf("expected 1 sellable tradeable, got %d: %#v", got, report.Tradeables.Sellable)
	}
	leo := report.Tradeables.Sellable[0]
	if leo.Symbol != "LEO" {
		t.Fatalf("expected LEO sellable, got %s", leo.Symbol)
	}
	assertDecimal(t, "LEO amount", leo.Amount, "50")
	assertDecimal(t, "LEO proceeds", leo.ExpectedProceeds, "50")

	for _, r := range report.Tradeables.Results {
		switch r.Symbol {
		case "BBH", "POB":
			if r.Sellable || r.HoldReason != HoldPrecision {
				t.Fatalf("%s: expected hold %q, got sellable=%v reason=%q", r.Symbol, HoldPrecision, r.Sellable, r.HoldReason)
			}
		case "LEO":
			assertDecimal(t, "LEO sell amount", r.SellAmount, "50")
		}
		if r.Symbol == "POB" {
			assertDecimal(t, "POB sell amount", r.SellAmount, "0.1")
			assertDecimal(t, "POB revenue", r.Walk.TotalRevenue, "0.07")
		}
	}
}

func TestEvaluateClearsOverrideWhenSaleRoundsAway(t *testing.T) {
	s := models.NewSnapshot("angelicalist", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	s.Balances["SWAP.HIVE"] = d("1")
	s.Balances["SWAP.BLURT"] = d("50.4")
	s.Prices["SWAP.BLURT"] = bid("0.0005")
	s.OrderBooks["SWAP.BLURT"] = models.OrderBook{order("0.0005", "1000", "whale")}

	assets := models.AssetBook{Liquidity: "SWAP.HIVE", Fuel: "SWAP.BLURT"}
	if report := Evaluate(s, assets, DefaultPolicy()); !report.Fuel.Override {
		t.Fatalf("expected critical override without precision, got %#v", report.Fuel.Recommendation)
	}

	assets.Precision = map[string]int32{"SWAP.BLURT": 0}
	report := Evaluate(s, assets, DefaultPolicy())
	if _, ok := report.Fuel.Recommendation.(MonitorOnly); !ok {
		t.Fatalf("expected MonitorOnly, got %#v", report.Fuel.Recommendation)
	}
	if report.Fuel.Override {
		t.Fatalf("override still set on a cycle that sells nothing")
	}
}
