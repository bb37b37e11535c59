package engine

import (
	"sort"

	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

// Hold reasons reported by the tradeable scan. HoldPrecision marks a sale
// that stops passing once truncated to token precision.
const (
	HoldDust         = "dust"
	HoldNoMarketData = "no_market_data"
	HoldIlliquid     = "illiquid"
	HoldPrecision    = "precision"
)

// ScanResult is the scan outcome for one tradeable symbol.
type ScanResult struct {
	Symbol     string          `json:"symbol"`
	Balance    decimal.Decimal `json:"balance"`
	SellAmount decimal.Decimal `json:"sell_amount"`
	Walk       WalkResult      `json:"walk"`
	Sellable   bool            `json:"sellable"`
	HoldReason string          `json:"hold_reason,omitempty"`
}

// ScanReport collects every scanned symbol and the sellable subset.
type ScanReport struct {
	Results  []ScanResult        `json:"results"`
	Sellable []TradeableSellable `json:"sellable"`
}

// ScanTradeables checks which tradeable holdings the market could absorb.
// Each candidate is a fraction of the holding walked against the full bid
// book; it is sellable only when the book fills enough of it for enough
// proceeds.
func ScanTradeables(s *models.Snapshot, assets models.AssetBook, p PolicyConfig) ScanReport {
	symbols := make([]string, 0, len(assets.Tradeable))
	for _, sym := range assets.Tradeable {
		symbols = append(symbols, models.NormalizeSymbol(sym))
	}
	sort.Strings(symbols)

	var report ScanReport
	for _, sym := range symbols {
		r := scanOne(s, sym, p)
		report.Results = append(report.Results, r)
		if r.Sellable {
			report.Sellable = append(report.Sellable, TradeableSellable{
				Symbol:           sym,
				Amount:           r.SellAmount,
				ExpectedProceeds: r.Walk.TotalRevenue,
			})
		}
	}
	return report
}

func scanOne(s *models.Snapshot, symbol string, p PolicyConfig) ScanResult {
	r := ScanResult{Symbol: symbol, Balance: s.Balances.Get(symbol)}
	if !r.Balance.GreaterThan(p.DustThreshold) {
		r.HoldReason = HoldDust
		return r
	}
	if !s.Prices.Get(symbol).HasBid() {
		r.HoldReason = HoldNoMarketData
		return r
	}

	r.SellAmount = r.Balance.Mul(p.TradeableSellFraction)
	r.Walk = WalkFullDepth(s.OrderBooks.Get(symbol), r.SellAmount)
	if acceptable(r.Walk, p) {
		r.Sellable = true
		return r
	}
	r.HoldReason = HoldIlliquid
	return r
}

func acceptable(w WalkResult, p PolicyConfig) bool {
	return w.PercentFilled.GreaterThanOrEqual(p.TradeableMinFillPct) &&
		w.TotalRevenue.GreaterThanOrEqual(p.TradeableMinProceeds)
}
