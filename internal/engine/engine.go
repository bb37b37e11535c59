// Package engine decides when a protected fuel asset should be converted
// into the operational liquidity asset, when surplus liquidity should be
// committed to the reserve, and which tradeable holdings the market can
// absorb.
//
// Everything in this package is a pure function of its inputs. Callers own
// snapshot acquisition, the sale cooldown and any order placement.
package engine

import (
	"encoding/json"
	"time"

	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

// Report is the outcome of one decision cycle.
type Report struct {
	Account    string         `json:"account"`
	TakenAt    time.Time      `json:"taken_at"`
	Fuel       Plan           `json:"fuel"`
	Reserve    Recommendation `json:"-"`
	Tradeables ScanReport     `json:"tradeables"`
}

// Recommendations lists every actionable-or-wait decision in the report,
// fuel first.
func (r Report) Recommendations() []Recommendation {
	out := []Recommendation{r.Fuel.Recommendation, r.Reserve}
	for _, t := range r.Tradeables.Sellable {
		out = append(out, t)
	}
	return out
}

// MarshalJSON tags the recommendation fields with their kind.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		FuelDecision    Envelope `json:"fuel_decision"`
		ReserveDecision Envelope `json:"reserve_decision"`
	}{
		plain:           plain(r),
		FuelDecision:    Wrap(r.Fuel.Recommendation),
		ReserveDecision: Wrap(r.Reserve),
	})
}

// Evaluate runs the fuel planner, the reserve ladder and the tradeable scan
// over one snapshot. Sell amounts are truncated to the token precision in
// assets.Precision when one is known.
func Evaluate(s *models.Snapshot, assets models.AssetBook, p PolicyConfig) Report {
	liquidity := s.Balances.Get(assets.Liquidity)

	plan := PlanFuel(PlanInput{
		LiquidityBalance: liquidity,
		FuelBalance:      s.Balances.Get(assets.Fuel),
		FuelPrice:        s.Prices.Get(assets.Fuel),
		FuelBook:         s.OrderBooks.Get(assets.Fuel),
		Policy:           p,
	})
	if prec, ok := assets.Precision[models.NormalizeSymbol(assets.Fuel)]; ok {
		plan.Recommendation = roundFuelSale(plan.Recommendation, prec)
		if !IsFuelSale(plan.Recommendation) {
			plan.Override = false
		}
	}

	scan := roundScan(ScanTradeables(s, assets, p), s, assets.Precision, p)

	return Report{
		Account:    s.Account,
		TakenAt:    s.TakenAt,
		Fuel:       plan,
		Reserve:    Ladder(liquidity, p),
		Tradeables: scan,
	}
}

// RoundDown truncates amount to precision decimal places. Truncation keeps
// a sale inside both the holding and the counter-order it targets.
func RoundDown(amount decimal.Decimal, precision int32) decimal.Decimal {
	if precision < 0 {
		return amount
	}
	return amount.Truncate(precision)
}

// roundScan truncates every sellable amount to its token precision and
// applies the acceptance rule again to what is left.
func roundScan(scan ScanReport, s *models.Snapshot, precision map[string]int32, p PolicyConfig) ScanReport {
	if len(precision) == 0 || len(scan.Sellable) == 0 {
		return scan
	}
	scan.Sellable = nil
	for i, r := range scan.Results {
		if !r.Sellable {
			continue
		}
		if prec, ok := precision[r.Symbol]; ok {
			r.SellAmount = RoundDown(r.SellAmount, prec)
			r.Walk = WalkFullDepth(s.OrderBooks.Get(r.Symbol), r.SellAmount)
			if !r.SellAmount.IsPositive() || !acceptable(r.Walk, p) {
				r.Sellable = false
				r.HoldReason = HoldPrecision
			}
		}
		scan.Results[i] = r
		if r.Sellable {
			scan.Sellable = append(scan.Sellable, TradeableSellable{
				Symbol:           r.Symbol,
				Amount:           r.SellAmount,
				ExpectedProceeds: r.Walk.TotalRevenue,
			})
		}
	}
	return scan
}

func roundFuelSale(r Recommendation, precision int32) Recommendation {
	switch v := r.(type) {
	case SellFuelToTopOrder:
		v.Amount = RoundDown(v.Amount, precision)
		if !v.Amount.IsPositive() {
			return MonitorOnly{Reason: "sale rounds to zero at token precision"}
		}
		v.ExpectedProceeds = v.Amount.Mul(v.Price)
		return v
	case SellFuelCritical:
		v.Amount = RoundDown(v.Amount, precision)
		if !v.Amount.IsPositive() {
			return MonitorOnly{Reason: "sale rounds to zero at token precision"}
		}
		v.ExpectedProceeds = v.Amount.Mul(v.Price)
		return v
	}
	return r
}
