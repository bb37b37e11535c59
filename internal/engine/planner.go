package engine

import (
	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

// PlanInput is everything the planner reads for the fuel asset.
type PlanInput struct {
	LiquidityBalance decimal.Decimal
	FuelBalance      decimal.Decimal
	FuelPrice        *models.MarketPrice
	FuelBook         models.OrderBook
	Policy           PolicyConfig
}

// Plan is the planner's decision plus the intermediate values that led to
// it, so callers can log the reasoning.
type Plan struct {
	Classification Classification `json:"classification"`
	Sizing         Sizing         `json:"sizing"`
	Walk           WalkResult     `json:"walk"`
	Recommendation Recommendation `json:"-"`

	// Override is set when a critical status accepted a price below the
	// minimum fuel price.
	Override bool `json:"override"`
}

// PlanFuel decides whether to convert fuel into liquidity this cycle. It
// never fails: missing data degrades to a Wait* recommendation.
func PlanFuel(in PlanInput) Plan {
	p := in.Policy
	plan := Plan{Classification: Classify(in.LiquidityBalance, p)}
	status := plan.Classification.Status

	if status == StatusHealthy {
		plan.Recommendation = Hold{}
		return plan
	}
	if status == StatusModerate && !p.SellOnModerate {
		plan.Recommendation = MonitorOnly{Reason: "liquidity below target, selling on moderate disabled"}
		return plan
	}

	sizing, err := SizeConversion(plan.Classification, in.FuelPrice, in.FuelBalance, p)
	if err != nil {
		// ErrNoMarketData is the only failure SizeConversion reports.
		plan.Recommendation = WaitNoMarketData{}
		return plan
	}
	plan.Sizing = sizing

	plan.Walk = WalkTopOrder(in.FuelBook, sizing.FuelAvailable)
	if plan.Walk.TopOrder == nil {
		plan.Recommendation = WaitNoBuyOrders{}
		return plan
	}

	plan.Recommendation = GateFuelPrice(status, plan.Walk, sizing, p)
	_, plan.Override = plan.Recommendation.(SellFuelCritical)
	return plan
}

// GateFuelPrice applies the minimum fuel price to a top-order walk. Below
// the floor only a critical status may sell, and only when the override is
// enabled and the price clears the hard floor.
func GateFuelPrice(status Status, w WalkResult, s Sizing, p PolicyConfig) Recommendation {
	if w.TopOrder == nil {
		return WaitNoBuyOrders{}
	}
	top := *w.TopOrder

	if top.Price.LessThan(p.MinFuelPrice) {
		if status != StatusCritical || !p.CriticalOverride || top.Price.LessThan(p.CriticalHardFloor) {
			return WaitForBetterPrice{CurrentPrice: top.Price, MinPrice: p.MinFuelPrice}
		}
		amount := w.Consumed()
		if !amount.IsPositive() {
			return MonitorOnly{Reason: "no fuel above reserve floor"}
		}
		return SellFuelCritical{
			Amount:           amount,
			Price:            top.Price,
			ExpectedProceeds: amount.Mul(top.Price),
			Counterparty:     top.Counterparty,
			Shortfall:        s.Shortfall,
		}
	}

	amount := w.Consumed()
	if !amount.IsPositive() {
		return MonitorOnly{Reason: "no fuel above reserve floor"}
	}
	return SellFuelToTopOrder{
		Amount:           amount,
		Price:            top.Price,
		ExpectedProceeds: amount.Mul(top.Price),
		Counterparty:     top.Counterparty,
		Shortfall:        s.Shortfall,
	}
}
