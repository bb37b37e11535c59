package engine

import (
	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

// Sizing is how much fuel a cycle would need to restore the target.
type Sizing struct {
	LiquidityNeeded decimal.Decimal `json:"liquidity_needed"`
	BestBid         decimal.Decimal `json:"best_bid"`
	FuelNeeded      decimal.Decimal `json:"fuel_needed"`
	FuelAvailable   decimal.Decimal `json:"fuel_available"`
	// SellAmount is min(FuelNeeded, FuelAvailable).
	SellAmount decimal.Decimal `json:"sell_amount"`
	// Shortfall is set when the fuel above the reserve floor cannot cover
	// FuelNeeded. It is not an error; the cycle sells what it can.
	Shortfall bool `json:"shortfall"`
}

// SizeConversion computes the fuel needed to bring liquidity back to the
// target. A healthy classification needs nothing and returns a zero Sizing.
// It fails with ErrNoMarketData when price has no usable bid.
func SizeConversion(c Classification, price *models.MarketPrice, fuelBalance decimal.Decimal, p PolicyConfig) (Sizing, error) {
	if c.Status == StatusHealthy {
		return Sizing{}, nil
	}
	if !price.HasBid() {
		return Sizing{}, ErrNoMarketData
	}

	s := Sizing{BestBid: price.BestBid}
	s.LiquidityNeeded = p.TargetBalance.Sub(c.Balance)
	if s.LiquidityNeeded.IsNegative() {
		s.LiquidityNeeded = decimal.Zero
	}
	s.FuelNeeded = s.LiquidityNeeded.Div(price.BestBid).Mul(p.SlippageBuffer)

	s.FuelAvailable = fuelBalance.Sub(p.FuelReserveFloor)
	if s.FuelAvailable.IsNegative() {
		s.FuelAvailable = decimal.Zero
	}

	s.Shortfall = s.FuelAvailable.LessThan(s.FuelNeeded)
	s.SellAmount = decimal.Min(s.FuelNeeded, s.FuelAvailable)
	return s, nil
}
