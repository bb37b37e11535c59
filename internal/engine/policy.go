package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PolicyConfig holds every threshold the engine decides against. It is a
// value: callers pass it into each call and never share a mutable copy.
type PolicyConfig struct {
	// Liquidity thresholds, strictly increasing.
	CriticalBalance decimal.Decimal `json:"critical_balance"`
	MinBalance      decimal.Decimal `json:"min_balance"`
	TargetBalance   decimal.Decimal `json:"target_balance"`

	// Reserve ladder, measured on the excess above TargetBalance.
	Tier1           decimal.Decimal `json:"tier1"`
	Tier2           decimal.Decimal `json:"tier2"`
	Tier3           decimal.Decimal `json:"tier3"`
	PowerUpFraction decimal.Decimal `json:"power_up_fraction"`

	// Fuel conversion.
	FuelReserveFloor decimal.Decimal `json:"fuel_reserve_floor"`
	MinFuelPrice     decimal.Decimal `json:"min_fuel_price"`
	SlippageBuffer   decimal.Decimal `json:"slippage_buffer"`
	SellOnModerate   bool            `json:"sell_on_moderate"`

	// CriticalOverride allows selling below MinFuelPrice when liquidity is
	// critical, but never below CriticalHardFloor.
	CriticalOverride  bool            `json:"critical_override"`
	CriticalHardFloor decimal.Decimal `json:"critical_hard_floor"`

	// Tradeable scan.
	DustThreshold         decimal.Decimal `json:"dust_threshold"`
	TradeableSellFraction decimal.Decimal `json:"tradeable_sell_fraction"`
	TradeableMinFillPct   decimal.Decimal `json:"tradeable_min_fill_pct"`
	TradeableMinProceeds  decimal.Decimal `json:"tradeable_min_proceeds"`
}

// DefaultPolicy returns the thresholds the capital manager has always run
// with.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		CriticalBalance: decimal.NewFromInt(5),
		MinBalance:      decimal.NewFromInt(10),
		TargetBalance:   decimal.NewFromInt(25),

		Tier1:           decimal.NewFromInt(50),
		Tier2:           decimal.NewFromInt(100),
		Tier3:           decimal.NewFromInt(250),
		PowerUpFraction: decimal.RequireFromString("0.5"),

		FuelReserveFloor: decimal.NewFromInt(50),
		MinFuelPrice:     decimal.RequireFromString("0.001"),
		SlippageBuffer:   decimal.RequireFromString("1.1"),
		SellOnModerate:   true,

		CriticalOverride:  true,
		CriticalHardFloor: decimal.Zero,

		DustThreshold:         decimal.RequireFromString("0.01"),
		TradeableSellFraction: decimal.RequireFromString("0.5"),
		TradeableMinFillPct:   decimal.NewFromInt(90),
		TradeableMinProceeds:  decimal.RequireFromString("0.1"),
	}
}

// NewPolicy validates p and returns it. A policy that fails validation is
// never returned.
func NewPolicy(p PolicyConfig) (PolicyConfig, error) {
	if err := p.Validate(); err != nil {
		return PolicyConfig{}, err
	}
	return p, nil
}

// Validate checks threshold ordering and ranges. Every failure wraps
// ErrMisconfiguredPolicy.
func (p PolicyConfig) Validate() error {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)

	switch {
	case p.CriticalBalance.IsNegative():
		return misconfigured("critical balance %s is negative", p.CriticalBalance)
	case !p.CriticalBalance.LessThan(p.MinBalance):
		return misconfigured("critical balance %s must be below min balance %s", p.CriticalBalance, p.MinBalance)
	case !p.MinBalance.LessThan(p.TargetBalance):
		return misconfigured("min balance %s must be below target balance %s", p.MinBalance, p.TargetBalance)
	case p.Tier1.IsNegative():
		return misconfigured("tier1 %s is negative", p.Tier1)
	case !p.Tier1.LessThan(p.Tier2):
		return misconfigured("tier1 %s must be below tier2 %s", p.Tier1, p.Tier2)
	case !p.Tier2.LessThan(p.Tier3):
		return misconfigured("tier2 %s must be below tier3 %s", p.Tier2, p.Tier3)
	case !p.PowerUpFraction.IsPositive() || p.PowerUpFraction.GreaterThan(one):
		return misconfigured("power-up fraction %s must be in (0,1]", p.PowerUpFraction)
	case p.FuelReserveFloor.IsNegative():
		return misconfigured("fuel reserve floor %s is negative", p.FuelReserveFloor)
	case p.MinFuelPrice.IsNegative():
		return misconfigured("min fuel price %s is negative", p.MinFuelPrice)
	case !p.SlippageBuffer.GreaterThan(one):
		return misconfigured("slippage buffer %s must be greater than 1", p.SlippageBuffer)
	case p.CriticalHardFloor.IsNegative():
		return misconfigured("critical hard floor %s is negative", p.CriticalHardFloor)
	case p.CriticalHardFloor.GreaterThan(p.MinFuelPrice):
		return misconfigured("critical hard floor %s must not exceed min fuel price %s", p.CriticalHardFloor, p.MinFuelPrice)
	case p.DustThreshold.IsNegative():
		return misconfigured("dust threshold %s is negative", p.DustThreshold)
	case !p.TradeableSellFraction.IsPositive() || p.TradeableSellFraction.GreaterThan(one):
		return misconfigured("tradeable sell fraction %s must be in (0,1]", p.TradeableSellFraction)
	case p.TradeableMinFillPct.IsNegative() || p.TradeableMinFillPct.GreaterThan(hundred):
		return misconfigured("tradeable min fill %s must be in [0,100]", p.TradeableMinFillPct)
	case p.TradeableMinProceeds.IsNegative():
		return misconfigured("tradeable min proceeds %s is negative", p.TradeableMinProceeds)
	}
	return nil
}

func misconfigured(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMisconfiguredPolicy}, args...)...)
}
