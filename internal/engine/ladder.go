package engine

import "github.com/shopspring/decimal"

// Ladder decides how much surplus liquidity to commit to the reserve.
// Tiers are checked richest first and a tier is reached when the excess
// equals its threshold.
func Ladder(balance decimal.Decimal, p PolicyConfig) Recommendation {
	if balance.LessThan(p.TargetBalance) {
		return NoPowerUp{
			Shortfall: p.TargetBalance.Sub(balance),
			Reason:    "operations need funding first",
		}
	}

	excess := balance.Sub(p.TargetBalance)
	amount := excess.Mul(p.PowerUpFraction)
	switch {
	case excess.GreaterThanOrEqual(p.Tier3):
		return PowerUp{Amount: amount, Tier: 3}
	case excess.GreaterThanOrEqual(p.Tier2):
		return PowerUp{Amount: amount, Tier: 2}
	case excess.GreaterThanOrEqual(p.Tier1):
		return PowerUp{Amount: amount, Tier: 1}
	}
	return NoPowerUp{
		Shortfall: p.Tier1.Sub(excess),
		Reason:    "surplus below first reserve tier",
	}
}
