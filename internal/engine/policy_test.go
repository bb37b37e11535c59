package engine

import (
	"errors"
	"testing"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	if _, err := NewPolicy(DefaultPolicy()); err != nil {
		t.Fatalf("default policy rejected: %v", err)
	}
}

func TestNewPolicyRejectsMisorderedThresholds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *PolicyConfig)
	}{
		{"critical equals min", func(p *PolicyConfig) { p.CriticalBalance = p.MinBalance }},
		{"critical above min", func(p *PolicyConfig) { p.CriticalBalance = d("11") }},
		{"min equals target", func(p *PolicyConfig) { p.MinBalance = p.TargetBalance }},
		{"negative critical", func(p *PolicyConfig) { p.CriticalBalance = d("-1") }},
		{"tier1 equals tier2", func(p *PolicyConfig) { p.Tier1 = p.Tier2 }},
		{"tier3 below tier2", func(p *PolicyConfig) { p.Tier3 = d("99") }},
		{"zero power-up fraction", func(p *PolicyConfig) { p.PowerUpFraction = d("0") }},
		{"power-up fraction above one", func(p *PolicyConfig) { p.PowerUpFraction = d("1.01") }},
		{"slippage of one", func(p *PolicyConfig) { p.SlippageBuffer = d("1") }},
		{"negative reserve floor", func(p *PolicyConfig) { p.FuelReserveFloor = d("-5") }},
		{"hard floor above min price", func(p *PolicyConfig) { p.CriticalHardFloor = d("0.01") }},
		{"sell fraction zero", func(p *PolicyConfig) { p.TradeableSellFraction = d("0") }},
		{"min fill above 100", func(p *PolicyConfig) { p.TradeableMinFillPct = d("101") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPolicy()
			tc.mutate(&p)
			_, err := NewPolicy(p)
			if !errors.Is(err, ErrMisconfiguredPolicy) {
				t.Fatalf("expected ErrMisconfiguredPolicy, got %v", err)
			}
		})
	}
}

func TestPowerUpFractionOfOneIsAllowed(t *testing.T) {
	p := DefaultPolicy()
	p.PowerUpFraction = d("1")
	if _, err := NewPolicy(p); err != nil {
		t.Fatalf("fraction 1 rejected: %v", err)
	}
}
