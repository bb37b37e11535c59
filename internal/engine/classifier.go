package engine

import "github.com/shopspring/decimal"

// Status is the liquidity tier.
type Status int

const (
	StatusHealthy Status = iota
	StatusModerate
	StatusLow
	StatusCritical
)

func (s Status) String() string {
	switch s {
	case StatusCritical:
		return "CRITICAL"
	case StatusLow:
		return "LOW"
	case StatusModerate:
		return "MODERATE"
	default:
		return "HEALTHY"
	}
}

// MarshalText lets Status appear by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classification is the classifier output.
type Classification struct {
	Status  Status          `json:"status"`
	Urgency int             `json:"urgency"`
	Balance decimal.Decimal `json:"balance"`
}

// Classify maps a liquidity balance to a status and urgency. The first
// threshold the balance falls under wins.
func Classify(balance decimal.Decimal, p PolicyConfig) Classification {
	c := Classification{Balance: balance}
	switch {
	case balance.LessThan(p.CriticalBalance):
		c.Status, c.Urgency = StatusCritical, 100
	case balance.LessThan(p.MinBalance):
		c.Status, c.Urgency = StatusLow, 75
	case balance.LessThan(p.TargetBalance):
		c.Status, c.Urgency = StatusModerate, 30
	default:
		c.Status, c.Urgency = StatusHealthy, 0
	}
	return c
}
