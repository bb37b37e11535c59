package engine

import "errors"

var (
	// ErrNoMarketData means the price feed had no usable bid.
	ErrNoMarketData = errors.New("no market data")
	// ErrNoCounterOrders means the bid book was empty.
	ErrNoCounterOrders = errors.New("no counter orders")
	// ErrMisconfiguredPolicy means policy thresholds violate their ordering.
	ErrMisconfiguredPolicy = errors.New("misconfigured policy")
)
