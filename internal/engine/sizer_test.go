package engine

import (
	"errors"
	"testing"
)

func TestSizeConversion(t *testing.T) {
	p := DefaultPolicy() // target 25, reserve 50, slippage 1.1

	c := Classify(d("15"), p)
	s, err := SizeConversion(c, bid("0.01"), d("2000"), p)
	if err != nil {
		t.Fatalf("SizeConversion: %v", err)
	}
	assertDecimal(t, "liquidity needed", s.LiquidityNeeded, "10")
	// 10 / 0.01 * 1.1
	assertDecimal(t, "fuel needed", s.FuelNeeded, "1100")
	assertDecimal(t, "fuel available", s.FuelAvailable, "1950")
	assertDecimal(t, "sell amount", s.SellAmount, "1100")
	if s.Shortfall {
		t.Fatalf("did not expect a shortfall")
	}
}

func TestSizeConversionShortfall(t *testing.T) {
	p := DefaultPolicy()

	c := Classify(d("2"), p)
	s, err := SizeConversion(c, bid("0.01"), d("500"), p)
	if err != nil {
		t.Fatalf("SizeConversion: %v", err)
	}
	if !s.Shortfall {
		t.Fatalf("expected shortfall")
	}
	assertDecimal(t, "fuel available", s.FuelAvailable, "450")
	assertDecimal(t, "sell amount", s.SellAmount, "450")
}

func TestSizeConversionNeverDrainsBelowReserve(t *testing.T) {
	p := DefaultPolicy()

	s, err := SizeConversion(Classify(d("1"), p), bid("0.01"), d("20"), p)
	if err != nil {
		t.Fatalf("SizeConversion: %v", err)
	}
	assertDecimal(t, "fuel available", s.FuelAvailable, "0")
	assertDecimal(t, "sell amount", s.SellAmount, "0")
}

func TestSizeConversionNoMarketData(t *testing.T) {
	p := DefaultPolicy()
	c := Classify(d("1"), p)

	if _, err := SizeConversion(c, nil, d("1000"), p); !errors.Is(err, ErrNoMarketData) {
		t.Fatalf("nil price: expected ErrNoMarketData, got %v", err)
	}
	if _, err := SizeConversion(c, bid("0"), d("1000"), p); !errors.Is(err, ErrNoMarketData) {
		t.Fatalf("zero bid: expected ErrNoMarketData, got %v", err)
	}
}

func TestSizeConversionHealthyNeedsNothing(t *testing.T) {
	p := DefaultPolicy()
	s, err := SizeConversion(Classify(d("30"), p), nil, d("1000"), p)
	if err != nil {
		t.Fatalf("healthy status must not need market data: %v", err)
	}
	if !s.FuelNeeded.IsZero() {
		t.Fatalf("expected zero sizing, got %+v", s)
	}
}
