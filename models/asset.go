package models

import (
	"sort"
	"strings"
)

// AssetClass tags how the engine may treat a holding.
type AssetClass int

const (
	AssetUnknown AssetClass = iota
	// AssetPremium is strategic only and never sold by the engine.
	AssetPremium
	// AssetFuel is the single protected asset sold through the planner.
	AssetFuel
	// AssetTradeable is freely sellable once liquidity checks pass.
	AssetTradeable
)

func (c AssetClass) String() string {
	switch c {
	case AssetPremium:
		return "premium"
	case AssetFuel:
		return "fuel"
	case AssetTradeable:
		return "tradeable"
	default:
		return "unknown"
	}
}

// AssetBook classifies the symbols one account holds.
type AssetBook struct {
	Liquidity string   `json:"liquidity"`
	Fuel      string   `json:"fuel"`
	Premium   []string `json:"premium"`
	Tradeable []string `json:"tradeable"`

	// Precision holds the number of decimal places a token trades at.
	// Symbols without an entry are not rounded.
	Precision map[string]int32 `json:"precision,omitempty"`
}

// Class returns the class of symbol.
func (a AssetBook) Class(symbol string) AssetClass {
	symbol = NormalizeSymbol(symbol)
	if symbol == NormalizeSymbol(a.Fuel) {
		return AssetFuel
	}
	for _, s := range a.Premium {
		if NormalizeSymbol(s) == symbol {
			return AssetPremium
		}
	}
	for _, s := range a.Tradeable {
		if NormalizeSymbol(s) == symbol {
			return AssetTradeable
		}
	}
	return AssetUnknown
}

// Symbols lists every symbol the engine needs data for, sorted and
// deduplicated.
func (a AssetBook) Symbols() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		s = NormalizeSymbol(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	add(a.Liquidity)
	add(a.Fuel)
	for _, s := range a.Premium {
		add(s)
	}
	for _, s := range a.Tradeable {
		add(s)
	}
	sort.Strings(out)
	return out
}

// MarketSymbols lists the symbols the engine needs prices and bid books
// for: the fuel asset and every tradeable asset.
func (a AssetBook) MarketSymbols() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range append([]string{a.Fuel}, a.Tradeable...) {
		s = NormalizeSymbol(s)
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NormalizeSymbol upper-cases and trims a token symbol.
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}
