package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dyike/CapitalGo/config"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2).
			Width(78)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(24)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, completedStyle.Render("✓ "+msg))
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warnStyle.Render("! "+msg))
}

func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+msg))
}

func printField(w io.Writer, label string, value interface{}) {
	fmt.Fprintf(w, "%s%v\n", labelStyle.Render(label), value)
}

// showConfig prints the effective configuration.
func showConfig(w io.Writer, cfg config.Config, path string) {
	fmt.Fprintln(w, headerStyle.Render("CapitalGo configuration"))
	if path != "" {
		printField(w, "Config file", path)
	}
	printField(w, "Data directory", cfg.DataDir)
	printField(w, "Journal", cfg.DBPath)
	printField(w, "RPC", cfg.RPCURL)
	printField(w, "Account", valueOr(cfg.Account, "(not set)"))
	printField(w, "Book depth", cfg.BookDepth)
	fmt.Fprintln(w)

	printField(w, "Liquidity", cfg.LiquiditySymbol)
	printField(w, "Fuel", cfg.FuelSymbol)
	printField(w, "Premium", valueOr(strings.Join(cfg.PremiumSymbols, ", "), "-"))
	printField(w, "Tradeable", valueOr(strings.Join(cfg.TradeableSymbols, ", "), "-"))
	fmt.Fprintln(w)

	p := cfg.Policy
	printField(w, "Critical / min / target", fmt.Sprintf("%s / %s / %s", p.CriticalBalance, p.MinBalance, p.TargetBalance))
	printField(w, "Reserve tiers", fmt.Sprintf("%s / %s / %s", p.Tier1, p.Tier2, p.Tier3))
	printField(w, "Power-up fraction", p.PowerUpFraction)
	printField(w, "Fuel reserve floor", p.FuelReserveFloor)
	printField(w, "Min fuel price", p.MinFuelPrice)
	printField(w, "Slippage buffer", p.SlippageBuffer)
	printField(w, "Sell on moderate", p.SellOnModerate)
	printField(w, "Critical override", fmt.Sprintf("%t (hard floor %s)", p.CriticalOverride, p.CriticalHardFloor))
	printField(w, "Dust threshold", p.DustThreshold)
	printField(w, "Tradeable fraction", p.TradeableSellFraction)
	printField(w, "Tradeable min fill %", p.TradeableMinFillPct)
	printField(w, "Tradeable min proceeds", p.TradeableMinProceeds)
	fmt.Fprintln(w)

	printField(w, "Cooldown", cfg.Cooldown())
	printField(w, "Watch interval", cfg.WatchInterval())
	printField(w, "Metrics address", valueOr(cfg.MetricsAddr, "(disabled)"))
	printField(w, "Log level", cfg.LogLevel)
	printField(w, "Cache enabled", cfg.CacheEnabled)
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
