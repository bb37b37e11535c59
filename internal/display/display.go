package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/dyike/CapitalGo/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(78)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(18)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	waitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// ReportDisplay renders cycle reports for a terminal.
type ReportDisplay struct {
	w io.Writer
}

func NewReportDisplay(w io.Writer) *ReportDisplay {
	return &ReportDisplay{w: w}
}

// Show writes the full report.
func (d *ReportDisplay) Show(r engine.Report) {
	fmt.Fprintln(d.w, RenderReport(r))
}

// ShowDeferred notes a sale held back by the cooldown.
func (d *ReportDisplay) ShowDeferred(remaining time.Duration) {
	fmt.Fprintln(d.w, waitStyle.Render(fmt.Sprintf("fuel sale deferred: cooldown has %s left", remaining.Round(time.Second))))
}

// ShowCooldownUnknown notes a sale held back because the cooldown state
// could not be read.
func (d *ReportDisplay) ShowCooldownUnknown(err error) {
	fmt.Fprintln(d.w, waitStyle.Render("fuel sale deferred: cooldown state unavailable: "+err.Error()))
}

// RenderReport formats every section of r.
func RenderReport(r engine.Report) string {
	var b strings.Builder
	header := fmt.Sprintf("CapitalGo  %s  %s", r.Account, r.TakenAt.Format(time.RFC3339))
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderFuel(r.Fuel)))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderReserve(r.Reserve)))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderTradeables(r.Tradeables)))
	return b.String()
}

func renderFuel(p engine.Plan) string {
	var b strings.Builder
	b.WriteString("Liquidity\n")
	c := p.Classification
	row(&b, "status", statusStyle(c.Status).Render(c.Status.String()))
	row(&b, "urgency", fmt.Sprintf("%d", c.Urgency))
	row(&b, "balance", c.Balance.String())

	if p.Sizing.BestBid.IsPositive() {
		row(&b, "needed", p.Sizing.LiquidityNeeded.String())
		row(&b, "best bid", p.Sizing.BestBid.String())
		row(&b, "fuel needed", p.Sizing.FuelNeeded.StringFixed(4))
		row(&b, "fuel available", p.Sizing.FuelAvailable.String())
	}
	if p.Walk.TopOrder != nil {
		row(&b, "book depth", fmt.Sprintf("%d", p.Walk.BookDepth))
	}
	row(&b, "decision", FormatRecommendation(p.Recommendation))
	if p.Override {
		b.WriteString(alertStyle.Render("critical override: selling below the minimum fuel price"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderReserve(r engine.Recommendation) string {
	var b strings.Builder
	b.WriteString("Reserve\n")
	row(&b, "decision", FormatRecommendation(r))
	if pu, ok := r.(engine.PowerUp); ok {
		row(&b, "stance", pu.Stance())
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTradeables(s engine.ScanReport) string {
	var b strings.Builder
	b.WriteString("Tradeables\n")
	if len(s.Results) == 0 {
		b.WriteString(mutedStyle.Render("(none configured)"))
		return b.String()
	}
	for _, res := range s.Results {
		if res.Sellable {
			row(&b, res.Symbol, actionStyle.Render(fmt.Sprintf("sell %s for ~%s (%s%% fill)",
				res.SellAmount, res.Walk.TotalRevenue.StringFixed(4), res.Walk.PercentFilled.StringFixed(1))))
			continue
		}
		row(&b, res.Symbol, mutedStyle.Render("hold: "+res.HoldReason))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRecommendation is a one-line summary of r.
func FormatRecommendation(r engine.Recommendation) string {
	switch v := r.(type) {
	case nil:
		return mutedStyle.Render("none")
	case engine.Hold:
		return mutedStyle.Render("hold")
	case engine.MonitorOnly:
		return waitStyle.Render("monitor only: " + v.Reason)
	case engine.SellFuelToTopOrder:
		return actionStyle.Render(fmt.Sprintf("sell %s fuel at %s to %s (~%s)",
			v.Amount, v.Price, v.Counterparty, v.ExpectedProceeds.StringFixed(4))) + shortfallNote(v.Shortfall)
	case engine.SellFuelCritical:
		return alertStyle.Render(fmt.Sprintf("CRITICAL sell %s fuel at %s to %s (~%s)",
			v.Amount, v.Price, v.Counterparty, v.ExpectedProceeds.StringFixed(4))) + shortfallNote(v.Shortfall)
	case engine.WaitForBetterPrice:
		return waitStyle.Render(fmt.Sprintf("wait: price %s below minimum %s", v.CurrentPrice, v.MinPrice))
	case engine.WaitNoBuyOrders:
		return waitStyle.Render("wait: no buy orders")
	case engine.WaitNoMarketData:
		return waitStyle.Render("wait: no market data")
	case engine.PowerUp:
		return actionStyle.Render(fmt.Sprintf("power up %s (tier %d)", v.Amount.StringFixed(4), v.Tier))
	case engine.NoPowerUp:
		return mutedStyle.Render(fmt.Sprintf("no power up: %s (short %s)", v.Reason, v.Shortfall))
	case engine.TradeableSellable:
		return actionStyle.Render(fmt.Sprintf("sell %s %s (~%s)", v.Amount, v.Symbol, v.ExpectedProceeds.StringFixed(4)))
	}
	return string(r.Kind())
}

// RenderCycles lists journal rows, newest first.
func RenderCycles(cycles []storage.CycleWithMeta) string {
	if len(cycles) == 0 {
		return mutedStyle.Render("no cycles recorded")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Decision journal"))
	b.WriteString("\n")
	for _, c := range cycles {
		line := fmt.Sprintf("%-36s  %s  %-8s  %-22s  %s",
			c.ID, c.TakenAt.Format("2006-01-02 15:04:05"), c.Liquidity, c.FuelKind, c.ReserveKind)
		if c.Status == storage.StatusError {
			line = alertStyle.Render(fmt.Sprintf("%-36s  %s  error: %s", c.ID, c.TakenAt.Format("2006-01-02 15:04:05"), c.Error))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(s engine.Status) lipgloss.Style {
	switch s {
	case engine.StatusCritical:
		return alertStyle
	case engine.StatusLow, engine.StatusModerate:
		return waitStyle
	}
	return actionStyle
}

func shortfallNote(short bool) string {
	if !short {
		return ""
	}
	return " " + mutedStyle.Render("[shortfall]")
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

