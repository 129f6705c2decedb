package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/graph"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	buyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	sellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	holdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	decisionBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2)
)

func printWelcome() {
	fmt.Println(titleStyle.Render("TradeCouncil - multi-agent trading deliberation"))
	fmt.Println()
}

func printRunHeader(symbol string, date time.Time) {
	fmt.Println(sectionStyle.Render(
		fmt.Sprintf("Deliberating %s for %s", symbol, date.Format("2006-01-02"))))
}

func printError(err error) {
	fmt.Println(errStyle.Render("error: " + err.Error()))
}

func printRunResult(result *graph.RunResult) {
	if result == nil || result.Decision == nil {
		return
	}
	d := result.Decision

	signal := d.Signal
	switch signal {
	case consts.SignalBuy:
		signal = buyStyle.Render(signal)
	case consts.SignalSell:
		signal = sellStyle.Render(signal)
	default:
		signal = holdStyle.Render(signal)
	}

	body := fmt.Sprintf("%s %s on %s\n\n%s",
		signal, d.Symbol, d.TradeDate, truncate(d.Rationale, 2000))
	fmt.Println(decisionBox.Render(body))

	if plan := result.State.InvestmentPlan; plan != "" {
		fmt.Println(sectionStyle.Render("Investment plan"))
		fmt.Println(truncate(plan, 1500))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n[... truncated]"
}
