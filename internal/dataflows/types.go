package dataflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one day of OHLCV data.
type PriceBar struct {
	Symbol   string          `json:"symbol"`
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// NewsArticle is a normalized article from any news source.
type NewsArticle struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// InsiderSentiment is Finnhub's monthly aggregate of insider activity.
type InsiderSentiment struct {
	Symbol string          `json:"symbol"`
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Change int64           `json:"change"`
	MSPR   decimal.Decimal `json:"mspr"`
}

// FundamentalMetrics is a flat bag of the company metrics exposed by the
// fundamentals endpoint; keys follow the provider's naming.
type FundamentalMetrics struct {
	Symbol  string             `json:"symbol"`
	Metrics map[string]float64 `json:"metrics"`
}

func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}

func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// FormatPriceTable renders bars as a markdown table for model consumption.
func FormatPriceTable(bars []*PriceBar) string {
	if len(bars) == 0 {
		return "No price data available."
	}
	var b strings.Builder
	b.WriteString("| Date | Open | High | Low | Close | Volume |\n")
	b.WriteString("|------|------|------|-----|-------|--------|\n")
	for _, bar := range bars {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n",
			bar.Date.Format("2006-01-02"),
			bar.Open.StringFixed(2), bar.High.StringFixed(2),
			bar.Low.StringFixed(2), bar.Close.StringFixed(2),
			bar.Volume)
	}
	return b.String()
}

// FormatArticles renders articles as markdown, newest first assumed.
func FormatArticles(articles []*NewsArticle) string {
	if len(articles) == 0 {
		return "No news found."
	}
	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "### %s (%s, %s)\n%s\n\n",
			a.Title, a.Source, a.PublishedAt.Format("2006-01-02"), a.Content)
	}
	return b.String()
}
