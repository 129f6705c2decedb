package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooClient fetches quotes and daily bars from Yahoo Finance.
type YahooClient struct {
	cache *Cache
}

func NewYahooClient(cacheDir string, cacheEnabled bool) *YahooClient {
	return &YahooClient{
		cache: NewCache(filepath.Join(cacheDir, "yahoo"), 24*time.Hour, cacheEnabled),
	}
}

// Quote returns the latest regular-market bar for a symbol.
func (y *YahooClient) Quote(symbol string) (*PriceBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached PriceBar
	if y.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	bar := &PriceBar{
		Symbol:   symbol,
		Date:     time.Now(),
		Open:     decimal.NewFromFloat(q.RegularMarketOpen),
		High:     decimal.NewFromFloat(q.RegularMarketDayHigh),
		Low:      decimal.NewFromFloat(q.RegularMarketDayLow),
		Close:    decimal.NewFromFloat(q.RegularMarketPrice),
		AdjClose: decimal.NewFromFloat(q.RegularMarketPrice),
		Volume:   int64(q.RegularMarketVolume),
	}
	y.cache.Set("yahoo", "quote", symbol, bar)
	return bar, nil
}

// History returns daily bars over [start, end].
func (y *YahooClient) History(symbol string, start, end time.Time) ([]*PriceBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]string{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached []*PriceBar
	if y.cache.Get("yahoo", "history", cacheKey, &cached) {
		return cached, nil
	}

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	var bars []*PriceBar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, &PriceBar{
			Symbol:   symbol,
			Date:     time.Unix(int64(b.Timestamp), 0),
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.AdjClose,
			Volume:   int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	y.cache.Set("yahoo", "history", cacheKey, bars)
	return bars, nil
}

// HistoryWindow returns daily bars for the trailing number of days before
// the anchor date.
func (y *YahooClient) HistoryWindow(symbol string, anchor time.Time, days int) ([]*PriceBar, error) {
	return y.History(symbol, anchor.AddDate(0, 0, -days), anchor)
}
