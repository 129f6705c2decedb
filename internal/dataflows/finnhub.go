package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient fetches company news, insider sentiment and fundamental
// metrics from Finnhub.
type FinnhubClient struct {
	client *resty.Client
	cache  *Cache
	apiKey string
}

func NewFinnhubClient(apiKey, cacheDir string, cacheEnabled bool) *FinnhubClient {
	client := resty.New().
		SetBaseURL(finnhubBaseURL).
		SetTimeout(30 * time.Second)
	return &FinnhubClient{
		client: client,
		cache:  NewCache(filepath.Join(cacheDir, "finnhub"), 6*time.Hour, cacheEnabled),
		apiKey: apiKey,
	}
}

func (f *FinnhubClient) get(path string, params map[string]string) (string, error) {
	if f.apiKey == "" {
		return "", fmt.Errorf("finnhub API key not configured")
	}
	params["token"] = f.apiKey
	resp, err := f.client.R().SetQueryParams(params).Get(path)
	if err != nil {
		return "", fmt.Errorf("finnhub %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("finnhub %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

// CompanyNews returns articles about a symbol in [from, to].
func (f *FinnhubClient) CompanyNews(symbol string, from, to time.Time) ([]*NewsArticle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []*NewsArticle
	if f.cache.Get("finnhub", "company_news", cacheKey, &cached) {
		return cached, nil
	}

	body, err := f.get("/company-news", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	var articles []*NewsArticle
	gjson.Parse(body).ForEach(func(_, item gjson.Result) bool {
		articles = append(articles, &NewsArticle{
			Title:       item.Get("headline").String(),
			Content:     item.Get("summary").String(),
			URL:         item.Get("url").String(),
			Source:      item.Get("source").String(),
			PublishedAt: time.Unix(item.Get("datetime").Int(), 0),
		})
		return true
	})
	f.cache.Set("finnhub", "company_news", cacheKey, articles)
	return articles, nil
}

// InsiderSentiments returns the monthly insider sentiment series in
// [from, to].
func (f *FinnhubClient) InsiderSentiments(symbol string, from, to time.Time) ([]*InsiderSentiment, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []*InsiderSentiment
	if f.cache.Get("finnhub", "insider_sentiment", cacheKey, &cached) {
		return cached, nil
	}

	body, err := f.get("/stock/insider-sentiment", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	var sentiments []*InsiderSentiment
	gjson.Get(body, "data").ForEach(func(_, item gjson.Result) bool {
		sentiments = append(sentiments, &InsiderSentiment{
			Symbol: item.Get("symbol").String(),
			Year:   int(item.Get("year").Int()),
			Month:  int(item.Get("month").Int()),
			Change: item.Get("change").Int(),
			MSPR:   decimal.NewFromFloat(item.Get("mspr").Float()),
		})
		return true
	})
	f.cache.Set("finnhub", "insider_sentiment", cacheKey, sentiments)
	return sentiments, nil
}

// Fundamentals returns the company's basic financial metrics.
func (f *FinnhubClient) Fundamentals(symbol string) (*FundamentalMetrics, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached FundamentalMetrics
	if f.cache.Get("finnhub", "fundamentals", symbol, &cached) {
		return &cached, nil
	}

	body, err := f.get("/stock/metric", map[string]string{
		"symbol": symbol,
		"metric": "all",
	})
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]float64)
	gjson.Get(body, "metric").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			metrics[key.String()] = value.Float()
		}
		return true
	})
	result := &FundamentalMetrics{Symbol: symbol, Metrics: metrics}
	f.cache.Set("finnhub", "fundamentals", symbol, result)
	return result, nil
}
