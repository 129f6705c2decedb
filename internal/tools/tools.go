package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/config"
	"tradecouncil/internal/consts"
	"tradecouncil/internal/dataflows"
)

// MarketDataInput requests a window of daily bars ending at a date.
type MarketDataInput struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date,omitempty"`
	Days   int    `json:"days,omitempty"`
}

type MarketDataOutput struct {
	Symbol string `json:"symbol"`
	Table  string `json:"table"`
}

// NewMarketDataTool returns bars from Yahoo Finance as a markdown table.
func NewMarketDataTool(cfg *config.Config) tool.BaseTool {
	client := dataflows.NewYahooClient(cfg.DataCacheDir, cfg.CacheEnabled)
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_market_data",
			Desc: "Get daily OHLCV market data for a stock symbol",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock ticker symbol",
					Required: true,
				},
				"date": {
					Type:     "string",
					Desc:     "End date in YYYY-MM-DD format (default: today)",
					Required: false,
				},
				"days": {
					Type:     "integer",
					Desc:     "Number of trailing days to retrieve (default: 30)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input MarketDataInput) (*MarketDataOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			days := input.Days
			if days <= 0 {
				days = 30
			}
			anchor := time.Now()
			if input.Date != "" {
				t, err := time.Parse("2006-01-02", input.Date)
				if err != nil {
					return nil, fmt.Errorf("invalid date %q: %w", input.Date, err)
				}
				anchor = t
			}
			bars, err := client.HistoryWindow(input.Symbol, anchor, days)
			if err != nil {
				return nil, err
			}
			return &MarketDataOutput{
				Symbol: dataflows.NormalizeSymbol(input.Symbol),
				Table:  dataflows.FormatPriceTable(bars),
			}, nil
		},
	)
}

// NewsInput requests recent news about a symbol or topic.
type NewsInput struct {
	Query    string `json:"query"`
	DaysBack int    `json:"days_back,omitempty"`
}

type NewsOutput struct {
	Query    string `json:"query"`
	Articles string `json:"articles"`
}

// NewCompanyNewsTool returns recent company news from Finnhub, falling back
// to the Google News scraper when the API is not configured or fails.
func NewCompanyNewsTool(cfg *config.Config) tool.BaseTool {
	finnhub := dataflows.NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled)
	scraper := dataflows.NewNewsScraper(cfg.DataCacheDir, cfg.CacheEnabled)
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_news",
			Desc: "Get recent news articles about a stock symbol or market topic",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Stock symbol or search topic",
					Required: true,
				},
				"days_back": {
					Type:     "integer",
					Desc:     "Number of days to look back (default: 7)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input NewsInput) (*NewsOutput, error) {
			if input.Query == "" {
				return nil, fmt.Errorf("query parameter is required")
			}
			daysBack := input.DaysBack
			if daysBack <= 0 {
				daysBack = 7
			}
			to := time.Now()
			from := to.AddDate(0, 0, -daysBack)

			articles, err := finnhub.CompanyNews(input.Query, from, to)
			if err != nil || len(articles) == 0 {
				articles, err = scraper.Search(input.Query, from, to, 20)
				if err != nil {
					return nil, err
				}
			}
			return &NewsOutput{
				Query:    input.Query,
				Articles: dataflows.FormatArticles(articles),
			}, nil
		},
	)
}

// FundamentalsInput requests fundamental metrics for a symbol.
type FundamentalsInput struct {
	Symbol string `json:"symbol"`
}

type FundamentalsOutput struct {
	Symbol           string             `json:"symbol"`
	Metrics          map[string]float64 `json:"metrics"`
	InsiderSentiment string             `json:"insider_sentiment,omitempty"`
}

// NewFundamentalsTool returns company financial metrics plus the recent
// insider sentiment series from Finnhub.
func NewFundamentalsTool(cfg *config.Config) tool.BaseTool {
	finnhub := dataflows.NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled)
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_fundamentals",
			Desc: "Get fundamental financial metrics and insider sentiment for a stock symbol",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock ticker symbol",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input FundamentalsInput) (*FundamentalsOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			fundamentals, err := finnhub.Fundamentals(input.Symbol)
			if err != nil {
				return nil, err
			}
			out := &FundamentalsOutput{
				Symbol:  fundamentals.Symbol,
				Metrics: fundamentals.Metrics,
			}
			to := time.Now()
			sentiments, err := finnhub.InsiderSentiments(input.Symbol, to.AddDate(0, -3, 0), to)
			if err == nil {
				for _, s := range sentiments {
					out.InsiderSentiment += fmt.Sprintf("%d-%02d: change=%d mspr=%s\n",
						s.Year, s.Month, s.Change, s.MSPR.StringFixed(2))
				}
			}
			return out, nil
		},
	)
}

// AnalystTools returns the tool set available to one analyst role. Offline
// mode strips everything that needs the network.
func AnalystTools(cfg *config.Config, analystTag string) []tool.BaseTool {
	if !cfg.OnlineTools {
		return nil
	}
	switch analystTag {
	case consts.MarketAnalyst:
		return []tool.BaseTool{NewMarketDataTool(cfg)}
	case consts.SocialMediaAnalyst, consts.NewsAnalyst:
		return []tool.BaseTool{NewCompanyNewsTool(cfg)}
	case consts.FundamentalsAnalyst:
		return []tool.BaseTool{NewFundamentalsTool(cfg), NewMarketDataTool(cfg)}
	}
	return nil
}
