package agents

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/utils"
)

// Analyst is one of the four report writers. Each owns exactly one report
// field; their reasoners may be tool-running react agents.
type Analyst struct {
	tag        string
	reportKind string
	promptName string
	reasoner   reasoner.Reasoner
	resultsDir string
}

func NewMarketAnalyst(r reasoner.Reasoner, resultsDir string) *Analyst {
	return &Analyst{
		tag:        consts.MarketAnalyst,
		reportKind: models.ReportMarket,
		promptName: "analysts/market_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func NewSocialAnalyst(r reasoner.Reasoner, resultsDir string) *Analyst {
	return &Analyst{
		tag:        consts.SocialMediaAnalyst,
		reportKind: models.ReportSentiment,
		promptName: "analysts/social_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func NewNewsAnalyst(r reasoner.Reasoner, resultsDir string) *Analyst {
	return &Analyst{
		tag:        consts.NewsAnalyst,
		reportKind: models.ReportNews,
		promptName: "analysts/news_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func NewFundamentalsAnalyst(r reasoner.Reasoner, resultsDir string) *Analyst {
	return &Analyst{
		tag:        consts.FundamentalsAnalyst,
		reportKind: models.ReportFundamentals,
		promptName: "analysts/fundamentals_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func (a *Analyst) Tag() string { return a.tag }

func (a *Analyst) Invoke(ctx context.Context, state *models.TradingState) error {
	tpl, err := utils.LoadPrompt(a.promptName)
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.SystemMessage(tpl),
		schema.MessagesPlaceholder("user_input", true),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"ticker":       state.CompanyOfInterest,
		"trade_date":   state.TradeDate,
		"current_date": time.Now().Format("2006-01-02"),
		"user_input":   state.MessagesSnapshot(),
	})
	if err != nil {
		return err
	}

	reply, err := a.reasoner.Invoke(ctx, msgs)
	if err != nil {
		return err
	}

	report := replyContent(reply.Content)
	if err := state.SetReport(a.reportKind, report); err != nil {
		return err
	}
	state.AppendMessage(reply)
	saveReport(a.resultsDir, state, a.tag+"_report.md", report)
	return nil
}
