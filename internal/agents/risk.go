package agents

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/utils"
)

// RiskDebater is one of the three risk-stance voices. Each turn answers the
// other two stances' latest arguments and commits its own, together with the
// speaker marker and turn counter the router keys off.
type RiskDebater struct {
	tag        string
	label      string
	promptName string
	reasoner   reasoner.Reasoner
	resultsDir string
}

func NewRiskyDebater(r reasoner.Reasoner, resultsDir string) *RiskDebater {
	return &RiskDebater{
		tag:        consts.RiskyAnalyst,
		label:      "Risky Analyst",
		promptName: "risk/risky_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func NewSafeDebater(r reasoner.Reasoner, resultsDir string) *RiskDebater {
	return &RiskDebater{
		tag:        consts.SafeAnalyst,
		label:      "Safe Analyst",
		promptName: "risk/safe_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func NewNeutralDebater(r reasoner.Reasoner, resultsDir string) *RiskDebater {
	return &RiskDebater{
		tag:        consts.NeutralAnalyst,
		label:      "Neutral Analyst",
		promptName: "risk/neutral_analyst",
		reasoner:   r,
		resultsDir: resultsDir,
	}
}

func (d *RiskDebater) Tag() string { return d.tag }

func (d *RiskDebater) Invoke(ctx context.Context, state *models.TradingState) error {
	risk := state.RiskDebateState

	tpl, err := utils.LoadPrompt(d.promptName)
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.UserMessage(tpl),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"trader_plan":              state.TraderInvestmentPlan,
		"history":                  risk.History,
		"current_risky_response":   risk.CurrentRiskyResponse,
		"current_safe_response":    risk.CurrentSafeResponse,
		"current_neutral_response": risk.CurrentNeutralResponse,
	})
	if err != nil {
		return err
	}

	reply, err := d.reasoner.Invoke(ctx, msgs)
	if err != nil {
		return err
	}

	labeled := d.label + ": " + replyContent(reply.Content)
	risk.History = strings.TrimSpace(risk.History + "\n" + labeled)
	switch d.tag {
	case consts.RiskyAnalyst:
		risk.RiskyHistory = strings.TrimSpace(risk.RiskyHistory + "\n" + labeled)
		risk.CurrentRiskyResponse = labeled
	case consts.SafeAnalyst:
		risk.SafeHistory = strings.TrimSpace(risk.SafeHistory + "\n" + labeled)
		risk.CurrentSafeResponse = labeled
	case consts.NeutralAnalyst:
		risk.NeutralHistory = strings.TrimSpace(risk.NeutralHistory + "\n" + labeled)
		risk.CurrentNeutralResponse = labeled
	}
	risk.LatestSpeaker = d.tag
	risk.Count++
	state.AppendMessage(reply)

	saveReport(d.resultsDir, state, d.tag+"_report.md", labeled)
	return nil
}
