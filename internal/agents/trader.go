package agents

import (
	"context"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/utils"
)

// Trader turns the research manager's plan into a concrete transaction
// proposal, ending with the FINAL TRANSACTION PROPOSAL marker the signal
// extractor looks for.
type Trader struct {
	reasoner   reasoner.Reasoner
	memory     *memory.Store
	resultsDir string
}

func NewTrader(r reasoner.Reasoner, mem *memory.Store, resultsDir string) *Trader {
	return &Trader{reasoner: r, memory: mem, resultsDir: resultsDir}
}

func (t *Trader) Tag() string { return consts.Trader }

func (t *Trader) Invoke(ctx context.Context, state *models.TradingState) error {
	pastMemories := recallLessons(ctx, t.memory, consts.TraderMemory, state.Situation(), 2)

	tpl, err := utils.LoadPrompt("trader/trader")
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.UserMessage(tpl),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"ticker":          state.CompanyOfInterest,
		"investment_plan": state.InvestmentPlan,
		"past_memory_str": pastMemories,
	})
	if err != nil {
		return err
	}

	reply, err := t.reasoner.Invoke(ctx, msgs)
	if err != nil {
		return err
	}

	plan := replyContent(reply.Content)
	if err := state.SetTraderPlan(plan); err != nil {
		return err
	}
	state.AppendMessage(reply)
	saveReport(t.resultsDir, state, "trader_plan.md", plan)
	return nil
}
