package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/utils"
)

// ResearchManager closes the bull/bear debate. It weighs both full
// histories, emits a JSON verdict plus a detailed plan, and writes both the
// judge decision and the investment plan handed to the trader.
type ResearchManager struct {
	reasoner   reasoner.Reasoner
	memory     *memory.Store
	resultsDir string
}

func NewResearchManager(r reasoner.Reasoner, mem *memory.Store, resultsDir string) *ResearchManager {
	return &ResearchManager{reasoner: r, memory: mem, resultsDir: resultsDir}
}

func (m *ResearchManager) Tag() string { return consts.ResearchManager }

func (m *ResearchManager) Invoke(ctx context.Context, state *models.TradingState) error {
	debate := state.InvestmentDebateState
	pastMemories := recallLessons(ctx, m.memory, consts.InvestJudgeMemory, state.Situation(), 2)

	tpl, err := utils.LoadPrompt("managers/research_manager")
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.UserMessage(tpl),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"bull_history":    debate.BullHistory,
		"bear_history":    debate.BearHistory,
		"past_memory_str": pastMemories,
	})
	if err != nil {
		return err
	}

	reply, verdict, err := invokeForVerdict(ctx, m.reasoner, msgs)
	if err != nil {
		return err
	}

	decision := fmt.Sprintf("%s: %s", verdict.Decision, verdict.Rationale)
	debate.JudgeDecision = decision
	debate.CurrentSpeaker = consts.ResearchManager
	if err := state.SetInvestmentPlan(reply.Content); err != nil {
		return err
	}
	state.AppendMessage(reply)
	saveReport(m.resultsDir, state, "investment_plan.md", reply.Content)
	return nil
}

// RiskJudge closes the risk discussion and issues the run's final trade
// decision.
type RiskJudge struct {
	reasoner   reasoner.Reasoner
	memory     *memory.Store
	resultsDir string
}

func NewRiskJudge(r reasoner.Reasoner, mem *memory.Store, resultsDir string) *RiskJudge {
	return &RiskJudge{reasoner: r, memory: mem, resultsDir: resultsDir}
}

func (j *RiskJudge) Tag() string { return consts.RiskJudge }

func (j *RiskJudge) Invoke(ctx context.Context, state *models.TradingState) error {
	risk := state.RiskDebateState
	pastMemories := recallLessons(ctx, j.memory, consts.RiskJudgeMemory, state.Situation(), 2)

	tpl, err := utils.LoadPrompt("risk/risk_judge")
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.UserMessage(tpl),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"trader_plan":     state.TraderInvestmentPlan,
		"history":         risk.History,
		"past_memory_str": pastMemories,
	})
	if err != nil {
		return err
	}

	reply, verdict, err := invokeForVerdict(ctx, j.reasoner, msgs)
	if err != nil {
		return err
	}

	decision := fmt.Sprintf("%s: %s", verdict.Decision, verdict.Rationale)
	risk.JudgeDecision = decision
	risk.LatestSpeaker = consts.RiskJudge
	if err := state.SetFinalDecision(reply.Content); err != nil {
		return err
	}
	state.AppendMessage(reply)
	saveReport(j.resultsDir, state, "final_trade_decision.md", reply.Content)
	return nil
}

// invokeForVerdict runs a judge prompt and parses the structured verdict.
// A malformed reply gets exactly one corrective re-prompt carrying the
// parse error; a second malformed reply fails the stage.
func invokeForVerdict(ctx context.Context, r reasoner.Reasoner, msgs []*schema.Message) (*schema.Message, *Verdict, error) {
	reply, err := r.Invoke(ctx, msgs)
	if err != nil {
		return nil, nil, err
	}
	verdict, parseErr := ParseVerdict(reply.Content)
	if parseErr == nil {
		return reply, verdict, nil
	}

	retryMsgs := append(append([]*schema.Message{}, msgs...),
		reply,
		schema.UserMessage(fmt.Sprintf(
			"Your previous reply could not be parsed: %v. Respond again, ending with a single JSON object of the form {\"decision\": \"BUY\"|\"HOLD\"|\"SELL\", \"rationale\": \"...\"}.",
			parseErr)),
	)
	reply, err = r.Invoke(ctx, retryMsgs)
	if err != nil {
		return nil, nil, err
	}
	verdict, parseErr = ParseVerdict(reply.Content)
	if parseErr != nil {
		return nil, nil, &reasoner.MalformedOutputError{Raw: reply.Content, Err: parseErr}
	}
	return reply, verdict, nil
}
