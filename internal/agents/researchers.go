package agents

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/utils"
)

// Researcher is a bull or bear debater in the research phase. Each turn
// reads the shared debate state, argues against the opponent's latest
// response, and commits its argument plus the turn counter in one step.
type Researcher struct {
	tag        string
	label      string
	partition  string
	promptName string
	reasoner   reasoner.Reasoner
	memory     *memory.Store
	resultsDir string
}

func NewBullResearcher(r reasoner.Reasoner, mem *memory.Store, resultsDir string) *Researcher {
	return &Researcher{
		tag:        consts.BullResearcher,
		label:      "Bull Analyst",
		partition:  consts.BullMemory,
		promptName: "researchers/bull_researcher",
		reasoner:   r,
		memory:     mem,
		resultsDir: resultsDir,
	}
}

func NewBearResearcher(r reasoner.Reasoner, mem *memory.Store, resultsDir string) *Researcher {
	return &Researcher{
		tag:        consts.BearResearcher,
		label:      "Bear Analyst",
		partition:  consts.BearMemory,
		promptName: "researchers/bear_researcher",
		reasoner:   r,
		memory:     mem,
		resultsDir: resultsDir,
	}
}

func (r *Researcher) Tag() string { return r.tag }

func (r *Researcher) Invoke(ctx context.Context, state *models.TradingState) error {
	debate := state.InvestmentDebateState
	pastMemories := recallLessons(ctx, r.memory, r.partition, state.Situation(), 2)

	tpl, err := utils.LoadPrompt(r.promptName)
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.UserMessage(tpl),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"market_research_report": state.Report(models.ReportMarket),
		"sentiment_report":       state.Report(models.ReportSentiment),
		"news_report":            state.Report(models.ReportNews),
		"fundamentals_report":    state.Report(models.ReportFundamentals),
		"history":                debate.History,
		"current_response":       debate.CurrentResponse,
		"past_memory_str":        pastMemories,
	})
	if err != nil {
		return err
	}

	reply, err := r.reasoner.Invoke(ctx, msgs)
	if err != nil {
		return err
	}

	labeled := r.label + ": " + replyContent(reply.Content)
	debate.History = strings.TrimSpace(debate.History + "\n" + labeled)
	if r.tag == consts.BullResearcher {
		debate.BullHistory = strings.TrimSpace(debate.BullHistory + "\n" + labeled)
	} else {
		debate.BearHistory = strings.TrimSpace(debate.BearHistory + "\n" + labeled)
	}
	debate.CurrentResponse = labeled
	debate.CurrentSpeaker = r.tag
	debate.Count++
	state.AppendMessage(reply)

	saveReport(r.resultsDir, state, r.tag+"_report.md", labeled)
	return nil
}
