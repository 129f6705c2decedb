package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecouncil/internal/agents"
	"tradecouncil/internal/config"
	"tradecouncil/internal/consts"
	"tradecouncil/internal/reasoner"
)

// stubReasoner returns a fixed reply, or a fixed error, counting calls.
type stubReasoner struct {
	content string
	err     error
	calls   int
}

func (s *stubReasoner) Invoke(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.content, nil), nil
}

const verdictJSON = `{"decision": "BUY", "rationale": "upside outweighs risk"}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.MaxDebateRounds = 1
	cfg.MaxRiskDiscussRounds = 1
	cfg.StageTimeoutSec = 0
	return cfg
}

// testRoles builds the full role set on stub reasoners. Overrides replace
// the stub for specific tags.
func testRoles(overrides map[string]reasoner.Reasoner) []agents.Role {
	pick := func(tag, content string) reasoner.Reasoner {
		if r, ok := overrides[tag]; ok {
			return r
		}
		return &stubReasoner{content: content}
	}
	return []agents.Role{
		agents.NewMarketAnalyst(pick(consts.MarketAnalyst, "market report"), ""),
		agents.NewSocialAnalyst(pick(consts.SocialMediaAnalyst, "sentiment report"), ""),
		agents.NewNewsAnalyst(pick(consts.NewsAnalyst, "news report"), ""),
		agents.NewFundamentalsAnalyst(pick(consts.FundamentalsAnalyst, "fundamentals report"), ""),
		agents.NewBullResearcher(pick(consts.BullResearcher, "bull case"), nil, ""),
		agents.NewBearResearcher(pick(consts.BearResearcher, "bear case"), nil, ""),
		agents.NewResearchManager(pick(consts.ResearchManager, verdictJSON), nil, ""),
		agents.NewTrader(pick(consts.Trader, "FINAL TRANSACTION PROPOSAL: **BUY**"), nil, ""),
		agents.NewRiskyDebater(pick(consts.RiskyAnalyst, "go aggressive"), ""),
		agents.NewSafeDebater(pick(consts.SafeAnalyst, "stay careful"), ""),
		agents.NewNeutralDebater(pick(consts.NeutralAnalyst, "balance both"), ""),
		agents.NewRiskJudge(pick(consts.RiskJudge, verdictJSON), nil, ""),
	}
}

func TestRunFullPipeline(t *testing.T) {
	cfg := testConfig(t)
	seq, err := NewSequencer(cfg, testRoles(nil))
	require.NoError(t, err)

	result, err := seq.Run(context.Background(), "AAPL", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, result.Decision)

	assert.Equal(t, consts.SignalBuy, result.Decision.Signal)
	assert.Equal(t, "AAPL", result.Decision.Symbol)
	assert.Equal(t, "2025-03-14", result.Decision.TradeDate)
	assert.Equal(t, []string{"analysts", "research_debate", "trading", "risk_debate"}, result.CompletedStages)

	state := result.State
	assert.Equal(t, "market report", state.MarketReport)
	assert.Equal(t, "sentiment report", state.SentimentReport)
	assert.Equal(t, "news report", state.NewsReport)
	assert.Equal(t, "fundamentals report", state.FundamentalsReport)

	assert.Equal(t, 2, state.InvestmentDebateState.Count)
	assert.Contains(t, state.InvestmentDebateState.BullHistory, "Bull Analyst: bull case")
	assert.Contains(t, state.InvestmentDebateState.BearHistory, "Bear Analyst: bear case")
	assert.Contains(t, state.InvestmentDebateState.JudgeDecision, "BUY")

	assert.Equal(t, 3, state.RiskDebateState.Count)
	assert.Contains(t, state.RiskDebateState.JudgeDecision, "BUY")
	assert.NotEmpty(t, state.TraderInvestmentPlan)
	assert.NotEmpty(t, state.FinalTradeDecision)
}

func TestRunPrunesTranscriptBetweenStages(t *testing.T) {
	cfg := testConfig(t)
	seq, err := NewSequencer(cfg, testRoles(nil))
	require.NoError(t, err)

	result, err := seq.Run(context.Background(), "MSFT", time.Now())
	require.NoError(t, err)

	// Each stage prunes the transcript; reports survive.
	assert.Len(t, result.State.MessagesSnapshot(), 1)
	assert.NotEmpty(t, result.State.MarketReport)
	assert.NotEmpty(t, result.State.InvestmentPlan)
}

func TestRunParallelAnalysts(t *testing.T) {
	cfg := testConfig(t)
	cfg.ParallelAnalysts = true
	seq, err := NewSequencer(cfg, testRoles(nil))
	require.NoError(t, err)

	result, err := seq.Run(context.Background(), "NVDA", time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, result.State.MarketReport)
	assert.NotEmpty(t, result.State.SentimentReport)
	assert.NotEmpty(t, result.State.NewsReport)
	assert.NotEmpty(t, result.State.FundamentalsReport)
}

func TestRunStepBudgetExceeded(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRecurLimit = 3
	seq, err := NewSequencer(cfg, testRoles(nil))
	require.NoError(t, err)

	_, err = seq.Run(context.Background(), "AAPL", time.Now())
	require.Error(t, err)

	var budget *reasoner.BudgetExceededError
	assert.True(t, errors.As(err, &budget))
}

func TestRunFailedTurnCommitsNothing(t *testing.T) {
	cfg := testConfig(t)
	failing := &stubReasoner{err: fmt.Errorf("backend exploded")}
	seq, err := NewSequencer(cfg, testRoles(map[string]reasoner.Reasoner{
		consts.BearResearcher: failing,
	}))
	require.NoError(t, err)

	result, err := seq.Run(context.Background(), "AAPL", time.Now())
	require.Error(t, err)

	var stage *reasoner.StageFailedError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, consts.BearResearcher, stage.Role)

	// The bull's completed turn is committed; the bear's failed one is not.
	state := result.State
	assert.Equal(t, 1, state.InvestmentDebateState.Count)
	assert.Empty(t, state.InvestmentDebateState.BearHistory)
	assert.Contains(t, state.InvestmentDebateState.BullHistory, "bull case")
}

func TestRunCancellationAborts(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := NewSequencer(cfg, testRoles(nil))
	require.NoError(t, err)

	result, err := seq.Run(ctx, "AAPL", time.Now())
	require.Error(t, err)

	// Nothing committed: the first turn saw a cancelled context.
	assert.Empty(t, result.State.MarketReport)
	assert.Equal(t, 0, result.State.InvestmentDebateState.Count)
}

func TestRunMalformedVerdictEscalatesAfterReprompt(t *testing.T) {
	cfg := testConfig(t)
	malformed := &stubReasoner{content: "I think we should probably do something."}
	seq, err := NewSequencer(cfg, testRoles(map[string]reasoner.Reasoner{
		consts.ResearchManager: malformed,
	}))
	require.NoError(t, err)

	_, err = seq.Run(context.Background(), "AAPL", time.Now())
	require.Error(t, err)

	var mo *reasoner.MalformedOutputError
	assert.True(t, errors.As(err, &mo))
	assert.Equal(t, 2, malformed.calls)
}

func TestNewSequencerRejectsMissingRole(t *testing.T) {
	cfg := testConfig(t)
	roles := testRoles(nil)
	// Drop the trader.
	var trimmed []agents.Role
	for _, r := range roles {
		if r.Tag() == consts.Trader {
			continue
		}
		trimmed = append(trimmed, r)
	}
	_, err := NewSequencer(cfg, trimmed)
	assert.ErrorContains(t, err, consts.Trader)
}
