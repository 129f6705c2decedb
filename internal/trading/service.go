package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"tradecouncil/internal/agents"
	"tradecouncil/internal/config"
	"tradecouncil/internal/consts"
	"tradecouncil/internal/graph"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/reflection"
	"tradecouncil/internal/tools"
)

const agentMaxStep = 40

// Service assembles the full deliberation pipeline: tool-running analyst
// agents on the quick model, debaters and judges on the deep model, memory
// partitions on sqlite, and the sequencer driving them all.
type Service struct {
	cfg       *config.Config
	sequencer *graph.Sequencer
	store     *memory.Store
	reflector *reflection.Engine
}

func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	deepModel, err := reasoner.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("deep think model: %w", err)
	}
	quickModel, err := reasoner.NewQuickChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("quick think model: %w", err)
	}

	embedder := memory.NewOpenAIEmbedder(cfg.EmbeddingBackendURL, cfg.APIKey, cfg.EmbeddingModel)
	store, err := memory.NewStore(cfg.MemoryDBPath, embedder)
	if err != nil {
		return nil, err
	}

	deep := reasoner.NewChatReasoner(deepModel)
	quick := reasoner.NewChatReasoner(quickModel)

	roles := []agents.Role{
		agents.NewBullResearcher(deep, store, cfg.ResultsDir),
		agents.NewBearResearcher(deep, store, cfg.ResultsDir),
		agents.NewResearchManager(deep, store, cfg.ResultsDir),
		agents.NewTrader(deep, store, cfg.ResultsDir),
		agents.NewRiskyDebater(quick, cfg.ResultsDir),
		agents.NewSafeDebater(quick, cfg.ResultsDir),
		agents.NewNeutralDebater(quick, cfg.ResultsDir),
		agents.NewRiskJudge(deep, store, cfg.ResultsDir),
	}

	analystBuilders := []struct {
		tag  string
		make func(reasoner.Reasoner, string) *agents.Analyst
	}{
		{consts.MarketAnalyst, agents.NewMarketAnalyst},
		{consts.SocialMediaAnalyst, agents.NewSocialAnalyst},
		{consts.NewsAnalyst, agents.NewNewsAnalyst},
		{consts.FundamentalsAnalyst, agents.NewFundamentalsAnalyst},
	}
	for _, ab := range analystBuilders {
		r, err := analystReasoner(ctx, cfg, quickModel, ab.tag)
		if err != nil {
			return nil, fmt.Errorf("analyst %s: %w", ab.tag, err)
		}
		roles = append(roles, ab.make(r, cfg.ResultsDir))
	}

	seq, err := graph.NewSequencer(cfg, roles)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:       cfg,
		sequencer: seq,
		store:     store,
		reflector: reflection.NewEngine(deep, store),
	}, nil
}

// analystReasoner builds a tool-running react agent for an analyst, or a
// plain chat reasoner when the analyst has no tools (offline mode).
func analystReasoner(ctx context.Context, cfg *config.Config, m model.ToolCallingChatModel, tag string) (reasoner.Reasoner, error) {
	analystTools := tools.AnalystTools(cfg, tag)
	if len(analystTools) == 0 {
		return reasoner.NewChatReasoner(m), nil
	}
	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          agentMaxStep,
		ToolCallingModel: m,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: analystTools,
		},
		StreamToolCallChecker: toolCallChecker,
	})
	if err != nil {
		return nil, err
	}
	return reasoner.NewAgentReasoner(func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		return agent.Generate(ctx, input)
	}), nil
}

// toolCallChecker decides whether a streamed reply contains tool calls,
// draining the stream as react requires.
func toolCallChecker(_ context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()
	for {
		msg, err := sr.Recv()
		if err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		if len(msg.ToolCalls) > 0 {
			return true, nil
		}
	}
}

func (s *Service) Close() error {
	return s.store.Close()
}

// Analyze runs the full deliberation for a symbol on a trade date and
// persists the resulting state for later reflection.
func (s *Service) Analyze(ctx context.Context, symbol string, date time.Time) (*graph.RunResult, error) {
	result, err := s.sequencer.Run(ctx, symbol, date)
	if err != nil {
		return result, err
	}
	if saveErr := s.saveState(result.State); saveErr != nil {
		log.Printf("failed to persist run state: %v", saveErr)
	}
	return result, nil
}

// Reflect loads a persisted run, derives a lesson per learning role from
// the realized return, and stores the lessons for future recall.
func (s *Service) Reflect(ctx context.Context, symbol, date string, returns float64) error {
	state, err := s.loadState(symbol, date)
	if err != nil {
		return err
	}
	return s.reflector.ReflectRun(ctx, state, returns)
}

func (s *Service) statePath(symbol, date string) string {
	return filepath.Join(s.cfg.ResultsDir, symbol, date, "state.json")
}

func (s *Service) saveState(state *models.TradingState) error {
	path := s.statePath(state.CompanyOfInterest, state.TradeDate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Service) loadState(symbol, date string) (*models.TradingState, error) {
	data, err := os.ReadFile(s.statePath(symbol, date))
	if err != nil {
		return nil, fmt.Errorf("no saved run for %s on %s: %w", symbol, date, err)
	}
	var state models.TradingState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode saved run: %w", err)
	}
	if state.InvestmentDebateState == nil {
		state.InvestmentDebateState = &models.InvestDebateState{}
	}
	if state.RiskDebateState == nil {
		state.RiskDebateState = &models.RiskDebateState{}
	}
	return &state, nil
}
