package graph

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tradecouncil/internal/agents"
	"tradecouncil/internal/config"
	"tradecouncil/internal/consts"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
)

// Sequencer drives one analysis run as an explicit dispatch loop: a fixed
// analyst stage, the two router-driven debate loops, and the trader in
// between. Every participant is looked up in a closed role table; an
// unknown tag is a programming error, not a fallback.
type Sequencer struct {
	cfg          *config.Config
	roles        map[string]agents.Role
	router       *Router
	analystOrder []string

	steps atomic.Int64
}

func NewSequencer(cfg *config.Config, roles []agents.Role) (*Sequencer, error) {
	table := make(map[string]agents.Role, len(roles))
	for _, r := range roles {
		if _, dup := table[r.Tag()]; dup {
			return nil, fmt.Errorf("duplicate role %q", r.Tag())
		}
		table[r.Tag()] = r
	}
	required := []string{
		consts.BullResearcher, consts.BearResearcher, consts.ResearchManager,
		consts.Trader,
		consts.RiskyAnalyst, consts.SafeAnalyst, consts.NeutralAnalyst, consts.RiskJudge,
	}
	for _, tag := range required {
		if _, ok := table[tag]; !ok {
			return nil, fmt.Errorf("missing role %q", tag)
		}
	}

	var analysts []string
	for _, tag := range []string{
		consts.MarketAnalyst, consts.SocialMediaAnalyst,
		consts.NewsAnalyst, consts.FundamentalsAnalyst,
	} {
		if _, ok := table[tag]; ok {
			analysts = append(analysts, tag)
		}
	}
	if len(analysts) == 0 {
		return nil, fmt.Errorf("at least one analyst role is required")
	}

	return &Sequencer{
		cfg:          cfg,
		roles:        table,
		router:       NewRouter(cfg.MaxDebateRounds, cfg.MaxRiskDiscussRounds),
		analystOrder: analysts,
	}, nil
}

// RunResult carries the final decision plus the full deliberation state for
// persistence and later reflection.
type RunResult struct {
	Decision        *models.TradingDecision
	State           *models.TradingState
	CompletedStages []string
}

// Run executes the full deliberation for one symbol and date. Any stage
// failure aborts the run with the state as it stood; partial turns are never
// committed, so counters and histories reflect only completed work.
func (s *Sequencer) Run(ctx context.Context, symbol string, date time.Time) (*RunResult, error) {
	state := models.NewTradingState(symbol, date)
	result := &RunResult{State: state}
	s.steps.Store(0)

	stages := []struct {
		name string
		run  func(context.Context, *models.TradingState) error
	}{
		{"analysts", s.runAnalysts},
		{"research_debate", s.runResearchDebate},
		{"trading", s.runTrading},
		{"risk_debate", s.runRiskDebate},
	}
	for _, stage := range stages {
		log.Printf("[sequencer] stage %s: begin", stage.name)
		if err := s.runStage(ctx, stage.run, state); err != nil {
			return result, fmt.Errorf("stage %s: %w", stage.name, err)
		}
		result.CompletedStages = append(result.CompletedStages, stage.name)
		log.Printf("[sequencer] stage %s: done (%d steps used)", stage.name, s.steps.Load())
	}

	result.Decision = &models.TradingDecision{
		Symbol:    symbol,
		TradeDate: state.TradeDate,
		Signal:    agents.ExtractSignal(state.FinalTradeDecision),
		Rationale: state.FinalTradeDecision,
		CreatedAt: time.Now(),
	}
	return result, nil
}

// runStage runs one coarse stage and prunes the message transcript after
// it, keeping reports and debate histories while dropping tool-call noise.
func (s *Sequencer) runStage(ctx context.Context, run func(context.Context, *models.TradingState) error, state *models.TradingState) error {
	defer state.ResetMessages()
	return run(ctx, state)
}

func (s *Sequencer) runAnalysts(ctx context.Context, state *models.TradingState) error {
	if s.cfg.ParallelAnalysts {
		g, gctx := errgroup.WithContext(ctx)
		for _, tag := range s.analystOrder {
			g.Go(func() error {
				return s.invoke(gctx, tag, state)
			})
		}
		return g.Wait()
	}
	for _, tag := range s.analystOrder {
		if err := s.invoke(ctx, tag, state); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) runResearchDebate(ctx context.Context, state *models.TradingState) error {
	for {
		next := s.router.NextResearchTurn(state.InvestmentDebateState)
		if err := s.invoke(ctx, next, state); err != nil {
			return err
		}
		if next == consts.ResearchManager {
			return nil
		}
		if state.InvestmentDebateState.Count > 2*s.cfg.MaxDebateRounds {
			return &reasoner.BudgetExceededError{
				Steps: state.InvestmentDebateState.Count,
				Limit: 2 * s.cfg.MaxDebateRounds,
			}
		}
	}
}

func (s *Sequencer) runTrading(ctx context.Context, state *models.TradingState) error {
	return s.invoke(ctx, consts.Trader, state)
}

func (s *Sequencer) runRiskDebate(ctx context.Context, state *models.TradingState) error {
	for {
		next := s.router.NextRiskTurn(state.RiskDebateState)
		if err := s.invoke(ctx, next, state); err != nil {
			return err
		}
		if next == consts.RiskJudge {
			return nil
		}
		if state.RiskDebateState.Count > 3*s.cfg.MaxRiskDiscussRounds {
			return &reasoner.BudgetExceededError{
				Steps: state.RiskDebateState.Count,
				Limit: 3 * s.cfg.MaxRiskDiscussRounds,
			}
		}
	}
}

// invoke dispatches one turn to a role, charging it against the run-wide
// step budget and bounding it with the per-stage timeout.
func (s *Sequencer) invoke(ctx context.Context, tag string, state *models.TradingState) error {
	role, ok := s.roles[tag]
	if !ok {
		return fmt.Errorf("no role registered for %q", tag)
	}

	steps := int(s.steps.Add(1))
	if steps > s.cfg.MaxRecurLimit {
		return &reasoner.BudgetExceededError{Steps: steps, Limit: s.cfg.MaxRecurLimit}
	}

	turnCtx := ctx
	if s.cfg.StageTimeoutSec > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.StageTimeoutSec)*time.Second)
		defer cancel()
	}

	if err := role.Invoke(turnCtx, state); err != nil {
		var budget *reasoner.BudgetExceededError
		if errors.As(err, &budget) {
			return err
		}
		return &reasoner.StageFailedError{Role: tag, Err: err}
	}
	return nil
}
