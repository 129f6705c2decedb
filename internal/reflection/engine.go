package reflection

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/reasoner"
	"tradecouncil/internal/utils"
)

const maxLessonChars = 4000

// Engine turns a completed run plus its realized return into one lesson per
// learning role, stored in that role's memory partition for recall in
// future similar situations.
type Engine struct {
	reasoner reasoner.Reasoner
	store    *memory.Store
}

func NewEngine(r reasoner.Reasoner, store *memory.Store) *Engine {
	return &Engine{reasoner: r, store: store}
}

// roleComponent extracts the contribution a partition's role made to the
// run. The table is closed: a partition without an extractor here does not
// learn.
var roleComponents = []struct {
	partition string
	role      string
	extract   func(*models.TradingState) string
}{
	{consts.BullMemory, "bull researcher", func(s *models.TradingState) string { return s.InvestmentDebateState.BullHistory }},
	{consts.BearMemory, "bear researcher", func(s *models.TradingState) string { return s.InvestmentDebateState.BearHistory }},
	{consts.TraderMemory, "trader", func(s *models.TradingState) string { return s.TraderInvestmentPlan }},
	{consts.InvestJudgeMemory, "research manager", func(s *models.TradingState) string { return s.InvestmentPlan }},
	{consts.RiskJudgeMemory, "risk judge", func(s *models.TradingState) string { return s.FinalTradeDecision }},
}

// ReflectRun derives and stores a lesson for every learning role. Roles are
// isolated: one role's failure is logged and the rest still learn. The
// returned error is non-nil only when every attempted role failed, so a
// partial state with a single failing role still reports the failure.
func (e *Engine) ReflectRun(ctx context.Context, state *models.TradingState, returns float64) error {
	situation := state.Situation()
	attempted := 0
	failed := 0
	var lastErr error
	for _, rc := range roleComponents {
		component := rc.extract(state)
		if component == "" {
			continue
		}
		attempted++
		if err := e.reflectRole(ctx, rc.partition, rc.role, component, situation, returns); err != nil {
			log.Printf("[reflection] %s failed: %v", rc.partition, err)
			failed++
			lastErr = err
		}
	}
	if attempted > 0 && failed == attempted {
		return fmt.Errorf("reflection failed for every role: %w", lastErr)
	}
	return nil
}

func (e *Engine) reflectRole(ctx context.Context, partition, role, component, situation string, returns float64) error {
	judgment := "incorrect"
	if returns > 0 {
		judgment = "correct"
	}

	tpl, err := utils.LoadPrompt("reflection/reflector")
	if err != nil {
		return err
	}
	promptTemp := prompt.FromMessages(schema.FString,
		schema.UserMessage(tpl),
	)
	msgs, err := promptTemp.Format(ctx, map[string]any{
		"role":      role,
		"returns":   fmt.Sprintf("%.4f", returns),
		"judgment":  judgment,
		"component": component,
		"situation": situation,
	})
	if err != nil {
		return err
	}

	reply, err := e.reasoner.Invoke(ctx, msgs)
	if err != nil {
		return err
	}
	lesson := reply.Content
	if len(lesson) > maxLessonChars {
		// Back off to a rune boundary so the stored lesson stays valid UTF-8.
		cut := maxLessonChars
		for cut > 0 && !utf8.RuneStart(lesson[cut]) {
			cut--
		}
		lesson = lesson[:cut]
	}
	outcome := returns
	_, err = e.store.AddSituation(ctx, partition, situation, lesson, &outcome)
	return err
}

// PositionReturns computes the fractional return of a position held from
// entry to exit, exact to the quoted prices.
func PositionReturns(entry, exit decimal.Decimal) (float64, error) {
	if entry.IsZero() {
		return 0, fmt.Errorf("entry price is zero")
	}
	r, _ := exit.Sub(entry).Div(entry).Float64()
	return r, nil
}
