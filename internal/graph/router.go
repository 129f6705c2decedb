package graph

import (
	"tradecouncil/internal/consts"
	"tradecouncil/internal/models"
)

// Router decides the next participant during the two debate phases. Both
// methods are pure functions of the debate sub-state: they never invoke a
// model and never mutate anything.
//
// A "round" is one full cycle across all participants; counters increment
// per individual turn, so the research bound is 2x the configured rounds
// and the risk bound is 3x.
type Router struct {
	MaxDebateRounds      int
	MaxRiskDiscussRounds int
}

func NewRouter(maxDebateRounds, maxRiskDiscussRounds int) *Router {
	return &Router{
		MaxDebateRounds:      maxDebateRounds,
		MaxRiskDiscussRounds: maxRiskDiscussRounds,
	}
}

// NextResearchTurn returns the next research debater, or ResearchManager
// when the debate has used its turn budget. Bull opens; Bull and Bear then
// strictly alternate.
func (r *Router) NextResearchTurn(st *models.InvestDebateState) string {
	if st.Count >= 2*r.MaxDebateRounds {
		return consts.ResearchManager
	}
	if st.CurrentSpeaker == consts.BullResearcher {
		return consts.BearResearcher
	}
	// Covers Bear and the unset first turn.
	return consts.BullResearcher
}

// NextRiskTurn returns the next risk debater, or RiskJudge when the
// discussion has used its turn budget. The order is a fixed cycle
// Risky -> Safe -> Neutral, keyed off the latest speaker alone.
func (r *Router) NextRiskTurn(st *models.RiskDebateState) string {
	if st.Count >= 3*r.MaxRiskDiscussRounds {
		return consts.RiskJudge
	}
	switch st.LatestSpeaker {
	case consts.RiskyAnalyst:
		return consts.SafeAnalyst
	case consts.SafeAnalyst:
		return consts.NeutralAnalyst
	case consts.NeutralAnalyst:
		return consts.RiskyAnalyst
	default:
		return consts.RiskyAnalyst
	}
}
