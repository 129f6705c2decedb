package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradecouncil/internal/consts"
	"tradecouncil/internal/models"
)

func TestResearchTurnOpensWithBull(t *testing.T) {
	r := NewRouter(2, 1)
	st := &models.InvestDebateState{}
	assert.Equal(t, consts.BullResearcher, r.NextResearchTurn(st))
}

func TestResearchTurnAlternates(t *testing.T) {
	r := NewRouter(3, 1)

	st := &models.InvestDebateState{CurrentSpeaker: consts.BullResearcher, Count: 1}
	assert.Equal(t, consts.BearResearcher, r.NextResearchTurn(st))

	st = &models.InvestDebateState{CurrentSpeaker: consts.BearResearcher, Count: 2}
	assert.Equal(t, consts.BullResearcher, r.NextResearchTurn(st))
}

func TestResearchTurnHandsToJudgeAtExactBudget(t *testing.T) {
	r := NewRouter(2, 1)

	st := &models.InvestDebateState{CurrentSpeaker: consts.BearResearcher, Count: 3}
	assert.Equal(t, consts.BullResearcher, r.NextResearchTurn(st))

	st.Count = 4 // 2 rounds x 2 participants
	assert.Equal(t, consts.ResearchManager, r.NextResearchTurn(st))

	st.Count = 5
	assert.Equal(t, consts.ResearchManager, r.NextResearchTurn(st))
}

func TestResearchDebateSingleRoundSequence(t *testing.T) {
	r := NewRouter(1, 1)
	st := &models.InvestDebateState{}

	var sequence []string
	for {
		next := r.NextResearchTurn(st)
		sequence = append(sequence, next)
		if next == consts.ResearchManager {
			break
		}
		st.CurrentSpeaker = next
		st.Count++
	}
	assert.Equal(t, []string{consts.BullResearcher, consts.BearResearcher, consts.ResearchManager}, sequence)
}

func TestRiskTurnOpensWithRisky(t *testing.T) {
	r := NewRouter(1, 2)
	st := &models.RiskDebateState{}
	assert.Equal(t, consts.RiskyAnalyst, r.NextRiskTurn(st))
}

func TestRiskTurnCycles(t *testing.T) {
	r := NewRouter(1, 3)

	cases := []struct {
		last string
		want string
	}{
		{consts.RiskyAnalyst, consts.SafeAnalyst},
		{consts.SafeAnalyst, consts.NeutralAnalyst},
		{consts.NeutralAnalyst, consts.RiskyAnalyst},
		{"", consts.RiskyAnalyst},
	}
	for _, tc := range cases {
		st := &models.RiskDebateState{LatestSpeaker: tc.last, Count: 1}
		assert.Equal(t, tc.want, r.NextRiskTurn(st), "after %q", tc.last)
	}
}

func TestRiskTurnHandsToJudgeAtExactBudget(t *testing.T) {
	r := NewRouter(1, 2)

	st := &models.RiskDebateState{LatestSpeaker: consts.SafeAnalyst, Count: 5}
	assert.Equal(t, consts.NeutralAnalyst, r.NextRiskTurn(st))

	st.Count = 6 // 2 rounds x 3 participants
	assert.Equal(t, consts.RiskJudge, r.NextRiskTurn(st))
}

func TestRiskDebateTwoRoundsSequence(t *testing.T) {
	r := NewRouter(1, 2)
	st := &models.RiskDebateState{}

	var sequence []string
	for {
		next := r.NextRiskTurn(st)
		sequence = append(sequence, next)
		if next == consts.RiskJudge {
			break
		}
		st.LatestSpeaker = next
		st.Count++
	}
	assert.Equal(t, []string{
		consts.RiskyAnalyst, consts.SafeAnalyst, consts.NeutralAnalyst,
		consts.RiskyAnalyst, consts.SafeAnalyst, consts.NeutralAnalyst,
		consts.RiskJudge,
	}, sequence)
}
