package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecouncil/internal/consts"
)

func TestParseVerdictCleanJSON(t *testing.T) {
	v, err := ParseVerdict(`{"decision": "SELL", "rationale": "deteriorating fundamentals"}`)
	require.NoError(t, err)
	assert.Equal(t, consts.SignalSell, v.Decision)
	assert.Equal(t, "deteriorating fundamentals", v.Rationale)
}

func TestParseVerdictWrappedInProse(t *testing.T) {
	text := "After weighing both sides I conclude:\n```json\n{\"decision\": \"buy\", \"rationale\": \"momentum\"}\n```\nThat is my call."
	v, err := ParseVerdict(text)
	require.NoError(t, err)
	assert.Equal(t, consts.SignalBuy, v.Decision)
}

func TestParseVerdictRepairsBrokenJSON(t *testing.T) {
	// Trailing comma and single quotes, typical model sloppiness.
	v, err := ParseVerdict(`{'decision': 'HOLD', 'rationale': 'mixed signals',}`)
	require.NoError(t, err)
	assert.Equal(t, consts.SignalHold, v.Decision)
}

func TestParseVerdictRejectsUnknownDecision(t *testing.T) {
	_, err := ParseVerdict(`{"decision": "MAYBE", "rationale": "unsure"}`)
	assert.Error(t, err)
}

func TestParseVerdictRejectsNoJSON(t *testing.T) {
	_, err := ParseVerdict("definitely a buy, trust me")
	assert.Error(t, err)
}

func TestExtractSignalFromVerdict(t *testing.T) {
	got := ExtractSignal(`{"decision": "SELL", "rationale": "overvalued"}`)
	assert.Equal(t, consts.SignalSell, got)
}

func TestExtractSignalFromProposalMarker(t *testing.T) {
	text := "Given the plan, I recommend caution.\n\nFINAL TRANSACTION PROPOSAL: **HOLD**"
	assert.Equal(t, consts.SignalHold, ExtractSignal(text))
}

func TestExtractSignalLastKeywordWins(t *testing.T) {
	text := "I considered a buy early on, but the risk review tilts this to a sell."
	assert.Equal(t, consts.SignalSell, ExtractSignal(text))
}

func TestExtractSignalDefaultsToHold(t *testing.T) {
	assert.Equal(t, consts.SignalHold, ExtractSignal("no actionable conclusion"))
}

func TestReplyContentFallback(t *testing.T) {
	assert.Equal(t, "(no argument provided)", replyContent("   \n"))
	assert.Equal(t, "solid case", replyContent("  solid case \n"))
}
