package agents

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"tradecouncil/internal/consts"
)

// Verdict is the structured output demanded from the two judge roles.
type Verdict struct {
	Decision  string `json:"decision"`
	Rationale string `json:"rationale"`
}

// ParseVerdict extracts the JSON verdict from a judge's reply. Models wrap
// the object in prose and markdown fences, and frequently emit slightly
// broken JSON, so we take the outermost brace span and run it through
// repair before decoding.
func ParseVerdict(text string) (*Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in reply")
	}
	repaired, err := jsonrepair.RepairJSON(text[start : end+1])
	if err != nil {
		return nil, fmt.Errorf("repair verdict JSON: %w", err)
	}
	var v Verdict
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, fmt.Errorf("decode verdict JSON: %w", err)
	}
	v.Decision = strings.ToUpper(strings.TrimSpace(v.Decision))
	switch v.Decision {
	case consts.SignalBuy, consts.SignalHold, consts.SignalSell:
		return &v, nil
	}
	return nil, fmt.Errorf("verdict decision %q is not BUY, HOLD or SELL", v.Decision)
}

var proposalRe = regexp.MustCompile(`FINAL TRANSACTION PROPOSAL:\s*\**\s*(BUY|HOLD|SELL)`)

// ExtractSignal reduces a free-form final decision to BUY, HOLD or SELL.
// It tries, in order: a structured verdict, the trader's proposal marker,
// and the last bare keyword occurrence. An unreadable decision defaults to
// HOLD rather than failing the run.
func ExtractSignal(text string) string {
	if v, err := ParseVerdict(text); err == nil {
		return v.Decision
	}
	upper := strings.ToUpper(text)
	if m := proposalRe.FindStringSubmatch(upper); m != nil {
		return m[1]
	}
	signal := ""
	lastIdx := -1
	for _, s := range []string{consts.SignalBuy, consts.SignalHold, consts.SignalSell} {
		if idx := strings.LastIndex(upper, s); idx > lastIdx {
			lastIdx = idx
			signal = s
		}
	}
	if signal != "" {
		return signal
	}
	return consts.SignalHold
}
