package agents

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/utils"
)

// Role is one deliberation participant. Invoke reads the state, performs
// exactly one reasoning turn, and commits its output. On error the state is
// left untouched, so a cancelled turn never increments a debate counter or
// half-writes a report.
type Role interface {
	Tag() string
	Invoke(ctx context.Context, state *models.TradingState) error
}

// recallLessons queries the role's memory partition for past lessons on
// similar situations. Storage failures degrade to "no history" with a log
// line; reasoning proceeds without context.
func recallLessons(ctx context.Context, store *memory.Store, partition, situation string, k int) string {
	if store == nil {
		return ""
	}
	matches, err := store.Query(ctx, partition, situation, k)
	if err != nil {
		log.Printf("[memory] query %s degraded to empty: %v", partition, err)
		return ""
	}
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, m.Recommendation)
	}
	return b.String()
}

// saveReport persists a role's output under results/<symbol>/<date>/,
// best effort.
func saveReport(resultsDir string, state *models.TradingState, fileName, content string) {
	if resultsDir == "" {
		return
	}
	dir := filepath.Join(resultsDir, state.CompanyOfInterest, state.TradeDate)
	if err := utils.WriteMarkdown(dir, fileName, content); err != nil {
		log.Printf("failed to write %s: %v", fileName, err)
	}
}

func replyContent(text string) string {
	argument := strings.TrimSpace(text)
	if argument == "" {
		return "(no argument provided)"
	}
	return argument
}
