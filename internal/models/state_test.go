package models

import (
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReportWriteOnce(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())

	require.NoError(t, s.SetReport(ReportMarket, "first"))
	err := s.SetReport(ReportMarket, "second")
	require.Error(t, err)
	assert.Equal(t, "first", s.Report(ReportMarket))
}

func TestSetReportUnknownKind(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())
	assert.Error(t, s.SetReport("weather", "sunny"))
}

func TestPlanFieldsWriteOnce(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())

	require.NoError(t, s.SetInvestmentPlan("plan"))
	assert.Error(t, s.SetInvestmentPlan("other"))

	require.NoError(t, s.SetTraderPlan("trade"))
	assert.Error(t, s.SetTraderPlan("other"))

	require.NoError(t, s.SetFinalDecision("BUY"))
	assert.Error(t, s.SetFinalDecision("SELL"))
}

func TestResetMessagesKeepsReports(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())
	require.NoError(t, s.SetReport(ReportNews, "headline digest"))
	s.AppendMessage(schema.AssistantMessage("tool chatter", nil))
	s.AppendMessage(schema.AssistantMessage("more chatter", nil))

	s.ResetMessages()

	msgs := s.MessagesSnapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "headline digest", s.Report(ReportNews))
}

func TestMessagesSnapshotIsACopy(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())
	snap := s.MessagesSnapshot()
	require.Len(t, snap, 1)

	s.AppendMessage(schema.AssistantMessage("new", nil))
	assert.Len(t, snap, 1)
	assert.Len(t, s.MessagesSnapshot(), 2)
}

func TestSituationOrdersReports(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())
	require.NoError(t, s.SetReport(ReportMarket, "M"))
	require.NoError(t, s.SetReport(ReportSentiment, "S"))
	require.NoError(t, s.SetReport(ReportNews, "N"))
	require.NoError(t, s.SetReport(ReportFundamentals, "F"))

	assert.Equal(t, "M\n\nS\n\nN\n\nF", s.Situation())
}

func TestAppendMessageIgnoresNil(t *testing.T) {
	s := NewTradingState("AAPL", time.Now())
	s.AppendMessage(nil)
	assert.Len(t, s.MessagesSnapshot(), 1)
}
