package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Report kinds written by the analyst team. Each is written at most once,
// by exactly one analyst.
const (
	ReportMarket       = "market"
	ReportSentiment    = "sentiment"
	ReportNews         = "news"
	ReportFundamentals = "fundamentals"
)

// InvestDebateState tracks the bull/bear research debate.
type InvestDebateState struct {
	BullHistory     string `json:"bull_history"`
	BearHistory     string `json:"bear_history"`
	History         string `json:"history"`
	CurrentSpeaker  string `json:"current_speaker"` // role tag of the last debater to act
	CurrentResponse string `json:"current_response"`
	JudgeDecision   string `json:"judge_decision"`
	Count           int    `json:"count"` // individual turns, not full rounds
}

// RiskDebateState tracks the three-way risk discussion.
type RiskDebateState struct {
	RiskyHistory           string `json:"risky_history"`
	SafeHistory            string `json:"safe_history"`
	NeutralHistory         string `json:"neutral_history"`
	History                string `json:"history"`
	LatestSpeaker          string `json:"latest_speaker"`
	CurrentRiskyResponse   string `json:"current_risky_response"`
	CurrentSafeResponse    string `json:"current_safe_response"`
	CurrentNeutralResponse string `json:"current_neutral_response"`
	JudgeDecision          string `json:"judge_decision"`
	Count                  int    `json:"count"` // individual turns, not full rounds
}

// TradingState is the single mutable record threaded through one analysis
// run. Report and plan fields are write-once; the message transcript is
// append-only within a stage and pruned to a placeholder between stages.
type TradingState struct {
	mu sync.Mutex

	Messages          []*schema.Message `json:"messages"`
	CompanyOfInterest string            `json:"company_of_interest"`
	TradeDate         string            `json:"trade_date"`

	MarketReport       string `json:"market_report"`
	SentimentReport    string `json:"sentiment_report"`
	NewsReport         string `json:"news_report"`
	FundamentalsReport string `json:"fundamentals_report"`

	InvestmentDebateState *InvestDebateState `json:"investment_debate_state"`
	RiskDebateState       *RiskDebateState   `json:"risk_debate_state"`

	InvestmentPlan       string `json:"investment_plan"`
	TraderInvestmentPlan string `json:"trader_investment_plan"`
	FinalTradeDecision   string `json:"final_trade_decision"`
}

func NewTradingState(symbol string, date time.Time) *TradingState {
	return &TradingState{
		Messages: []*schema.Message{
			schema.UserMessage(fmt.Sprintf("Analyze trading opportunities for %s on %s",
				symbol, date.Format("2006-01-02"))),
		},
		CompanyOfInterest:     symbol,
		TradeDate:             date.Format("2006-01-02"),
		InvestmentDebateState: &InvestDebateState{},
		RiskDebateState:       &RiskDebateState{},
	}
}

// SetReport records an analyst report. A second write to the same kind is
// an error, never a silent overwrite.
func (s *TradingState) SetReport(kind, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var field *string
	switch kind {
	case ReportMarket:
		field = &s.MarketReport
	case ReportSentiment:
		field = &s.SentimentReport
	case ReportNews:
		field = &s.NewsReport
	case ReportFundamentals:
		field = &s.FundamentalsReport
	default:
		return fmt.Errorf("unknown report kind %q", kind)
	}
	if *field != "" {
		return fmt.Errorf("report %q already written", kind)
	}
	*field = text
	return nil
}

func (s *TradingState) Report(kind string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case ReportMarket:
		return s.MarketReport
	case ReportSentiment:
		return s.SentimentReport
	case ReportNews:
		return s.NewsReport
	case ReportFundamentals:
		return s.FundamentalsReport
	}
	return ""
}

func (s *TradingState) SetInvestmentPlan(text string) error {
	if s.InvestmentPlan != "" {
		return fmt.Errorf("investment plan already written")
	}
	s.InvestmentPlan = text
	return nil
}

func (s *TradingState) SetTraderPlan(text string) error {
	if s.TraderInvestmentPlan != "" {
		return fmt.Errorf("trader plan already written")
	}
	s.TraderInvestmentPlan = text
	return nil
}

func (s *TradingState) SetFinalDecision(text string) error {
	if s.FinalTradeDecision != "" {
		return fmt.Errorf("final trade decision already written")
	}
	s.FinalTradeDecision = text
	return nil
}

func (s *TradingState) AppendMessage(msg *schema.Message) {
	if msg == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
}

// MessagesSnapshot returns a copy of the transcript safe to hand to a
// model call while other roles may be appending.
func (s *TradingState) MessagesSnapshot() []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// ResetMessages discards the stage's tool-call transcript, leaving a single
// placeholder so downstream model backends always see a non-empty history.
// Report fields are untouched.
func (s *TradingState) ResetMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = []*schema.Message{schema.UserMessage("Continue")}
}

// Situation is the textual summary used as the memory query key: the four
// analyst reports in a fixed order.
func (s *TradingState) Situation() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s",
		s.Report(ReportMarket), s.Report(ReportSentiment),
		s.Report(ReportNews), s.Report(ReportFundamentals))
}
