package consts

// Role tags used by the sequencer's dispatch table and the debate routers.
const (
	// Analyst team
	MarketAnalyst       = "market_analyst"
	SocialMediaAnalyst  = "social_media_analyst"
	NewsAnalyst         = "news_analyst"
	FundamentalsAnalyst = "fundamentals_analyst"

	// Research team
	BullResearcher  = "bull_researcher"
	BearResearcher  = "bear_researcher"
	ResearchManager = "research_manager"

	// Trading team
	Trader = "trader"

	// Risk management team
	RiskyAnalyst   = "risky_analyst"
	SafeAnalyst    = "safe_analyst"
	NeutralAnalyst = "neutral_analyst"
	RiskJudge      = "risk_judge"
)

// Memory partitions, one per lesson-learning role.
const (
	BullMemory        = "bull_memory"
	BearMemory        = "bear_memory"
	TraderMemory      = "trader_memory"
	InvestJudgeMemory = "invest_judge_memory"
	RiskJudgeMemory   = "risk_judge_memory"
)

// Trade signals extracted from the risk judge's final decision.
const (
	SignalBuy  = "BUY"
	SignalHold = "HOLD"
	SignalSell = "SELL"
)
