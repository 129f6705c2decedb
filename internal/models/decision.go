package models

import "time"

// TradingDecision is the run's final output: a canonical signal plus the
// risk judge's full rationale.
type TradingDecision struct {
	Symbol    string    `json:"symbol"`
	TradeDate string    `json:"trade_date"`
	Signal    string    `json:"signal"` // BUY, HOLD or SELL
	Rationale string    `json:"rationale"`
	CreatedAt time.Time `json:"created_at"`
}
