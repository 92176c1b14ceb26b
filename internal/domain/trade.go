// Package domain holds the wire-level types shared across the trade pipeline.
// The JSON shape of TradeRequest is a compatibility contract with the agent
// callers and with records already present in existing trade logs, so field
// names and nesting must not change.
package domain

import "strings"

// Action is a proposed trading action.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// ParseAction normalizes a raw action string to a known Action.
// The second return value is false for anything outside buy/sell/hold.
func ParseAction(raw string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	switch a {
	case ActionBuy, ActionSell, ActionHold:
		return a, true
	}
	return a, false
}

// OrderType is the order flavor requested for a trade.
type OrderType string

const (
	OrderMarket     OrderType = "market"
	OrderLimit      OrderType = "limit"
	OrderStopLoss   OrderType = "stop_loss"
	OrderTakeProfit OrderType = "take_profit"
)

// Asset describes the instrument a TradeRequest refers to.
type Asset struct {
	Symbol          string  `json:"symbol"`
	CoinID          string  `json:"coin_id"`
	CoinMarketCap   float64 `json:"coin_market_cap"`
	CurrentPriceUSD float64 `json:"current_price_usd"`
	Volatility1D    float64 `json:"volatility_1d"`
	Currency        string  `json:"currency"`
}

// Position describes the sizing and exit parameters of a TradeRequest.
// Zero values mean "not set"; the policy engine decides whether that matters.
type Position struct {
	Quantity            float64   `json:"quantity"`
	PositionSizePercent float64   `json:"position_size_percent"`
	EntryPrice          float64   `json:"entry_price"`
	StopPrice           float64   `json:"stop_price"`
	TargetExitPrice     float64   `json:"target_exit_price,omitempty"`
	OrderType           OrderType `json:"order_type"`
}

// TradeRequest is the structured, immutable proposal to buy, sell or hold an
// asset. It is built once per decision cycle and never mutated afterwards;
// downstream components operate on copies.
type TradeRequest struct {
	ID              string   `json:"id"`
	Timestamp       string   `json:"timestamp"` // UTC, RFC3339, Z-suffixed
	Action          Action   `json:"action"`
	Asset           Asset    `json:"asset"`
	Position        Position `json:"position"`
	TodayTradeCount int      `json:"today_trade_count"`
	Rationale       string   `json:"rationale"`
}
