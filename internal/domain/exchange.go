package domain

import "context"

// ExchangeBalance is a single asset balance reported by the exchange account
// endpoint.
type ExchangeBalance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// ExchangeOrder carries the parameters for a single order submission.
// Which optional fields are set depends on Type: market orders carry only
// quantity, limit orders add Price and TimeInForce, stop_loss/take_profit
// orders add StopPrice.
type ExchangeOrder struct {
	Symbol      string
	Side        string // BUY or SELL
	Type        OrderType
	Quantity    float64
	Price       float64
	StopPrice   float64
	TimeInForce string
}

// ExchangeOrderResult is the exchange's response to a successful order
// submission.
type ExchangeOrderResult struct {
	OrderID          int64   `json:"order_id"`
	Symbol           string  `json:"symbol"`
	Side             string  `json:"side"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	Price            float64 `json:"price"`
	ExecutedQuantity float64 `json:"executed_quantity"`
}

// ExchangeClient is the boundary to the exchange. Implementations live in
// internal/clients; components depend on this interface so tests can swap in
// fakes.
type ExchangeClient interface {
	// GetBalances returns the account balances with non-zero holdings.
	GetBalances(ctx context.Context) ([]ExchangeBalance, error)

	// SubmitOrder submits one order synchronously and returns the exchange
	// result, or an error when the exchange rejects it or the call fails.
	SubmitOrder(ctx context.Context, order ExchangeOrder) (*ExchangeOrderResult, error)
}

// ExecutionStatus tags the outcome of one execution attempt.
type ExecutionStatus string

const (
	ExecutionExecuted   ExecutionStatus = "executed"
	ExecutionLoggedHold ExecutionStatus = "logged_hold"
	ExecutionError      ExecutionStatus = "error"
)

// ExecutionResult is the terminal outcome of running a TradeRequest through
// the execution engine.
type ExecutionResult struct {
	Status ExecutionStatus      `json:"status"`
	Order  *ExchangeOrderResult `json:"order,omitempty"`
	Detail string               `json:"detail,omitempty"`
}
