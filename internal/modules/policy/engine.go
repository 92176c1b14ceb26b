package policy

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
)

// Status tags a policy decision.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusConditional Status = "conditional"
)

// Decision is the outcome of validating one TradeRequest against one policy
// document. Rejections carry a structured violation (field, actual value,
// limit or allowed set). Downstream consumers parse these fields, so the
// shape is part of the wire contract.
type Decision struct {
	Status  Status   `json:"status"`
	Reason  string   `json:"reason"`
	Field   string   `json:"field,omitempty"`
	Actual  any      `json:"actual,omitempty"`
	Limit   any      `json:"limit,omitempty"`
	Allowed []string `json:"allowed,omitempty"`

	// CheckedValidations lists the checks performed, set on approval.
	CheckedValidations []string `json:"checked_validations,omitempty"`

	// SuggestedAdjustments accompany a conditional decision. No current rule
	// produces one; the variant exists for policy documents that do.
	SuggestedAdjustments map[string]any `json:"suggested_adjustments,omitempty"`
}

// Approved reports whether the decision allows execution.
func (d Decision) Approved() bool {
	return d.Status == StatusApproved
}

// checkNames are the validations run for non-hold requests, in execution
// order. The order is load-bearing: the first failing check determines the
// rejection reason.
var checkNames = []string{
	"action",
	"position_size",
	"daily_limits",
	"stop_loss_requirement",
	"take_profit_requirement",
	"asset_whitelist",
	"minimum_market_cap",
	"order_type",
	"volatility_check",
}

// Engine validates trade requests against policy documents. It is stateless
// and safe for concurrent use.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a policy engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("service", "policy_engine").Logger()}
}

// Validate runs the ordered, fail-fast validation chain and returns the
// resulting decision. It never mutates the request or the policy document,
// and rejections are returned as data, not errors.
func (e *Engine) Validate(req domain.TradeRequest, pol *Document) Decision {
	action, ok := domain.ParseAction(string(req.Action))
	if !ok {
		e.log.Warn().Str("action", string(req.Action)).Msg("Validation rejected: invalid action")
		return Decision{
			Status: StatusRejected,
			Reason: fmt.Sprintf("Invalid or missing action %q; must be buy, sell or hold", string(req.Action)),
			Field:  "action",
			Actual: string(req.Action),
		}
	}

	// Hold carries no market risk, so no further validation applies.
	if action == domain.ActionHold {
		return Decision{
			Status: StatusApproved,
			Reason: "Hold action requires no risk validation.",
		}
	}

	symbol := strings.ToUpper(req.Asset.Symbol)
	pos := req.Position

	e.log.Info().
		Str("action", string(action)).
		Str("symbol", symbol).
		Float64("position_size_percent", pos.PositionSizePercent).
		Int("today_trade_count", req.TodayTradeCount).
		Str("order_type", string(pos.OrderType)).
		Msg("Validating trade request")

	// Check 1: position sizing.
	maxPosition := pol.RiskManagement.PositionSizing.MaxPositionSizePercent
	if pos.PositionSizePercent > maxPosition {
		return e.reject(Decision{
			Reason: fmt.Sprintf("Position size %g%% exceeds max allowed %g%%", pos.PositionSizePercent, maxPosition),
			Field:  "position_size_percent",
			Actual: pos.PositionSizePercent,
			Limit:  maxPosition,
		}, symbol)
	}

	// Check 2: daily trade limit.
	maxTrades := pol.RiskManagement.DailyLimits.MaxTradesPerDay
	if req.TodayTradeCount >= maxTrades {
		return e.reject(Decision{
			Reason: fmt.Sprintf("Daily trade limit exceeded: %d trades today, max allowed %d", req.TodayTradeCount, maxTrades),
			Field:  "today_trade_count",
			Actual: req.TodayTradeCount,
			Limit:  maxTrades,
		}, symbol)
	}

	// Check 3: stop-loss requirement.
	if pol.RiskManagement.StopLoss.Required && pos.StopPrice == 0 {
		return e.reject(Decision{
			Reason: "Stop-loss is required by policy but not set",
			Field:  "stop_loss_price",
			Actual: pos.StopPrice,
		}, symbol)
	}

	// Check 4: take-profit requirement.
	if pol.RiskManagement.TakeProfit.Required && pos.TargetExitPrice == 0 {
		return e.reject(Decision{
			Reason: "Take-profit is required by policy but not set",
			Field:  "target_exit_price",
			Actual: pos.TargetExitPrice,
		}, symbol)
	}

	// Check 5: asset whitelist (case-insensitive).
	if wl := pol.AssetPolicies.Whitelist; wl != nil && len(wl.Assets) > 0 {
		if !containsFold(wl.Assets, symbol) {
			return e.reject(Decision{
				Reason:  fmt.Sprintf("Asset %s is not in whitelist. Allowed: %v", symbol, wl.Assets),
				Field:   "asset_symbol",
				Actual:  symbol,
				Allowed: wl.Assets,
			}, symbol)
		}
	}

	// Check 6: minimum market cap.
	minCap := pol.AssetPolicies.MinimumMarketCapUSD
	if req.Asset.CoinMarketCap < minCap {
		return e.reject(Decision{
			Reason: fmt.Sprintf("Asset market cap $%g is below minimum required $%g", req.Asset.CoinMarketCap, minCap),
			Field:  "coin_market_cap",
			Actual: req.Asset.CoinMarketCap,
			Limit:  minCap,
		}, symbol)
	}

	// Check 7: allowed order types (case-insensitive).
	orderType := strings.ToLower(string(pos.OrderType))
	if !containsFold(pol.TradingRules.AllowedOrderTypes, orderType) {
		return e.reject(Decision{
			Reason:  fmt.Sprintf("Order type %q is not allowed. Allowed types: %v", orderType, pol.TradingRules.AllowedOrderTypes),
			Field:   "order_type",
			Actual:  orderType,
			Allowed: pol.TradingRules.AllowedOrderTypes,
		}, symbol)
	}

	// Check 8: volatility halt.
	haltAt := pol.TradingRules.TradingHaltedIfVolatilityPercent
	if req.Asset.Volatility1D > haltAt {
		return e.reject(Decision{
			Reason: fmt.Sprintf("Trading halted due to high volatility %.2f%% exceeding threshold %.2f%%", req.Asset.Volatility1D, haltAt),
			Field:  "volatility_1d",
			Actual: req.Asset.Volatility1D,
			Limit:  haltAt,
		}, symbol)
	}

	e.log.Info().Str("symbol", symbol).Str("policy", pol.Name).Msg("Trade request approved")
	return Decision{
		Status:             StatusApproved,
		Reason:             "All risk validations passed",
		CheckedValidations: checkNames,
	}
}

// reject stamps the rejected status on a partially filled decision and logs it.
func (e *Engine) reject(d Decision, symbol string) Decision {
	d.Status = StatusRejected
	e.log.Warn().
		Str("symbol", symbol).
		Str("field", d.Field).
		Str("reason", d.Reason).
		Msg("Policy validation failed")
	return d
}

// containsFold reports whether list contains s, comparing case-insensitively.
func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
