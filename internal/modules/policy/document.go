// Package policy loads versioned risk policy documents and validates trade
// requests against them.
package policy

// PositionSizing limits how large a single position may be relative to the
// portfolio.
type PositionSizing struct {
	MaxPositionSizePercent        float64 `json:"max_position_size_percent"`
	MaxSingleAssetExposurePercent float64 `json:"max_single_asset_exposure_percent"`
}

// DailyLimits caps trading activity per UTC calendar day.
type DailyLimits struct {
	MaxTradesPerDay int `json:"max_trades_per_day"`
}

// Requirement is a boolean required-flag section.
type Requirement struct {
	Required bool `json:"required"`
}

// RiskManagement groups the risk sections of a policy document.
type RiskManagement struct {
	PositionSizing PositionSizing `json:"position_sizing"`
	DailyLimits    DailyLimits    `json:"daily_limits"`
	StopLoss       Requirement    `json:"stop_loss"`
	TakeProfit     Requirement    `json:"take_profit"`
}

// Whitelist restricts trading to an explicit asset set. A nil Whitelist (or
// an empty asset list) disables the check.
type Whitelist struct {
	Assets []string `json:"assets"`
}

// AssetPolicies groups per-asset eligibility rules.
type AssetPolicies struct {
	Whitelist           *Whitelist `json:"whitelist"`
	MinimumMarketCapUSD float64    `json:"minimum_market_cap_usd"`
}

// TradingRules groups order-level rules.
type TradingRules struct {
	AllowedOrderTypes                []string `json:"allowed_order_types"`
	TradingHaltedIfVolatilityPercent float64  `json:"trading_halted_if_volatility_percent"`
}

// Document is a versioned risk policy. It is read-only input to validation;
// the engine never mutates it.
type Document struct {
	Version        string         `json:"version"`
	Name           string         `json:"name"`
	RiskManagement RiskManagement `json:"risk_management"`
	AssetPolicies  AssetPolicies  `json:"asset_policies"`
	TradingRules   TradingRules   `json:"trading_rules"`
}
