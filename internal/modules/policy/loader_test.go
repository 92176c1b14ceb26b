package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"version": "2.0",
		"risk_management": {
			"position_sizing": {"max_position_size_percent": 12.5},
			"daily_limits": {"max_trades_per_day": 3},
			"stop_loss": {"required": true},
			"take_profit": {"required": false}
		},
		"asset_policies": {
			"whitelist": {"assets": ["BTC"]},
			"minimum_market_cap_usd": 5000000
		},
		"trading_rules": {
			"allowed_order_types": ["market"],
			"trading_halted_if_volatility_percent": 25
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy_safe.json"), []byte(doc), 0o644))

	loader := NewLoader(dir, zerolog.New(nil).Level(zerolog.Disabled))

	pol, err := loader.Load("safe")
	require.NoError(t, err)

	assert.Equal(t, "2.0", pol.Version)
	assert.Equal(t, "safe", pol.Name) // defaulted from the file name
	assert.Equal(t, 12.5, pol.RiskManagement.PositionSizing.MaxPositionSizePercent)
	assert.Equal(t, 3, pol.RiskManagement.DailyLimits.MaxTradesPerDay)
	assert.True(t, pol.RiskManagement.StopLoss.Required)
	require.NotNil(t, pol.AssetPolicies.Whitelist)
	assert.Equal(t, []string{"BTC"}, pol.AssetPolicies.Whitelist.Assets)
	assert.Equal(t, []string{"market"}, pol.TradingRules.AllowedOrderTypes)
}

func TestLoader_LoadMissingPolicy(t *testing.T) {
	loader := NewLoader(t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))

	_, err := loader.Load("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestLoader_LoadMalformedPolicy(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy_broken.json"), []byte("{not json"), 0o644))

	loader := NewLoader(dir, zerolog.New(nil).Level(zerolog.Disabled))

	_, err := loader.Load("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoader_ShippedPolicies(t *testing.T) {
	loader := NewLoader(filepath.Join("..", "..", "..", "configs", "policies"), zerolog.New(nil).Level(zerolog.Disabled))

	for _, name := range []string{"safe", "aggressive"} {
		pol, err := loader.Load(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, pol.Name)
		assert.Greater(t, pol.RiskManagement.PositionSizing.MaxPositionSizePercent, 0.0)
		assert.Greater(t, pol.RiskManagement.DailyLimits.MaxTradesPerDay, 0)
		assert.NotEmpty(t, pol.TradingRules.AllowedOrderTypes)
	}
}
