package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewarden/internal/domain"
	"tradewarden/internal/modules/audit"
	"tradewarden/internal/modules/policy"
	"tradewarden/internal/modules/portfolio"
)

type mockPolicies struct {
	doc *policy.Document
	err error
}

func (m *mockPolicies) Load(name string) (*policy.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

// permissivePolicy approves the trade produced by testBuildParams against a
// 10000 USD portfolio.
func permissivePolicy() *policy.Document {
	return &policy.Document{
		Version: "1.0",
		Name:    "aggressive",
		RiskManagement: policy.RiskManagement{
			PositionSizing: policy.PositionSizing{MaxPositionSizePercent: 25},
			DailyLimits:    policy.DailyLimits{MaxTradesPerDay: 10},
			StopLoss:       policy.Requirement{Required: true},
		},
		AssetPolicies: policy.AssetPolicies{
			Whitelist:           &policy.Whitelist{Assets: []string{"BTC", "ETH"}},
			MinimumMarketCapUSD: 1_000_000_000,
		},
		TradingRules: policy.TradingRules{
			AllowedOrderTypes:                []string{"market", "limit", "stop_loss", "take_profit"},
			TradingHaltedIfVolatilityPercent: 30,
		},
	}
}

type serviceFixture struct {
	service  *Service
	exchange *mockExchange
	auditLog *mockAudit
}

func newTestService(t *testing.T, policies PolicyProvider) *serviceFixture {
	t.Helper()

	disabled := zerolog.New(nil).Level(zerolog.Disabled)
	pf := &mockPortfolio{snapshot: &portfolio.Snapshot{TotalValueUSD: 10000}}
	builder := newTestBuilder(pf, &mockHistory{})
	exchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 42, Status: "FILLED"}}
	auditLog := &mockAudit{}
	executor := NewExecutor(exchange, auditLog, "usdt", disabled)

	svc := NewService(builder, policy.NewEngine(disabled), policies, "aggressive", executor, auditLog, disabled)
	return &serviceFixture{service: svc, exchange: exchange, auditLog: auditLog}
}

func TestDecide_ApprovedTradeExecutes(t *testing.T) {
	fx := newTestService(t, &mockPolicies{doc: permissivePolicy()})

	outcome, err := fx.service.Decide(context.Background(), testBuildParams())
	require.NoError(t, err)

	assert.Equal(t, policy.StatusApproved, outcome.Decision.Status)
	require.NotNil(t, outcome.Execution)
	assert.Equal(t, domain.ExecutionExecuted, outcome.Execution.Status)

	require.Len(t, fx.exchange.orders, 1)
	assert.Equal(t, "BTCUSDT", fx.exchange.orders[0].Symbol)

	require.Len(t, fx.auditLog.records, 1)
	assert.Equal(t, audit.RecordTradeExecuted, fx.auditLog.records[0].Type)
}

func TestDecide_RejectedTradeIsRecordedNotExecuted(t *testing.T) {
	strict := permissivePolicy()
	strict.RiskManagement.PositionSizing.MaxPositionSizePercent = 1
	fx := newTestService(t, &mockPolicies{doc: strict})

	outcome, err := fx.service.Decide(context.Background(), testBuildParams())
	require.NoError(t, err)

	assert.Equal(t, policy.StatusRejected, outcome.Decision.Status)
	assert.Equal(t, "position_size_percent", outcome.Decision.Field)
	assert.Nil(t, outcome.Execution)
	assert.Empty(t, fx.exchange.orders)

	require.Len(t, fx.auditLog.records, 1)
	rec := fx.auditLog.records[0]
	assert.Equal(t, audit.RecordPolicyRejected, rec.Type)
	require.NotNil(t, rec.Rejection)
	assert.Equal(t, policy.StatusRejected, rec.Rejection.Status)
	require.NotNil(t, rec.Request)
	assert.Equal(t, outcome.Request.ID, rec.Request.ID)
}

func TestDecide_HoldIsApprovedAndLogged(t *testing.T) {
	fx := newTestService(t, &mockPolicies{doc: permissivePolicy()})

	params := testBuildParams()
	params.Action = "hold"

	outcome, err := fx.service.Decide(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, policy.StatusApproved, outcome.Decision.Status)
	require.NotNil(t, outcome.Execution)
	assert.Equal(t, domain.ExecutionLoggedHold, outcome.Execution.Status)
	assert.Empty(t, fx.exchange.orders)

	require.Len(t, fx.auditLog.records, 1)
	assert.Equal(t, audit.RecordTradeLoggedHold, fx.auditLog.records[0].Type)
}

func TestDecide_PolicyLoadFailureIsFatal(t *testing.T) {
	fx := newTestService(t, &mockPolicies{err: errors.New("no such policy")})

	_, err := fx.service.Decide(context.Background(), testBuildParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to load policy "aggressive"`)
	assert.Empty(t, fx.exchange.orders)
	assert.Empty(t, fx.auditLog.records)
}

func TestDecide_RejectionRecordWriteFailureSurfaces(t *testing.T) {
	strict := permissivePolicy()
	strict.RiskManagement.PositionSizing.MaxPositionSizePercent = 1
	fx := newTestService(t, &mockPolicies{doc: strict})
	fx.auditLog.err = errors.New("disk full")

	outcome, err := fx.service.Decide(context.Background(), testBuildParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record policy rejection")
	// The decision itself is still returned with the error.
	require.NotNil(t, outcome)
	assert.Equal(t, policy.StatusRejected, outcome.Decision.Status)
}

func TestValidate_WritesNothingAndExecutesNothing(t *testing.T) {
	fx := newTestService(t, &mockPolicies{doc: permissivePolicy()})

	outcome, err := fx.service.Validate(context.Background(), testBuildParams())
	require.NoError(t, err)

	assert.Equal(t, policy.StatusApproved, outcome.Decision.Status)
	assert.Nil(t, outcome.Execution)
	assert.Empty(t, fx.exchange.orders)
	assert.Empty(t, fx.auditLog.records)
}

func TestValidate_RejectionCarriesFullDecision(t *testing.T) {
	strict := permissivePolicy()
	strict.AssetPolicies.Whitelist = &policy.Whitelist{Assets: []string{"ETH"}}
	fx := newTestService(t, &mockPolicies{doc: strict})

	outcome, err := fx.service.Validate(context.Background(), testBuildParams())
	require.NoError(t, err)

	assert.Equal(t, policy.StatusRejected, outcome.Decision.Status)
	assert.Equal(t, "asset_symbol", outcome.Decision.Field)
	assert.Equal(t, []string{"ETH"}, outcome.Decision.Allowed)
	assert.Empty(t, fx.auditLog.records)
}

func TestPolicyName(t *testing.T) {
	fx := newTestService(t, &mockPolicies{doc: permissivePolicy()})
	assert.Equal(t, "aggressive", fx.service.PolicyName())
}
