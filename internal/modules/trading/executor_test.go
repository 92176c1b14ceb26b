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
)

type mockExchange struct {
	orders []domain.ExchangeOrder
	result *domain.ExchangeOrderResult
	err    error
}

func (m *mockExchange) GetBalances(ctx context.Context) ([]domain.ExchangeBalance, error) {
	return nil, nil
}

func (m *mockExchange) SubmitOrder(ctx context.Context, order domain.ExchangeOrder) (*domain.ExchangeOrderResult, error) {
	m.orders = append(m.orders, order)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockAudit struct {
	records []audit.Record
	err     error
}

func (m *mockAudit) Append(rec audit.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func executableRequest(action domain.Action, orderType domain.OrderType) domain.TradeRequest {
	return domain.TradeRequest{
		ID:     "req-1",
		Action: action,
		Asset:  domain.Asset{Symbol: "btc", CoinID: "bitcoin"},
		Position: domain.Position{
			Quantity:   0.25,
			EntryPrice: 50000,
			StopPrice:  48000,
			OrderType:  orderType,
		},
	}
}

func newTestExecutor(exchange *mockExchange, auditLog *mockAudit) *Executor {
	return NewExecutor(exchange, auditLog, "usdt", zerolog.New(nil).Level(zerolog.Disabled))
}

func TestExecute_HoldSkipsExchange(t *testing.T) {
	exchange := &mockExchange{}
	auditLog := &mockAudit{}
	ex := newTestExecutor(exchange, auditLog)

	result, err := ex.Execute(context.Background(), executableRequest(domain.ActionHold, domain.OrderMarket))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionLoggedHold, result.Status)
	assert.Empty(t, exchange.orders)
	require.Len(t, auditLog.records, 1)
	assert.Equal(t, audit.RecordTradeLoggedHold, auditLog.records[0].Type)
}

func TestExecute_BuySubmitsAndLogs(t *testing.T) {
	exchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 42, Symbol: "BTCUSDT", Status: "FILLED"}}
	auditLog := &mockAudit{}
	ex := newTestExecutor(exchange, auditLog)

	result, err := ex.Execute(context.Background(), executableRequest(domain.ActionBuy, domain.OrderMarket))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionExecuted, result.Status)
	require.NotNil(t, result.Order)
	assert.Equal(t, int64(42), result.Order.OrderID)

	require.Len(t, exchange.orders, 1)
	assert.Equal(t, "BTCUSDT", exchange.orders[0].Symbol)
	assert.Equal(t, "BUY", exchange.orders[0].Side)

	require.Len(t, auditLog.records, 1)
	assert.Equal(t, audit.RecordTradeExecuted, auditLog.records[0].Type)
	assert.Equal(t, domain.ExecutionExecuted, auditLog.records[0].Execution.Status)
}

func TestExecute_SellUsesSellSide(t *testing.T) {
	exchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 7}}
	ex := newTestExecutor(exchange, &mockAudit{})

	_, err := ex.Execute(context.Background(), executableRequest(domain.ActionSell, domain.OrderMarket))
	require.NoError(t, err)

	require.Len(t, exchange.orders, 1)
	assert.Equal(t, "SELL", exchange.orders[0].Side)
}

func TestExecute_OrderParameterMapping(t *testing.T) {
	testCases := []struct {
		name      string
		orderType domain.OrderType
		check     func(t *testing.T, o domain.ExchangeOrder)
	}{
		{
			name:      "market carries quantity only",
			orderType: domain.OrderMarket,
			check: func(t *testing.T, o domain.ExchangeOrder) {
				assert.Equal(t, 0.25, o.Quantity)
				assert.Zero(t, o.Price)
				assert.Zero(t, o.StopPrice)
				assert.Empty(t, o.TimeInForce)
			},
		},
		{
			name:      "limit adds price and time in force",
			orderType: domain.OrderLimit,
			check: func(t *testing.T, o domain.ExchangeOrder) {
				assert.Equal(t, 50000.0, o.Price)
				assert.Equal(t, "GTC", o.TimeInForce)
				assert.Zero(t, o.StopPrice)
			},
		},
		{
			name:      "stop loss adds stop price",
			orderType: domain.OrderStopLoss,
			check: func(t *testing.T, o domain.ExchangeOrder) {
				assert.Equal(t, 48000.0, o.StopPrice)
				assert.Zero(t, o.Price)
			},
		},
		{
			name:      "take profit adds stop price",
			orderType: domain.OrderTakeProfit,
			check: func(t *testing.T, o domain.ExchangeOrder) {
				assert.Equal(t, 48000.0, o.StopPrice)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 1}}
			ex := newTestExecutor(exchange, &mockAudit{})

			_, err := ex.Execute(context.Background(), executableRequest(domain.ActionBuy, tc.orderType))
			require.NoError(t, err)
			require.Len(t, exchange.orders, 1)
			tc.check(t, exchange.orders[0])
		})
	}
}

func TestExecute_ExchangeErrorIsStructuredResult(t *testing.T) {
	exchange := &mockExchange{err: errors.New("API error -2010: insufficient balance")}
	auditLog := &mockAudit{}
	ex := newTestExecutor(exchange, auditLog)

	result, err := ex.Execute(context.Background(), executableRequest(domain.ActionBuy, domain.OrderMarket))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionError, result.Status)
	assert.Contains(t, result.Detail, "insufficient balance")
	assert.Nil(t, result.Order)

	// The failed attempt still leaves exactly one audit record.
	require.Len(t, auditLog.records, 1)
	assert.Equal(t, domain.ExecutionError, auditLog.records[0].Execution.Status)
}

func TestExecute_UnknownOrderTypeDoesNotReachExchange(t *testing.T) {
	exchange := &mockExchange{}
	auditLog := &mockAudit{}
	ex := newTestExecutor(exchange, auditLog)

	result, err := ex.Execute(context.Background(), executableRequest(domain.ActionBuy, "trailing_stop"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionError, result.Status)
	assert.Empty(t, exchange.orders)
	assert.Len(t, auditLog.records, 1)
}

// Exactly one audit record per execution attempt, success or failure.
func TestExecute_OneAuditRecordPerAttempt(t *testing.T) {
	auditLog := &mockAudit{}

	okExchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 1}}
	ex := newTestExecutor(okExchange, auditLog)
	_, err := ex.Execute(context.Background(), executableRequest(domain.ActionBuy, domain.OrderMarket))
	require.NoError(t, err)

	failingExchange := &mockExchange{err: errors.New("boom")}
	ex = newTestExecutor(failingExchange, auditLog)
	_, err = ex.Execute(context.Background(), executableRequest(domain.ActionSell, domain.OrderMarket))
	require.NoError(t, err)

	_, err = ex.Execute(context.Background(), executableRequest(domain.ActionHold, domain.OrderMarket))
	require.NoError(t, err)

	assert.Len(t, auditLog.records, 3)
}

func TestExecute_AuditFailureAfterFillSurfacesInconsistency(t *testing.T) {
	exchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 9}}
	auditLog := &mockAudit{err: errors.New("disk full")}
	ex := newTestExecutor(exchange, auditLog)

	result, err := ex.Execute(context.Background(), executableRequest(domain.ActionBuy, domain.OrderMarket))

	// The fill happened; the caller must learn both facts.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executed but audit write failed")
	require.NotNil(t, result)
	assert.Equal(t, domain.ExecutionExecuted, result.Status)
}

func TestExecute_InvalidActionRejected(t *testing.T) {
	ex := newTestExecutor(&mockExchange{}, &mockAudit{})

	_, err := ex.Execute(context.Background(), executableRequest("short", domain.OrderMarket))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported action")
}

func TestExecute_PairSuffixUppercased(t *testing.T) {
	exchange := &mockExchange{result: &domain.ExchangeOrderResult{OrderID: 1}}
	ex := NewExecutor(exchange, &mockAudit{}, "usdc", zerolog.New(nil).Level(zerolog.Disabled))

	req := executableRequest(domain.ActionBuy, domain.OrderMarket)
	req.Asset.Symbol = "eth"

	_, err := ex.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDC", exchange.orders[0].Symbol)
}
