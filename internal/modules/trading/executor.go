package trading

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
	"tradewarden/internal/modules/audit"
)

// AuditWriter appends records to the audit log.
type AuditWriter interface {
	Append(rec audit.Record) error
}

// Executor runs approved trade requests against the exchange. Every
// execution attempt, successful or not, produces exactly one audit record, so
// the log is a complete record of all attempts.
type Executor struct {
	exchange   domain.ExchangeClient
	auditLog   AuditWriter
	pairSuffix string // reference currency suffix appended to the asset symbol, e.g. "USDT"
	log        zerolog.Logger
}

// NewExecutor creates an execution engine.
func NewExecutor(exchange domain.ExchangeClient, auditLog AuditWriter, pairSuffix string, log zerolog.Logger) *Executor {
	return &Executor{
		exchange:   exchange,
		auditLog:   auditLog,
		pairSuffix: strings.ToUpper(pairSuffix),
		log:        log.With().Str("service", "trade_executor").Logger(),
	}
}

// Execute carries out one approved request. Hold requests never touch the
// exchange; buy/sell requests are translated to exchange order parameters and
// submitted synchronously. Exchange failures come back as an error-status
// result, not an error return; the error return is reserved for audit write
// failures, which must be distinguishable from a successful append.
func (ex *Executor) Execute(ctx context.Context, req domain.TradeRequest) (*domain.ExecutionResult, error) {
	switch req.Action {
	case domain.ActionHold:
		return ex.logHold(req)
	case domain.ActionBuy, domain.ActionSell:
		return ex.submit(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported action %q: use buy, sell or hold", req.Action)
	}
}

func (ex *Executor) logHold(req domain.TradeRequest) (*domain.ExecutionResult, error) {
	result := &domain.ExecutionResult{Status: domain.ExecutionLoggedHold}

	rec := audit.Record{
		Type:      audit.RecordTradeLoggedHold,
		Request:   &req,
		Execution: result,
	}
	if err := ex.auditLog.Append(rec); err != nil {
		return nil, fmt.Errorf("failed to log hold action: %w", err)
	}

	ex.log.Info().Str("symbol", req.Asset.Symbol).Str("coin_id", req.Asset.CoinID).Msg("Hold logged")
	return result, nil
}

func (ex *Executor) submit(ctx context.Context, req domain.TradeRequest) (*domain.ExecutionResult, error) {
	order, err := ex.buildOrder(req)
	var result *domain.ExecutionResult
	if err != nil {
		result = &domain.ExecutionResult{Status: domain.ExecutionError, Detail: err.Error()}
	} else {
		fill, submitErr := ex.exchange.SubmitOrder(ctx, order)
		if submitErr != nil {
			ex.log.Error().Err(submitErr).Str("symbol", order.Symbol).Msg("Order submission failed")
			result = &domain.ExecutionResult{Status: domain.ExecutionError, Detail: submitErr.Error()}
		} else {
			ex.log.Info().
				Str("action", string(req.Action)).
				Str("symbol", order.Symbol).
				Int64("order_id", fill.OrderID).
				Msg("Trade executed")
			result = &domain.ExecutionResult{Status: domain.ExecutionExecuted, Order: fill}
		}
	}

	// One audit record per attempt, whatever the outcome.
	rec := audit.Record{
		Type:      audit.RecordTradeExecuted,
		Request:   &req,
		Execution: result,
	}
	if appendErr := ex.auditLog.Append(rec); appendErr != nil {
		if result.Status == domain.ExecutionExecuted {
			// The fill is real but unrecorded. Surface the inconsistency
			// rather than losing it silently.
			return result, fmt.Errorf("order executed but audit write failed: %w", appendErr)
		}
		return result, fmt.Errorf("failed to write audit record: %w", appendErr)
	}

	return result, nil
}

// buildOrder maps a TradeRequest to exchange order parameters by order type.
func (ex *Executor) buildOrder(req domain.TradeRequest) (domain.ExchangeOrder, error) {
	side := "BUY"
	if req.Action == domain.ActionSell {
		side = "SELL"
	}

	order := domain.ExchangeOrder{
		Symbol:   strings.ToUpper(req.Asset.Symbol) + ex.pairSuffix,
		Side:     side,
		Type:     req.Position.OrderType,
		Quantity: req.Position.Quantity,
	}

	switch req.Position.OrderType {
	case domain.OrderMarket:
		// Quantity only.
	case domain.OrderLimit:
		order.Price = req.Position.EntryPrice
		order.TimeInForce = "GTC"
	case domain.OrderStopLoss, domain.OrderTakeProfit:
		order.StopPrice = req.Position.StopPrice
	default:
		return domain.ExchangeOrder{}, fmt.Errorf("unsupported order type %q", req.Position.OrderType)
	}

	return order, nil
}
