// Package trading implements the trade decision pipeline: request
// construction, execution against the exchange, and the service that chains
// them together with policy validation and audit logging.
package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
	"tradewarden/internal/modules/audit"
	"tradewarden/internal/modules/portfolio"
)

// PortfolioSource produces fresh portfolio valuations.
type PortfolioSource interface {
	Valuate(ctx context.Context) (*portfolio.Snapshot, error)
}

// HistorySource answers trade history queries from the audit log.
type HistorySource interface {
	History(limit int) (audit.History, error)
}

// BuildParams are the raw trade parameters supplied by the decision-making
// caller. Missing optional numeric fields default to zero; whether that
// matters is the policy engine's call, not the builder's.
type BuildParams struct {
	Action          string  `json:"action"`
	CoinID          string  `json:"coin_id"`
	Symbol          string  `json:"symbol"`
	CoinMarketCap   float64 `json:"coin_market_cap"`
	Quantity        float64 `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	StopPrice       float64 `json:"stop_price"`
	TargetExitPrice float64 `json:"target_exit_price"`
	OrderType       string  `json:"order_type"`
	Currency        string  `json:"currency"`
	Volatility1D    float64 `json:"volatility_1d"`
	Rationale       string  `json:"rationale"`
}

// Builder constructs immutable TradeRequest records from raw parameters, a
// fresh portfolio snapshot and the audit-log trade count.
type Builder struct {
	portfolio PortfolioSource
	history   HistorySource
	log       zerolog.Logger
	now       func() time.Time
}

// NewBuilder creates a trade request builder.
func NewBuilder(portfolioSource PortfolioSource, history HistorySource, log zerolog.Logger) *Builder {
	return &Builder{
		portfolio: portfolioSource,
		history:   history,
		log:       log.With().Str("service", "trade_builder").Logger(),
		now:       time.Now,
	}
}

// Build assembles a self-contained TradeRequest. The request stays valid even
// if the portfolio or the log change afterwards: the position size percentage
// and today's trade count are snapshots taken here.
func (b *Builder) Build(ctx context.Context, p BuildParams) (*domain.TradeRequest, error) {
	snapshot, err := b.portfolio.Valuate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to valuate portfolio: %w", err)
	}

	// Only the derived count is needed, so the record limit stays minimal.
	hist, err := b.history.History(1)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history: %w", err)
	}

	positionSizePercent := 0.0
	if snapshot.TotalValueUSD > 0 {
		positionSizePercent = p.Quantity * p.EntryPrice / snapshot.TotalValueUSD * 100
	}

	currency := strings.ToLower(p.Currency)
	if currency == "" {
		currency = "usd"
	}

	req := &domain.TradeRequest{
		ID:        uuid.NewString(),
		Timestamp: b.now().UTC().Format(time.RFC3339Nano),
		Action:    domain.Action(strings.ToLower(p.Action)),
		Asset: domain.Asset{
			Symbol:          strings.ToLower(p.Symbol),
			CoinID:          strings.ToLower(p.CoinID),
			CoinMarketCap:   p.CoinMarketCap,
			CurrentPriceUSD: p.EntryPrice,
			Volatility1D:    p.Volatility1D,
			Currency:        currency,
		},
		Position: domain.Position{
			Quantity:            p.Quantity,
			PositionSizePercent: positionSizePercent,
			EntryPrice:          p.EntryPrice,
			StopPrice:           p.StopPrice,
			TargetExitPrice:     p.TargetExitPrice,
			OrderType:           domain.OrderType(strings.ToLower(p.OrderType)),
		},
		TodayTradeCount: hist.TodayTradeCount,
		Rationale:       p.Rationale,
	}

	b.log.Info().
		Str("id", req.ID).
		Str("action", string(req.Action)).
		Str("symbol", req.Asset.Symbol).
		Float64("position_size_percent", req.Position.PositionSizePercent).
		Int("today_trade_count", req.TodayTradeCount).
		Msg("Trade request built")

	return req, nil
}
