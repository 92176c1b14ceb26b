// Package portfolio produces point-in-time valuations of the exchange
// account in a reference fiat currency.
package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
)

// AssetValuation is the valuation of a single held asset.
type AssetValuation struct {
	Symbol   string  `json:"symbol"`
	Free     float64 `json:"free"`
	Locked   float64 `json:"locked"`
	Total    float64 `json:"total"`
	PriceUSD float64 `json:"price_usd"`
	ValueUSD float64 `json:"value_usd"`
}

// Snapshot is a fresh portfolio valuation. Snapshots are built per request
// and never cached: position-size checks depend on current exchange state,
// not a stale one.
type Snapshot struct {
	Assets        map[string]AssetValuation `json:"assets"`
	TotalValueUSD float64                   `json:"total_portfolio_value_usd"`
}

// PriceSource provides batched fiat quotes for coin IDs. Best-effort: IDs
// with no available quote are simply absent from the result.
type PriceSource interface {
	GetPrices(ctx context.Context, ids []string, currency string) (map[string]float64, error)
}

// Valuator reads exchange balances, filters them to the known asset set and
// prices them in USD.
type Valuator struct {
	exchange domain.ExchangeClient
	prices   PriceSource

	// assetIDs maps upper-case asset symbols to their price-feed coin IDs.
	// Balances outside this set are ignored.
	assetIDs map[string]string

	// stableSymbol is the USD-pegged reference asset, priced at exactly 1.0
	// without a feed lookup.
	stableSymbol string

	log zerolog.Logger
}

// NewValuator creates a portfolio valuator.
func NewValuator(exchange domain.ExchangeClient, prices PriceSource, assetIDs map[string]string, stableSymbol string, log zerolog.Logger) *Valuator {
	normalized := make(map[string]string, len(assetIDs))
	for symbol, id := range assetIDs {
		normalized[strings.ToUpper(symbol)] = id
	}

	return &Valuator{
		exchange:     exchange,
		prices:       prices,
		assetIDs:     normalized,
		stableSymbol: strings.ToUpper(stableSymbol),
		log:          log.With().Str("service", "portfolio_valuator").Logger(),
	}
}

// Valuate fetches balances and quotes and returns the resulting snapshot.
// A balance or price fetch failure is fatal for the whole valuation; no
// partial snapshot is ever returned. A missing quote for an individual asset
// is not: that asset is valued at zero with a warning.
func (v *Valuator) Valuate(ctx context.Context) (*Snapshot, error) {
	balances, err := v.exchange.GetBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account balances: %w", err)
	}

	// Keep only known assets, remember which coin IDs need quotes.
	type holding struct {
		symbol string
		coinID string
		free   float64
		locked float64
	}
	var holdings []holding
	var ids []string
	for _, b := range balances {
		symbol := strings.ToUpper(b.Asset)
		coinID, known := v.assetIDs[symbol]
		if !known {
			continue
		}
		holdings = append(holdings, holding{symbol: symbol, coinID: coinID, free: b.Free, locked: b.Locked})
		if symbol != v.stableSymbol {
			ids = append(ids, coinID)
		}
	}

	quotes := map[string]float64{}
	if len(ids) > 0 {
		quotes, err = v.prices.GetPrices(ctx, ids, "usd")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch quotes: %w", err)
		}
	}

	snapshot := &Snapshot{Assets: make(map[string]AssetValuation, len(holdings))}
	for _, h := range holdings {
		price := 1.0
		if h.symbol != v.stableSymbol {
			var ok bool
			price, ok = quotes[h.coinID]
			if !ok {
				v.log.Warn().
					Str("symbol", h.symbol).
					Str("coin_id", h.coinID).
					Msg("No quote available, valuing asset at zero")
				price = 0
			}
		}

		total := h.free + h.locked
		val := AssetValuation{
			Symbol:   h.symbol,
			Free:     h.free,
			Locked:   h.locked,
			Total:    total,
			PriceUSD: price,
			ValueUSD: total * price,
		}
		snapshot.Assets[h.symbol] = val
		snapshot.TotalValueUSD += val.ValueUSD
	}

	v.log.Debug().
		Int("assets", len(snapshot.Assets)).
		Float64("total_value_usd", snapshot.TotalValueUSD).
		Msg("Portfolio valuated")

	return snapshot, nil
}
