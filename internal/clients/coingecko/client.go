// Package coingecko provides a batched price feed client for the CoinGecko
// simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches fiat quotes for coin IDs.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.client.SetBaseURL(baseURL)
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.SetTimeout(timeout)
	}
}

// NewClient creates a CoinGecko client.
func NewClient(log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		client: resty.New().SetBaseURL(defaultBaseURL).SetTimeout(10 * time.Second),
		log:    log.With().Str("client", "coingecko").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetPrices fetches quotes for the given coin IDs in one batched call.
// Best-effort: IDs CoinGecko does not know are simply absent from the result
// map. An empty id list returns an empty map without a network call.
func (c *Client) GetPrices(ctx context.Context, ids []string, currency string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetQueryParam("vs_currencies", currency).
		Get("/simple/price")
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("price API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse price response: %w", err)
	}

	prices := make(map[string]float64, len(raw))
	for id, quotes := range raw {
		if price, ok := quotes[currency]; ok {
			prices[id] = price
		}
	}

	c.log.Debug().Int("requested", len(ids)).Int("quoted", len(prices)).Msg("Fetched prices")
	return prices, nil
}
