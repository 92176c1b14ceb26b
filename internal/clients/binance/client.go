// Package binance provides a Binance spot REST client covering the account
// and order endpoints the pipeline needs.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
)

const (
	mainnetBaseURL = "https://api.binance.com"
	testnetBaseURL = "https://testnet.binance.vision"
)

// Client is a Binance spot API client.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout. Every exchange call is bounded by
// this timeout in addition to the caller's context.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTestnet switches the client to the spot testnet.
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = testnetBaseURL
		} else {
			c.baseURL = mainnetBaseURL
		}
	}
}

// NewClient creates a Binance spot client.
func NewClient(apiKey, secretKey string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    mainnetBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("client", "binance").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile-time check that Client satisfies the exchange boundary.
var _ domain.ExchangeClient = (*Client)(nil)

// sign computes the HMAC-SHA256 signature over the encoded query string.
func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// doRequest executes one API call and returns the raw response body.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", "5000")
	}
	reqURL.RawQuery = params.Encode()
	if signed {
		reqURL.RawQuery += "&signature=" + c.sign(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API error %d: %s", apiErr.Code, apiErr.Message)
	}

	return body, nil
}

// GetBalances fetches the account balances, skipping assets with no holdings.
func (c *Client) GetBalances(ctx context.Context) ([]domain.ExchangeBalance, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/account", nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	var account struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("failed to parse account response: %w", err)
	}

	var balances []domain.ExchangeBalance
	for _, b := range account.Balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		if free == 0 && locked == 0 {
			continue
		}
		balances = append(balances, domain.ExchangeBalance{Asset: b.Asset, Free: free, Locked: locked})
	}

	c.log.Debug().Int("assets", len(balances)).Msg("Fetched account balances")
	return balances, nil
}

// SubmitOrder submits one spot order. Parameters are selected per order type:
// market orders send quantity only, limit orders add price and timeInForce,
// stop_loss and take_profit orders add stopPrice.
func (c *Client) SubmitOrder(ctx context.Context, order domain.ExchangeOrder) (*domain.ExchangeOrderResult, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(order.Symbol))
	params.Set("side", strings.ToUpper(order.Side))
	params.Set("quantity", strconv.FormatFloat(order.Quantity, 'f', -1, 64))

	switch order.Type {
	case domain.OrderMarket:
		params.Set("type", "MARKET")

	case domain.OrderLimit:
		params.Set("type", "LIMIT")
		params.Set("price", strconv.FormatFloat(order.Price, 'f', -1, 64))
		tif := order.TimeInForce
		if tif == "" {
			tif = "GTC"
		}
		params.Set("timeInForce", tif)

	case domain.OrderStopLoss:
		params.Set("type", "STOP_LOSS")
		params.Set("stopPrice", strconv.FormatFloat(order.StopPrice, 'f', -1, 64))

	case domain.OrderTakeProfit:
		params.Set("type", "TAKE_PROFIT")
		params.Set("stopPrice", strconv.FormatFloat(order.StopPrice, 'f', -1, 64))

	default:
		return nil, fmt.Errorf("unsupported order type %q", order.Type)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return nil, fmt.Errorf("order submission failed [symbol: %s, type: %s]: %w", order.Symbol, order.Type, err)
	}

	var result struct {
		OrderID     int64  `json:"orderId"`
		Symbol      string `json:"symbol"`
		Status      string `json:"status"`
		Side        string `json:"side"`
		Type        string `json:"type"`
		Price       string `json:"price"`
		ExecutedQty string `json:"executedQty"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	price, _ := strconv.ParseFloat(result.Price, 64)
	executedQty, _ := strconv.ParseFloat(result.ExecutedQty, 64)

	c.log.Info().
		Int64("order_id", result.OrderID).
		Str("symbol", result.Symbol).
		Str("status", result.Status).
		Msg("Order submitted")

	return &domain.ExchangeOrderResult{
		OrderID:          result.OrderID,
		Symbol:           result.Symbol,
		Side:             result.Side,
		Type:             result.Type,
		Status:           result.Status,
		Price:            price,
		ExecutedQuantity: executedQty,
	}, nil
}
