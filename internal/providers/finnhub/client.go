package finnhub

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"marketdata/internal/request"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// Client calls the Finnhub REST API. Finnhub authenticates with the
// X-Finnhub-Token header rather than a query parameter.
type Client struct {
	cfg request.ProviderConfig
	d   *request.Dispatcher
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.cfg.BaseURL = baseURL }
}

// WithRateLimit overrides the free-tier default of 60 calls per minute.
func WithRateLimit(calls int, window time.Duration) Option {
	return func(c *Client) {
		c.cfg.MaxCallsPerWindow = calls
		c.cfg.Window = window
	}
}

func New(apiKey string, d *request.Dispatcher, options ...Option) *Client {
	c := &Client{
		cfg: request.ProviderConfig{
			Name:              "finnhub",
			BaseURL:           defaultBaseURL,
			APIKey:            apiKey,
			Placement:         request.CredentialInHeader,
			CredentialParam:   "X-Finnhub-Token",
			MaxCallsPerWindow: 60,
			Window:            time.Minute,
			Timeout:           10 * time.Second,
		},
		d: d,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (any, error) {
	payload, err := c.d.Send(ctx, c.cfg, request.Descriptor{Path: path, Query: params})
	if err != nil {
		return nil, err
	}
	return payload.JSON, nil
}

// Quote returns the real-time quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (any, error) {
	return c.get(ctx, "/quote", url.Values{"symbol": {symbol}})
}

// CompanyProfile returns company profile information.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (any, error) {
	return c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}})
}

// StockCandles returns OHLCV candles between from and to at the given
// resolution ("1", "5", "15", "30", "60", "D", "W", "M").
func (c *Client) StockCandles(ctx context.Context, symbol, resolution string, from, to time.Time) (any, error) {
	return c.get(ctx, "/stock/candle", url.Values{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	})
}

// MarketNews returns market news for a category
// ("general", "forex", "crypto", "merger").
func (c *Client) MarketNews(ctx context.Context, category string) (any, error) {
	if category == "" {
		category = "general"
	}
	return c.get(ctx, "/news", url.Values{"category": {category}})
}

// EarningsCalendar returns earnings events between from and to (dates only),
// optionally narrowed to one symbol.
func (c *Client) EarningsCalendar(ctx context.Context, from, to time.Time, symbol string) (any, error) {
	params := url.Values{
		"from": {from.Format("2006-01-02")},
		"to":   {to.Format("2006-01-02")},
	}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	return c.get(ctx, "/calendar/earnings", params)
}

// CompanyPeers returns peer symbols in the same industry.
func (c *Client) CompanyPeers(ctx context.Context, symbol string) (any, error) {
	return c.get(ctx, "/stock/peers", url.Values{"symbol": {symbol}})
}
