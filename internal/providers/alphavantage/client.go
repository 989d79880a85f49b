package alphavantage

import (
	"context"
	"net/url"
	"time"

	"marketdata/internal/request"
)

const defaultBaseURL = "https://www.alphavantage.co"

// Client calls the Alphavantage query API. Every operation is a single
// function-keyed GET against /query with the credential as an apikey query
// parameter; the dispatcher handles pacing, auth and decoding.
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

// WithRateLimit overrides the free-tier default of 5 calls per minute.
func WithRateLimit(calls int, window time.Duration) Option {
	return func(c *Client) {
		c.cfg.MaxCallsPerWindow = calls
		c.cfg.Window = window
	}
}

func New(apiKey string, d *request.Dispatcher, options ...Option) *Client {
	c := &Client{
		cfg: request.ProviderConfig{
			Name:              "alphavantage",
			BaseURL:           defaultBaseURL,
			APIKey:            apiKey,
			Placement:         request.CredentialInQuery,
			CredentialParam:   "apikey",
			MaxCallsPerWindow: 5,
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

func (c *Client) query(ctx context.Context, params url.Values, format request.Format) (*request.Payload, error) {
	return c.d.Send(ctx, c.cfg, request.Descriptor{Path: "/query", Query: params, Format: format})
}

// TimeSeriesDaily returns daily OHLCV history for a symbol.
// outputSize "compact" (100 points) or "full"; compact when empty.
func (c *Client) TimeSeriesDaily(ctx context.Context, symbol, outputSize string) (any, error) {
	params := url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {symbol}}
	if outputSize != "" {
		params.Set("outputsize", outputSize)
	}
	payload, err := c.query(ctx, params, request.FormatJSON)
	if err != nil {
		return nil, err
	}
	return payload.JSON, nil
}

// GlobalQuote returns the latest quote for a symbol.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (any, error) {
	payload, err := c.query(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, request.FormatJSON)
	if err != nil {
		return nil, err
	}
	return payload.JSON, nil
}

// CompanyOverview returns fundamentals for a symbol.
func (c *Client) CompanyOverview(ctx context.Context, symbol string) (any, error) {
	payload, err := c.query(ctx, url.Values{"function": {"OVERVIEW"}, "symbol": {symbol}}, request.FormatJSON)
	if err != nil {
		return nil, err
	}
	return payload.JSON, nil
}

// SymbolSearch finds symbols matching the given keywords.
func (c *Client) SymbolSearch(ctx context.Context, keywords string) (any, error) {
	payload, err := c.query(ctx, url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {keywords}}, request.FormatJSON)
	if err != nil {
		return nil, err
	}
	return payload.JSON, nil
}

// Earnings returns quarterly and annual earnings history for a symbol.
func (c *Client) Earnings(ctx context.Context, symbol string) (any, error) {
	payload, err := c.query(ctx, url.Values{"function": {"EARNINGS"}, "symbol": {symbol}}, request.FormatJSON)
	if err != nil {
		return nil, err
	}
	return payload.JSON, nil
}

// ListingStatus returns the active listings. This endpoint only serves
// delimited text, so rows come back keyed by header column.
func (c *Client) ListingStatus(ctx context.Context) ([]map[string]string, error) {
	payload, err := c.query(ctx, url.Values{"function": {"LISTING_STATUS"}}, request.FormatDelimited)
	if err != nil {
		return nil, err
	}
	return payload.Rows, nil
}

// EarningsCalendar returns upcoming earnings, optionally narrowed to one
// symbol. horizon is "3month", "6month" or "12month"; 3month when empty.
func (c *Client) EarningsCalendar(ctx context.Context, symbol, horizon string) ([]map[string]string, error) {
	params := url.Values{"function": {"EARNINGS_CALENDAR"}}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	if horizon != "" {
		params.Set("horizon", horizon)
	}
	payload, err := c.query(ctx, params, request.FormatDelimited)
	if err != nil {
		return nil, err
	}
	return payload.Rows, nil
}
