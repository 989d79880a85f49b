package twelvedata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"marketdata/internal/request"
	"marketdata/internal/stream"
)

const (
	defaultBaseURL = "https://api.twelvedata.com"

	// DefaultStreamURL is the real-time price websocket endpoint.
	DefaultStreamURL = "wss://ws.twelvedata.com/v1/quotes/price"
)

// Client calls the TwelveData REST API and configures its price stream.
type Client struct {
	cfg       request.ProviderConfig
	streamURL string
	d         *request.Dispatcher
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL overrides the REST endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.cfg.BaseURL = baseURL }
}

// WithStreamURL overrides the websocket endpoint.
func WithStreamURL(streamURL string) Option {
	return func(c *Client) { c.streamURL = streamURL }
}

// WithRateLimit overrides the free-tier default of 8 calls per minute.
func WithRateLimit(calls int, window time.Duration) Option {
	return func(c *Client) {
		c.cfg.MaxCallsPerWindow = calls
		c.cfg.Window = window
	}
}

func New(apiKey string, d *request.Dispatcher, options ...Option) *Client {
	c := &Client{
		cfg: request.ProviderConfig{
			Name:              "twelvedata",
			BaseURL:           defaultBaseURL,
			APIKey:            apiKey,
			Placement:         request.CredentialInQuery,
			CredentialParam:   "apikey",
			MaxCallsPerWindow: 8,
			Window:            time.Minute,
			Timeout:           10 * time.Second,
		},
		streamURL: DefaultStreamURL,
		d:         d,
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

// TimeSeries returns history for a symbol at the given interval
// ("1min", "5min", "1h", "1day", ...).
func (c *Client) TimeSeries(ctx context.Context, symbol, interval string, outputSize int) (any, error) {
	params := url.Values{"symbol": {symbol}, "interval": {interval}}
	if outputSize > 0 {
		params.Set("outputsize", strconv.Itoa(outputSize))
	}
	return c.get(ctx, "/time_series", params)
}

// Quote returns the full real-time quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (any, error) {
	return c.get(ctx, "/quote", url.Values{"symbol": {symbol}})
}

// Price returns just the latest price for a symbol, as the decimal string
// the API reports.
func (c *Client) Price(ctx context.Context, symbol string) (string, error) {
	doc, err := c.get(ctx, "/price", url.Values{"symbol": {symbol}})
	if err != nil {
		return "", err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return "", fmt.Errorf("twelvedata: unexpected price response %T", doc)
	}
	switch v := obj["price"].(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("twelvedata: price missing in response")
	}
}

// StocksList returns the available instruments, optionally filtered by
// exchange (e.g. "NASDAQ"), country, or instrument type
// ("Common Stock", "ETF", ...). Empty filters are omitted.
func (c *Client) StocksList(ctx context.Context, exchange, country, instrumentType string) (any, error) {
	params := url.Values{}
	if exchange != "" {
		params.Set("exchange", exchange)
	}
	if country != "" {
		params.Set("country", country)
	}
	if instrumentType != "" {
		params.Set("type", instrumentType)
	}
	return c.get(ctx, "/stocks", params)
}

// TechnicalIndicator returns indicator values for a symbol at the given
// interval. The indicator name ("sma", "ema", "rsi", ...) is the endpoint
// path; extra carries indicator-specific parameters such as time_period.
func (c *Client) TechnicalIndicator(ctx context.Context, symbol, interval, indicator string, extra url.Values) (any, error) {
	params := url.Values{"symbol": {symbol}, "interval": {interval}}
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return c.get(ctx, "/"+indicator, params)
}

// StreamConfig builds the streaming-session configuration for this account;
// pass it to stream.NewManager.
func (c *Client) StreamConfig(onMessage func(stream.Event), onError func(error)) stream.Config {
	return stream.Config{
		URL:       c.streamURL,
		APIKey:    c.cfg.APIKey,
		KeyParam:  "apikey",
		OnMessage: onMessage,
		OnError:   onError,
	}
}
