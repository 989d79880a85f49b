package request

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"marketdata/internal/ratelimit"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=request_test -destination=mock_http_client_test.go -source=dispatcher.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher issues one outbound call at a time per Send, pacing every call
// through the per-provider rate-limit registry before it leaves the process.
// It never retries; outcomes are returned to the caller as-is.
type Dispatcher struct {
	client   HTTPClient
	limiters *ratelimit.Registry
}

func NewDispatcher(client HTTPClient, limiters *ratelimit.Registry) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	if limiters == nil {
		limiters = ratelimit.NewRegistry()
	}
	return &Dispatcher{client: client, limiters: limiters}
}

// Send acquires a rate-limit slot for cfg's provider, performs the call
// described by desc against cfg.BaseURL, and normalizes the result. Failures
// come back as a *Error carrying the kind; the payload is decoded per
// desc.Format.
func (d *Dispatcher) Send(ctx context.Context, cfg ProviderConfig, desc Descriptor) (*Payload, error) {
	if err := d.limiters.For(cfg.Name, cfg.MaxCallsPerWindow, cfg.Window).Acquire(ctx); err != nil {
		return nil, &Error{Kind: KindTransport, Provider: cfg.Name, Message: "canceled while waiting for a rate-limit slot", Err: err}
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(desc.Path, "/"))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Provider: cfg.Name, Message: fmt.Sprintf("bad endpoint: %v", err), Err: err}
	}
	q := u.Query()
	for k, vs := range desc.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if cfg.APIKey != "" && cfg.Placement != CredentialInHeader {
		q.Set(cfg.CredentialParam, cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	method := desc.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Provider: cfg.Name, Message: fmt.Sprintf("creating request: %v", err), Err: err}
	}
	if cfg.APIKey != "" && cfg.Placement == CredentialInHeader {
		req.Header.Set(cfg.CredentialParam, cfg.APIKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Provider: cfg.Name, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, &Error{
			Kind:     KindHTTPStatus,
			Provider: cfg.Name,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("%s %s -> %d: %s", method, u.Path, resp.StatusCode, bytes.TrimSpace(b)),
		}
	}

	switch desc.Format {
	case FormatDelimited:
		rows, err := decodeDelimited(resp.Body)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Provider: cfg.Name, Message: fmt.Sprintf("decoding delimited body: %v", err), Err: err}
		}
		return &Payload{Format: FormatDelimited, Rows: rows}, nil
	default:
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return nil, &Error{Kind: KindDecode, Provider: cfg.Name, Message: fmt.Sprintf("decoding json body: %v", err), Err: err}
		}
		return &Payload{Format: FormatJSON, JSON: doc}, nil
	}
}

// decodeDelimited reads a comma-separated body with a header line into one
// map per record, keyed by column name.
func decodeDelimited(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
}
