package request

import (
	"net/url"
	"time"
)

// CredentialPlacement selects how a provider expects its credential attached.
type CredentialPlacement string

const (
	// CredentialInQuery sends the API key as a query parameter.
	CredentialInQuery CredentialPlacement = "query"
	// CredentialInHeader sends the API key as a request header.
	CredentialInHeader CredentialPlacement = "header"
)

// Format of a provider response body.
type Format string

const (
	FormatJSON      Format = "json"
	FormatDelimited Format = "delimited"
)

// ProviderConfig describes one provider session. Immutable after construction;
// one value per provider, shared by every call site targeting it.
type ProviderConfig struct {
	// Name keys the shared rate-limit window for this provider.
	Name    string
	BaseURL string
	APIKey  string
	// Placement and CredentialParam define the provider's auth convention:
	// the query parameter name (e.g. "apikey") or header name
	// (e.g. "X-Finnhub-Token") carrying the key.
	Placement       CredentialPlacement
	CredentialParam string
	// MaxCallsPerWindow calls are permitted per Window.
	MaxCallsPerWindow int
	Window            time.Duration
	// Timeout bounds each individual call. 0 leaves the caller's ctx in charge.
	Timeout time.Duration
}

// Descriptor describes a single outbound call. Built fresh per call; the
// dispatcher never mutates it.
type Descriptor struct {
	Path   string
	Query  url.Values
	Method string // GET when empty
	Format Format // FormatJSON when empty
}

// Payload is the decoded body of a successful call. Exactly one of JSON and
// Rows is populated, according to Format.
type Payload struct {
	Format Format
	// JSON holds the generically decoded document (object or array).
	JSON any
	// Rows holds delimited-text records keyed by header column.
	Rows []map[string]string
}
