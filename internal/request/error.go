package request

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind string

const (
	// KindTransport covers connectivity failures: timeouts, DNS, resets,
	// and cancellation while waiting for a rate-limit slot.
	KindTransport Kind = "transport"
	// KindHTTPStatus marks a transport-level success with a non-2xx status.
	KindHTTPStatus Kind = "http_status"
	// KindDecode marks a malformed response body.
	KindDecode Kind = "decode"
)

// Error is the normalized failure outcome of a dispatched call.
type Error struct {
	Kind     Kind
	Provider string
	Status   int // HTTP status; set for KindHTTPStatus
	Message  string
	Err      error // underlying cause, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, or "" if err did not come from
// the dispatcher.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
