package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Detail is the error payload carried by the storage service. The
// service usually sends a plain string but validation failures arrive
// as arrays or objects, so the raw JSON is kept and rendered lazily.
type Detail struct {
	raw json.RawMessage
}

// UnmarshalJSON stores the raw payload without interpreting it.
func (d *Detail) UnmarshalJSON(b []byte) error {
	d.raw = append(d.raw[:0], b...)
	return nil
}

// IsZero reports whether no detail was present in the response.
func (d Detail) IsZero() bool {
	return len(d.raw) == 0 || string(d.raw) == "null"
}

// String renders the detail for display. Plain strings are unquoted;
// arrays and objects are rendered as compact JSON.
func (d Detail) String() string {
	if d.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(d.raw))
}

// RequestError wraps a transport failure where no response arrived.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the storage service. The
// user-visible message is the server's detail when present, else a
// generic "HTTP {status}" line.
type APIError struct {
	StatusCode int
	Detail     Detail
}

func (e *APIError) Error() string {
	if !e.Detail.IsZero() {
		return e.Detail.String()
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ValidationError reports input rejected client-side before any
// request was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DecodeError is a 2xx response whose body did not have the expected
// shape. Callers treat it as "no data" rather than keeping whatever
// partial state decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the storage service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409, which the storage service
// uses for duplicate card names and duplicate collection names.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}
