package req

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RawRequest is the wire-level form of a request definition: resolved
// headers, body description, and per-request options. Backends consume
// it without knowing the response description's result type.
type RawRequest struct {
	// Method is the HTTP method.
	Method string
	// URL is the target; backends may resolve it against a base URL.
	URL string
	// Header holds the resolved request headers (last write already won).
	Header http.Header
	// Query holds query parameters to append to the target.
	Query []Param
	// Body is the request body description. Backends call Body.Open
	// once per attempt.
	Body Body
	// Timeout is the per-request read timeout. Zero means "use the
	// backend default", negative disables the deadline.
	Timeout time.Duration
	// FollowRedirects overrides the backend redirect policy when set.
	FollowRedirects *bool
}

// RawResponse is what a backend produces before the response
// description runs: status, headers, and the undecoded body. Status and
// headers are always available before the first body byte.
type RawResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status text. May be empty.
	Status string
	// Header holds the response headers.
	Header http.Header
	// Body is the raw body. Never nil; use http.NoBody for empty bodies.
	Body io.ReadCloser
}

// Backend is the execution contract every transport implements. A
// backend performs the wire exchange and hands back the raw response;
// decoding per the attached response description is done by Send so it
// behaves identically across transports.
//
// RoundTrip failures are typed: transport-level problems surface as
// connection, timeout, or protocol errors. A non-2xx status is not a
// RoundTrip error.
type Backend interface {
	// Name identifies the backend for logging and metrics.
	Name() string
	// RoundTrip performs one HTTP exchange.
	RoundTrip(ctx context.Context, r *RawRequest) (*RawResponse, error)
	// Close releases backend-owned resources (pooled connections).
	Close(ctx context.Context) error
}

// Send executes the request on the backend and decodes the response per
// the request's description. Evaluation order is fixed: status and
// headers first, metadata branches resolved once, then the body is
// consumed exactly once by the resolved leaf, then transforms apply.
//
// Unless the resolved leaf is a stream (ownership moves to the caller),
// the raw body is closed before Send returns, on success and failure
// alike.
func Send[T any](ctx context.Context, b Backend, r Request[T]) (*Response[T], error) {
	if b == nil {
		return nil, NewValidationError("backend is required")
	}
	raw, err := r.raw()
	if err != nil {
		return nil, err
	}

	resp, err := b.RoundTrip(ctx, raw)
	if err != nil {
		return nil, err
	}

	body := resp.Body
	if body == nil {
		body = io.NopCloser(bytes.NewReader(nil))
	}

	meta := ResponseMeta{StatusCode: resp.StatusCode, Status: resp.Status, Header: resp.Header}
	val, handedOff, evalErr := evaluate(ctx, r.response.spec, meta, body)
	if !handedOff {
		_ = body.Close()
	}
	if evalErr != nil {
		return nil, evalErr
	}

	typed, ok := val.(T)
	if !ok {
		if handedOff {
			closeValue(val)
		}
		return nil, NewDecodeError(fmt.Errorf("response description produced %T", val))
	}

	return &Response[T]{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       typed,
	}, nil
}

// Using runs fn with the backend and guarantees the backend is closed
// on every exit path, including a panic inside fn. The close error is
// returned only when fn itself succeeded.
func Using(b Backend, fn func(Backend) error) (err error) {
	defer func() {
		closeErr := b.Close(context.Background())
		if err == nil {
			err = closeErr
		}
	}()
	return fn(b)
}
