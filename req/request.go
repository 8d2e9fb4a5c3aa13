package req

import (
	"encoding/base64"
	"net/http"
	"time"
)

// Param is a single name/value pair (header or query parameter).
type Param struct {
	Name  string
	Value string
}

// Request is an immutable description of an HTTP exchange: method,
// target, headers, request body, per-request options, and the
// ResponseAs description for the expected response. Every builder
// method returns a new value; a base request can be shared and sent
// concurrently without synchronization.
//
// No network or file I/O happens until the request is handed to a
// backend via Send, SendAsync, or Deferred.
type Request[T any] struct {
	method   string
	url      string
	headers  []Param // applied in order; last write wins per name
	query    []Param
	body     Body
	response ResponseAs[T]
	timeout  time.Duration // 0: backend default; <0: no deadline
	follow   *bool
}

// NewRequest creates a request with the default Text response
// description.
func NewRequest(method, url string) Request[Either[string, string]] {
	return Request[Either[string, string]]{
		method:   method,
		url:      url,
		response: Text(),
	}
}

// Get creates a GET request.
func Get(url string) Request[Either[string, string]] {
	return NewRequest(http.MethodGet, url)
}

// Post creates a POST request.
func Post(url string) Request[Either[string, string]] {
	return NewRequest(http.MethodPost, url)
}

// Put creates a PUT request.
func Put(url string) Request[Either[string, string]] {
	return NewRequest(http.MethodPut, url)
}

// Patch creates a PATCH request.
func Patch(url string) Request[Either[string, string]] {
	return NewRequest(http.MethodPatch, url)
}

// Delete creates a DELETE request.
func Delete(url string) Request[Either[string, string]] {
	return NewRequest(http.MethodDelete, url)
}

// Head creates a HEAD request with an Ignore response description.
func Head(url string) Request[struct{}] {
	return Returning(NewRequest(http.MethodHead, url), Ignore())
}

// Returning attaches a response description, replacing any prior one.
// It is a free function because attaching changes the request's type
// parameter.
func Returning[T, U any](r Request[T], as ResponseAs[U]) Request[U] {
	return Request[U]{
		method:   r.method,
		url:      r.url,
		headers:  r.headers,
		query:    r.query,
		body:     r.body,
		response: as,
		timeout:  r.timeout,
		follow:   r.follow,
	}
}

// Header returns a copy of the request with the header set. Names are
// case-insensitive; setting an already-set name replaces its value.
func (r Request[T]) Header(name, value string) Request[T] {
	r.headers = appendParam(r.headers, name, value)
	return r
}

// Query returns a copy of the request with a query parameter set.
func (r Request[T]) Query(name, value string) Request[T] {
	r.query = appendParam(r.query, name, value)
	return r
}

// ContentType sets the Content-Type header.
func (r Request[T]) ContentType(ct string) Request[T] {
	return r.Header("Content-Type", ct)
}

// BearerAuth sets an Authorization header with a bearer token.
func (r Request[T]) BearerAuth(token string) Request[T] {
	return r.Header("Authorization", "Bearer "+token)
}

// BasicAuth sets an Authorization header with HTTP basic credentials.
func (r Request[T]) BasicAuth(username, password string) Request[T] {
	cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return r.Header("Authorization", "Basic "+cred)
}

// APIKeyAuth sets an API key header. An empty name defaults to
// X-API-Key.
func (r Request[T]) APIKeyAuth(name, key string) Request[T] {
	if name == "" {
		name = "X-API-Key"
	}
	return r.Header(name, key)
}

// BodyBytes returns a copy of the request carrying raw bytes as body.
func (r Request[T]) BodyBytes(data []byte) Request[T] {
	r.body = Body{kind: BodyBytes, data: data}
	return r
}

// BodyText returns a copy of the request carrying text as body,
// optionally transcoded to the named charset on send.
func (r Request[T]) BodyText(text string, encoding ...string) Request[T] {
	b := Body{kind: BodyText, text: text}
	if len(encoding) > 0 {
		b.encoding = encoding[0]
	}
	r.body = b
	return r
}

// BodyFile returns a copy of the request that streams the file at path
// as body. The file is opened at send time, not here.
func (r Request[T]) BodyFile(path string) Request[T] {
	r.body = Body{kind: BodyFile, path: path}
	return r
}

// BodyStream returns a copy of the request that streams lazily-produced
// chunks as body. The factory is invoked once per send attempt so the
// request stays safe to resend; chunk production is pulled by the
// transport as it is ready to write.
func (r Request[T]) BodyStream(factory func() Stream) Request[T] {
	r.body = Body{kind: BodyStream, stream: factory}
	return r
}

// Timeout sets the per-request read timeout, overriding the backend
// default. Zero keeps the backend default; a negative value disables
// the deadline entirely (long-lived streams).
func (r Request[T]) Timeout(d time.Duration) Request[T] {
	r.timeout = d
	return r
}

// FollowRedirects sets the per-request redirect policy, overriding the
// backend default.
func (r Request[T]) FollowRedirects(follow bool) Request[T] {
	r.follow = &follow
	return r
}

// Method returns the request method.
func (r Request[T]) Method() string {
	return r.method
}

// URL returns the request target.
func (r Request[T]) URL() string {
	return r.url
}

// Body returns the request body description.
func (r Request[T]) Body() Body {
	return r.body
}

// appendParam copies the slice before appending so shared prefixes are
// never mutated through an older request value.
func appendParam(params []Param, name, value string) []Param {
	out := make([]Param, len(params), len(params)+1)
	copy(out, params)
	return append(out, Param{Name: name, Value: value})
}

// raw resolves the definition into the wire-level form handed to a
// backend: last-write-wins headers and validated method/target.
func (r Request[T]) raw() (*RawRequest, error) {
	if r.method == "" {
		return nil, NewValidationError("request method is required")
	}
	if r.url == "" {
		return nil, NewValidationError("request URL is required")
	}

	header := make(http.Header)
	for _, p := range r.headers {
		header.Set(p.Name, p.Value)
	}

	return &RawRequest{
		Method:          r.method,
		URL:             r.url,
		Header:          header,
		Query:           r.query,
		Body:            r.body,
		Timeout:         r.timeout,
		FollowRedirects: r.follow,
	}, nil
}
