package nethttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kbukum/reqkit/req"
)

// Backend is the blocking net/http transport. It satisfies the
// req.Backend contract: RoundTrip performs one exchange synchronously
// on the calling goroutine. Connections are pooled and owned by the
// backend, never by individual requests.
type Backend struct {
	client    *http.Client
	transport *http.Transport
	config    req.Config
	owned     bool
	closed    atomic.Bool
}

// compile-time assertion
var _ req.Backend = (*Backend)(nil)

// New creates a backend with the given configuration.
func New(cfg req.Config) (*Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	return &Backend{
		// No client-level timeout: deadlines are managed per request so
		// streams can outlive the default.
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		owned:     true,
	}, nil
}

// NewDefault creates a backend with default configuration.
func NewDefault() (*Backend, error) {
	return New(req.Config{})
}

// NewWith creates a backend from defaults adjusted by fn.
func NewWith(adjust func(*req.Config)) (*Backend, error) {
	var cfg req.Config
	cfg.ApplyDefaults()
	if adjust != nil {
		adjust(&cfg)
	}
	return New(cfg)
}

// NewFromClient wraps an already-constructed *http.Client. Lifecycle
// ownership stays with the caller: Close marks the backend unusable but
// does not release the client's connections.
func NewFromClient(client *http.Client, cfg req.Config) *Backend {
	cfg.ApplyDefaults()
	return &Backend{client: client, config: cfg, owned: false}
}

// With runs fn with a freshly constructed backend and guarantees the
// backend is closed on every exit path, including a panic inside fn.
func With(cfg req.Config, fn func(*Backend) error) (err error) {
	b, err := New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := b.Close(context.Background())
		if err == nil {
			err = closeErr
		}
	}()
	return fn(b)
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.config.Name != "" {
		return b.config.Name
	}
	return "nethttp"
}

// IsAvailable reports whether the backend can serve requests.
func (b *Backend) IsAvailable(_ context.Context) bool {
	return !b.closed.Load()
}

// Close releases pooled connections. Adopted clients are left alone.
// A closed backend fails further round trips.
func (b *Backend) Close(_ context.Context) error {
	if b.closed.Swap(true) {
		return nil
	}
	if b.owned && b.transport != nil {
		b.transport.CloseIdleConnections()
	}
	return nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (b *Backend) Unwrap() *http.Client {
	return b.client
}

// RoundTrip performs one HTTP exchange. Status and headers are returned
// as soon as they arrive; the body is handed back as an undecoded
// reader so the response description controls consumption. A read
// timeout (per-request override or the backend default) covers the
// whole exchange including body reads; a negative per-request timeout
// disables it for long-lived streams.
func (b *Backend) RoundTrip(ctx context.Context, raw *req.RawRequest) (*req.RawResponse, error) {
	if b.closed.Load() {
		return nil, req.NewClosedError("backend")
	}

	target, err := b.resolveURL(raw)
	if err != nil {
		return nil, err
	}

	body, length, defaultCT, err := raw.Body.Open(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	var timedOut atomic.Bool
	var watchdog *time.Timer
	if timeout := b.config.Deadline(raw.Timeout); timeout > 0 {
		watchdog = time.AfterFunc(timeout, func() {
			timedOut.Store(true)
			cancel()
		})
	}
	abort := func() {
		if watchdog != nil {
			watchdog.Stop()
		}
		cancel()
		if body != nil {
			_ = body.Close()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, raw.Method, target, body)
	if err != nil {
		abort()
		return nil, req.NewValidationError("create request: " + err.Error())
	}
	if body != nil && length >= 0 {
		httpReq.ContentLength = length
	}

	b.applyHeaders(httpReq, raw, body != nil, defaultCT)

	client := b.client
	if !b.config.Follow(raw.FollowRedirects) {
		// Shallow copy so the redirect policy is per request.
		noFollow := *b.client
		noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		client = &noFollow
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		abort()
		return nil, classify(err, timedOut.Load())
	}

	return &req.RawResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body: &guardedBody{
			rc:       resp.Body,
			cancel:   cancel,
			watchdog: watchdog,
			timedOut: &timedOut,
		},
	}, nil
}

// resolveURL joins the target with the configured base URL and appends
// query parameters. Absolute targets bypass the base URL.
func (b *Backend) resolveURL(raw *req.RawRequest) (string, error) {
	target := raw.URL
	if b.config.BaseURL != "" && !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimRight(b.config.BaseURL, "/") + "/" + strings.TrimLeft(target, "/")
	}

	if len(raw.Query) == 0 {
		return target, nil
	}
	u, err := parseURL(target)
	if err != nil {
		return "", req.NewValidationError("invalid request URL: " + err.Error())
	}
	q := u.Query()
	for _, p := range raw.Query {
		q.Set(p.Name, p.Value)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// applyHeaders merges backend default headers with request headers;
// request headers win. A default content type is set only when a body
// is present and the request did not name one.
func (b *Backend) applyHeaders(httpReq *http.Request, raw *req.RawRequest, hasBody bool, defaultCT string) {
	for k, v := range b.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range raw.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if hasBody && defaultCT != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", defaultCT)
	}
}

// classify maps a transport error to the typed error set. Deadline and
// watchdog expiry are timeouts. A plain cancellation is the caller's
// own abort, not a deadline, and is passed through untyped so
// errors.Is(err, context.Canceled) still holds. net/http's "malformed
// HTTP" errors are protocol errors; everything else is
// connection-level.
func classify(err error, timedOut bool) error {
	if timedOut || errors.Is(err, context.DeadlineExceeded) {
		return req.NewTimeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if strings.Contains(err.Error(), "malformed HTTP") {
		return req.NewProtocolError(err)
	}
	return req.NewConnectionError(err)
}

// guardedBody ties the response body to the request's watchdog: reads
// past the deadline surface as timeouts, and Close releases the
// connection, the watchdog, and the request context on every path.
type guardedBody struct {
	rc       io.ReadCloser
	cancel   context.CancelFunc
	watchdog *time.Timer
	timedOut *atomic.Bool
	closed   atomic.Bool
}

func (g *guardedBody) Read(p []byte) (int, error) {
	if g.closed.Load() {
		return 0, req.NewClosedError("response body")
	}
	n, err := g.rc.Read(p)
	if err != nil && err != io.EOF && g.timedOut.Load() {
		return n, req.NewTimeoutError(err)
	}
	return n, err
}

func (g *guardedBody) Close() error {
	if g.closed.Swap(true) {
		return nil
	}
	if g.watchdog != nil {
		g.watchdog.Stop()
	}
	err := g.rc.Close()
	g.cancel()
	return err
}
