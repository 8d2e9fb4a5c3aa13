package req

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/resilience"
)

// Middleware transforms a Backend by wrapping it. The returned backend
// delegates the exchange to the original while adding cross-cutting
// behavior (logging, retry, tracing, metrics).
type Middleware func(Backend) Backend

// Chain composes multiple middlewares into one. Middlewares are applied
// in order: the first middleware is outermost (executes first on the
// way in, last on the way out).
//
// Chain(a, b, c)(backend) is equivalent to a(b(c(backend))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Backend) Backend {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// wrapped is the common shape of middleware backends: delegate
// everything, override RoundTrip.
type wrapped struct {
	inner Backend
	rt    func(ctx context.Context, r *RawRequest) (*RawResponse, error)
}

func (w *wrapped) Name() string { return w.inner.Name() }

func (w *wrapped) Close(ctx context.Context) error { return w.inner.Close(ctx) }

func (w *wrapped) RoundTrip(ctx context.Context, r *RawRequest) (*RawResponse, error) {
	return w.rt(ctx, r)
}

// WithLogging returns a Middleware that logs each exchange: backend,
// method, target, status, and duration.
func WithLogging(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return func(inner Backend) Backend {
		return &wrapped{inner: inner, rt: func(ctx context.Context, r *RawRequest) (*RawResponse, error) {
			start := time.Now()
			resp, err := inner.RoundTrip(ctx, r)
			fields := logger.Fields(
				"backend", inner.Name(),
				"method", r.Method,
				"url", r.URL,
				"duration", time.Since(start).String(),
			)
			if err != nil {
				fields["error"] = err.Error()
				log.Error("request failed", fields)
				return nil, err
			}
			fields["status"] = resp.StatusCode
			log.Debug("request completed", fields)
			return resp, nil
		}}
	}
}

// WithRequestID returns a Middleware that stamps each outgoing request
// with a unique ID header. An empty header name defaults to
// X-Request-ID. Existing values are kept.
func WithRequestID(header string) Middleware {
	if header == "" {
		header = "X-Request-ID"
	}
	return func(inner Backend) Backend {
		return &wrapped{inner: inner, rt: func(ctx context.Context, r *RawRequest) (*RawResponse, error) {
			if r.Header.Get(header) == "" {
				r.Header.Set(header, uuid.NewString())
			}
			return inner.RoundTrip(ctx, r)
		}}
	}
}

// WithRetry returns a Middleware that retries failed exchanges.
// Retrying at the backend seam is safe because request bodies are
// opened fresh per attempt; only transport-level failures are seen
// here, never decoded responses.
func WithRetry(cfg resilience.RetryConfig) Middleware {
	if cfg.RetryIf == nil {
		cfg.RetryIf = IsRetryable
	}
	return func(inner Backend) Backend {
		return &wrapped{inner: inner, rt: func(ctx context.Context, r *RawRequest) (*RawResponse, error) {
			return resilience.Retry(ctx, cfg, func() (*RawResponse, error) {
				return inner.RoundTrip(ctx, r)
			})
		}}
	}
}

// DefaultRetryConfig returns a retry config suitable for HTTP backends:
// exponential backoff, retrying only transport-level retryable errors.
func DefaultRetryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return cfg
}

// WithCircuitBreaker returns a Middleware that routes exchanges through
// a circuit breaker shared across all requests on the wrapped backend.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Middleware {
	return func(inner Backend) Backend {
		return &wrapped{inner: inner, rt: func(ctx context.Context, r *RawRequest) (*RawResponse, error) {
			var resp *RawResponse
			err := cb.Execute(func() error {
				var rtErr error
				resp, rtErr = inner.RoundTrip(ctx, r)
				return rtErr
			})
			if err != nil {
				return nil, err
			}
			return resp, nil
		}}
	}
}

// WithTracing returns a Middleware that opens an OpenTelemetry span
// around each exchange, named "{serviceName}.{backend}".
func WithTracing(serviceName string) Middleware {
	return func(inner Backend) Backend {
		return &wrapped{inner: inner, rt: func(ctx context.Context, r *RawRequest) (*RawResponse, error) {
			ctx, span := observability.StartSpan(ctx, serviceName+"."+inner.Name())
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrBackend, inner.Name())
			observability.SetSpanAttribute(ctx, observability.AttrMethod, r.Method)
			observability.SetSpanAttribute(ctx, observability.AttrURL, r.URL)

			resp, err := inner.RoundTrip(ctx, r)
			if err != nil {
				observability.SetSpanError(ctx, err)
				return nil, err
			}
			observability.SetSpanAttribute(ctx, observability.AttrStatusCode, strconv.Itoa(resp.StatusCode))
			return resp, nil
		}}
	}
}

// WithMetrics returns a Middleware that records exchange count,
// duration, and errors on the given instruments.
func WithMetrics(m *observability.Metrics) Middleware {
	return func(inner Backend) Backend {
		return &wrapped{inner: inner, rt: func(ctx context.Context, r *RawRequest) (*RawResponse, error) {
			start := time.Now()
			resp, err := inner.RoundTrip(ctx, r)
			if err != nil {
				code := "unknown"
				var e *Error
				if errors.As(err, &e) {
					code = e.Code.String()
				}
				m.RecordError(ctx, inner.Name(), code)
				m.RecordRequest(ctx, inner.Name(), r.Method, "error", time.Since(start))
				return nil, err
			}
			m.RecordRequest(ctx, inner.Name(), r.Method, strconv.Itoa(resp.StatusCode), time.Since(start))
			return resp, nil
		}}
	}
}
