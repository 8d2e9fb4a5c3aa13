// Package resilience provides retry and circuit breaker primitives for
// HTTP backends. Both are transport-agnostic and are usually attached
// to a backend through the req middleware (req.WithRetry,
// req.WithCircuitBreaker) rather than called directly.
package resilience
