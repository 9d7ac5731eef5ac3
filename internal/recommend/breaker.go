// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/metrics"
)

// Breakers wraps every external dependency on the serving path (the
// Connector and the Vector Store) in its own circuit breaker, so a string
// of timeouts trips the breaker and short-circuits straight to fallback
// instead of piling up further slow calls.
type Breakers struct {
	Connector   *gobreaker.CircuitBreaker[any]
	VectorStore *gobreaker.CircuitBreaker[any]
}

// NewBreakers builds breakers that allow maxRequests trial calls while
// half-open and stay open for openTimeout. They trip on gobreaker's default
// rule: more than five consecutive failures.
func NewBreakers(maxRequests uint32, openTimeout time.Duration) *Breakers {
	onStateChange := func(name string, from, to gobreaker.State) {
		metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
	}
	return &Breakers{
		Connector:   gobreaker.NewCircuitBreaker[any](gobreaker.Settings{Name: "connector", MaxRequests: maxRequests, Timeout: openTimeout, OnStateChange: onStateChange}),
		VectorStore: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{Name: "vectorstore", MaxRequests: maxRequests, Timeout: openTimeout, OnStateChange: onStateChange}),
	}
}

// callWithTimeout bounds fn by timeout, converting both cancellation and
// deadline exceeded into a Degraded error, per the serving path's rule
// that every blocking call is timeout-bounded and no lock is held across
// I/O.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(cctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-cctx.Done():
		return zero, apperrors.New(apperrors.Degraded, "operation timed out")
	}
}

// guarded runs fn through cb with a bounded timeout, mapping an open
// breaker straight to a Degraded error so callers route to fallback
// exactly as they would for a raw timeout.
func guarded[T any](cb *gobreaker.CircuitBreaker[any], ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := cb.Execute(func() (any, error) {
		return callWithTimeout(ctx, timeout, fn)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordCircuitBreakerRequest(cb.Name(), "rejected")
			return zero, apperrors.New(apperrors.Degraded, "circuit breaker open")
		}
		metrics.RecordCircuitBreakerRequest(cb.Name(), "failure")
		return zero, err
	}
	metrics.RecordCircuitBreakerRequest(cb.Name(), "success")
	return raw.(T), nil
}
