// Package httpclient builds the outbound HTTP transport used to reach the Remote Commerce API.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// errServerStatus marks a 5xx response so the breaker counts it as a failure.
// It never leaves this package: the response itself is handed back to the caller.
var errServerStatus = errors.New("upstream server error")

// BreakerTransport runs every round trip through a circuit breaker.
type BreakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerTransport wraps base. Transport errors and 5xx responses trip the breaker;
// 4xx responses and cancellations initiated by the caller do not.
func NewBreakerTransport(name string, base http.RoundTripper, cfg config.CircuitBreakerConfig) *BreakerTransport {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return errors.Is(err, context.Canceled)
		},
	}
	return &BreakerTransport{
		base:    base,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *BreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// State reports the breaker state, mostly for diagnostics.
func (t *BreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}

// New returns an http.Client with a per-request timeout, optional circuit breaker
// and OpenTelemetry client instrumentation.
func New(name string, timeout time.Duration, cb config.CircuitBreakerConfig) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if cb.Enabled {
		transport = NewBreakerTransport(name, transport, cb)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}
