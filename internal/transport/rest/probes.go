package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Probes serves the liveness and readiness endpoints.
type Probes struct {
	timeout time.Duration
	checks  map[string]Check
	logger  *slog.Logger
}

func NewProbes(timeout time.Duration, checks map[string]Check, logger *slog.Logger) *Probes {
	return &Probes{timeout: timeout, checks: checks, logger: logger.With("component", "probes")}
}

// Live checks if the service is live
func (p *Probes) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Ready checks if the service is ready (i.e., all dependencies are healthy)
func (p *Probes) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	for name, check := range p.checks {
		eg.Go(func() error {
			if err := check(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		p.logger.ErrorContext(r.Context(), "Readiness probe failed: dependency is not ready", "error", err)
		http.Error(w, "Service Unavailable: dependency is not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
