// Package app contains the application setup for the storefront.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/service"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/abgdnv/storefront/internal/transport/rest"
	"github.com/abgdnv/storefront/pkg/server"

	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	Service      service.StorefrontService
	SessionStore session.Store
	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]rest.Check
	// Metrics is the Prometheus scrape handler; nil disables /metrics.
	Metrics http.Handler
	Logger  *slog.Logger
}

// SetupHttpHandler builds the router serving pages, the relay, probes and metrics.
// Used by tests to get the complete handler without a listening server.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) (http.Handler, error) {
	mux := server.NewChiRouter(deps.Logger)
	if err := wireRoutes(mux, deps, cfg); err != nil {
		return nil, err
	}
	return mux, nil
}

// wireRoutes sets up the HTTP routes for the storefront.
func wireRoutes(mux *chi.Mux, deps *Dependencies, cfg *config.Config) error {
	handler, err := rest.NewHandler(deps.Service, deps.SessionStore, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create page handler: %w", err)
	}
	handler.RegisterRoutes(mux)

	relay, err := rest.NewRelay(cfg.Relay.Upstream, cfg.Relay.Prefix, deps.Logger)
	if err != nil {
		return err
	}
	mux.Handle(cfg.Relay.Prefix+"/*", relay)

	probes := rest.NewProbes(cfg.Probes.ReadinessTimeout, deps.Checks, deps.Logger)
	mux.Get(cfg.Probes.LivenessPath, probes.Live)
	mux.Get(cfg.Probes.ReadinessPath, probes.Ready)

	if deps.Metrics != nil && cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, deps.Metrics)
	}
	return nil
}

// SetupHttpServer creates and configures an HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config, serviceName string) (*http.Server, error) {
	mux, err := SetupHttpHandler(deps, cfg)
	if err != nil {
		return nil, err
	}
	return server.NewHTTPServer(server.FromConfig(cfg.HTTPServer), serviceName, mux), nil
}
