package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/storefront/internal/app"
	"github.com/abgdnv/storefront/internal/commerce"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/inflight"
	"github.com/abgdnv/storefront/internal/service"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/abgdnv/storefront/internal/transport/rest"
	"github.com/abgdnv/storefront/pkg/auth"
	"github.com/abgdnv/storefront/pkg/bootstrap"
	"github.com/abgdnv/storefront/pkg/client/httpclient"
	"github.com/abgdnv/storefront/pkg/config/configloader"
	"github.com/abgdnv/storefront/pkg/messaging"
	natsclient "github.com/abgdnv/storefront/pkg/nats"
	"github.com/abgdnv/storefront/pkg/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront"

const sessionPurgeInterval = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application and starts the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry.Traces)
	if err != nil {
		return fmt.Errorf("failed to create tracer provider: %w", err)
	}
	var metricsHandler http.Handler
	shutdownMeter := telemetry.ShutdownFunc(func(context.Context) error { return nil })
	if cfg.Telemetry.Metrics.Enabled {
		metricsHandler, shutdownMeter, err = telemetry.NewMeterProvider(serviceName)
		if err != nil {
			return fmt.Errorf("failed to create meter provider: %w", err)
		}
	}

	commerceClient, err := commerce.NewClient(
		cfg.Services.Commerce.URL,
		httpclient.New("commerce", cfg.Services.Commerce.Timeout, cfg.Services.Commerce.CircuitBreaker),
		cfg.Services.Commerce.HealthPath,
	)
	if err != nil {
		return err
	}
	checks := map[string]rest.Check{"commerce": commerceClient.Ping}

	store, dbPool, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	if dbPool != nil {
		defer dbPool.Close()
		checks["database"] = dbPool.Ping
		logger.Info("Successfully connected to the database!")
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	var nc *nats.Conn
	if cfg.Nats.Enabled {
		nc, publisher, err = newPublisher(ctx, cfg)
		if err != nil {
			return err
		}
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return fmt.Errorf("nats connection status: %s", nc.Status())
			}
			return nil
		}
		logger.Info("Connected to NATS", slog.String("url", cfg.Nats.Url))
	}

	deps := &app.Dependencies{
		Service:      service.NewService(commerceClient, inflight.NewGuard(), publisher, cfg.Checkout.ShippingDetails(), logger),
		SessionStore: store,
		Checks:       checks,
		Metrics:      metricsHandler,
		Logger:       logger,
	}
	httpServer, err := app.SetupHttpServer(deps, cfg, serviceName)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	pprofServer := &http.Server{
		Addr:              cfg.PProf.Addr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if pgStore, ok := store.(*session.PgStore); ok {
		g.Go(func() error {
			purgeSessions(gCtx, pgStore, logger)
			return nil
		})
	}

	// drain NATS so that published events are flushed
	if nc != nil {
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Draining NATS connection")
			if err := nc.Drain(); err != nil {
				return fmt.Errorf("failed to drain NATS connection: %w", err)
			}
			return nil
		})
	}

	// gracefully shutdown telemetry providers
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down telemetry providers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return errors.Join(shutdownTracer(shutdownCtx), shutdownMeter(shutdownCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newSessionStore builds the configured session store. The pool is nil for the cookie store.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, *pgxpool.Pool, error) {
	opts := session.CookieOptions{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	}
	if cfg.Session.Store != config.SessionStorePostgres {
		tokens, err := auth.NewHMACTokens(cfg.Session.Secret, serviceName, cfg.Session.MaxAge)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create session signer: %w", err)
		}
		return session.NewCookieStore(tokens, opts), nil, nil
	}

	if cfg.Database.Migrate {
		if err := session.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, err
	}
	return session.NewPgStore(dbPool, opts), dbPool, nil
}

func newPublisher(ctx context.Context, cfg *config.Config) (*nats.Conn, messaging.Publisher, error) {
	nc, err := natsclient.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Nats.Timeout)
	defer cancel()
	if err := natsclient.EnsureStream(streamCtx, js, cfg.Nats.Stream, messaging.CheckoutCompletedSubject); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, natsclient.NewNatsPublisher(js), nil
}

// purgeSessions deletes expired server-side sessions until ctx is done.
func purgeSessions(ctx context.Context, store *session.PgStore, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Error("Failed to purge expired sessions", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Info("Purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}
