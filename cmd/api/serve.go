package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clinic-console/internal/adapters/auth/identity"
	"clinic-console/internal/adapters/auth/jwtverifier"
	"clinic-console/internal/adapters/errsinks/natssink"
	"clinic-console/internal/adapters/errsinks/sentrysink"
	"clinic-console/internal/adapters/storage"
	"clinic-console/internal/config"
	"clinic-console/internal/domain/calendar"
	"clinic-console/internal/platform/errbus"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/platform/metrics"
	"clinic-console/internal/platform/notify"
	"clinic-console/internal/ports/auth"
	"clinic-console/internal/router"

	"golang.org/x/sync/errgroup"
)

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return err
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, closeStore, err := storage.Open(openCtx, cfg.Store, log)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	bus := errbus.New()
	closeSinks, err := attachSinks(cfg.Errors, bus, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	app := router.New(router.Options{
		AuthVerifier: verifier,
		Store:        store,
		Logger:       log,
		Metrics:      metrics.New(),
		Bus:          bus,
		Notify:       notify.NewHub(cfg.Notify.History),
		Calendar: calendar.Options{
			MonthsBefore: cfg.Calendar.MonthsBefore,
			MonthsAfter:  cfg.Calendar.MonthsAfter,
			Location:     loc,
		},
		Swagger: cfg.Server.Swagger,
	})
	defer app.Close()

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     app.Handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// sin WriteTimeout: los streams SSE quedan abiertos
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{
			"addr":  srv.Addr,
			"store": cfg.Store.Driver,
			"auth":  cfg.Auth.Mode,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if derr := app.Drain(shutdownCtx); derr != nil {
			log.Warn("pending writes not drained", map[string]any{"err": derr.Error()})
		}
		return err
	})

	return g.Wait()
}

func newVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	switch cfg.Mode {
	case config.AuthJWT:
		return jwtverifier.New(cfg.JWTSecret, cfg.JWTIssuer), nil
	case config.AuthIdentity:
		client, err := identity.NewClient(identity.Config{
			BaseURL: cfg.IdentityBaseURL,
			APIKey:  cfg.IdentityAPIKey,
			Timeout: cfg.IdentityTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("identity client: %w", err)
		}
		return identity.NewVerifier(client), nil
	default:
		// modo dev: X-Debug-User-ID
		return nil, nil
	}
}

// attachSinks engancha al bus los destinos de errores configurados.
func attachSinks(cfg config.ErrorsConfig, bus *errbus.Bus, log logger.Logger) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NATSURL != "" {
		nc, err := natssink.Connect(cfg.NATSURL, appName)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		detach := natssink.New(nc, cfg.NATSSubject, log).Attach(bus)
		closers = append(closers, func() {
			detach()
			_ = nc.Drain()
		})
		log.Info("errors forwarded to nats", map[string]any{"subject": cfg.NATSSubject})
	}

	if cfg.SentryDSN != "" {
		hub, err := sentrysink.NewHub(sentrysink.Options{DSN: cfg.SentryDSN, Environment: cfg.SentryEnv})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("sentry: %w", err)
		}
		sink := sentrysink.New(hub)
		detach := sink.Attach(bus)
		closers = append(closers, func() {
			detach()
			sink.Flush(2 * time.Second)
		})
		log.Info("errors forwarded to sentry", map[string]any{"environment": cfg.SentryEnv})
	}

	return closeAll, nil
}
