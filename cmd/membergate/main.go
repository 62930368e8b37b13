package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/membergate/pkg/activitylog"
	"github.com/platinummonkey/membergate/pkg/api"
	"github.com/platinummonkey/membergate/pkg/authorizer"
	"github.com/platinummonkey/membergate/pkg/config"
	"github.com/platinummonkey/membergate/pkg/gate"
	"github.com/platinummonkey/membergate/pkg/identity"
	"github.com/platinummonkey/membergate/pkg/observability"
	"github.com/platinummonkey/membergate/pkg/rolemap"
	"github.com/platinummonkey/membergate/pkg/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "membergate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(nil)

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing OpenTelemetry: %w", err)
	}

	// Account store.
	db, err := sql.Open("postgres", cfg.Storage.PostgresURL)
	if err != nil {
		return fmt.Errorf("opening postgres: %w", err)
	}
	defer db.Close()
	accounts := authorizer.NewPostgresAccountStore(db)
	if err := accounts.Migrate(ctx); err != nil {
		return err
	}

	// Session store.
	redisClient, err := session.NewRedisClient(cfg.Storage.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()
	sessions := session.NewRedisStore(redisClient, cfg.Session.IdleThreshold, metrics)

	// Identity providers.
	providerConfigs, err := config.LoadProviders(cfg.Providers.File)
	if err != nil {
		return err
	}
	registry, err := identity.NewRegistry(ctx, cfg.Providers.ActiveID, providerConfigs)
	if err != nil {
		return err
	}

	// Login event bus: role mapping first, then the activity log. Order
	// matters, every subscriber is fail-closed for the login.
	bus := authorizer.NewEventBus()
	_, activeCfg := registry.Active()
	roleEngine := rolemap.NewEngine(activeCfg, accounts, logger, metrics)
	bus.Subscribe(roleEngine)

	var recorder *activitylog.Subscriber
	var activityStore *activitylog.Store
	if cfg.ActivityLog.Enabled {
		activityStore, err = activitylog.Open(cfg.Storage.ActivityPath, cfg.ActivityLog.Granularity)
		if err != nil {
			return err
		}
		recorder = activitylog.NewSubscriber(activityStore, logger, metrics)
		bus.Subscribe(recorder)
	}

	auth := authorizer.New(accounts, sessions, bus, logger, metrics)

	sessionHandlers := session.NewHandlers(sessions, logger, metrics)
	if recorder != nil {
		sessionHandlers.WithActivitySink(activitylog.NewSessionSink(recorder, accounts))
	}

	detector, err := gate.NewCachingDetector(gate.NewStaticDetector(), 1024)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Registry:        registry,
		Authorizer:      auth,
		Sessions:        sessions,
		Detector:        detector,
		SessionHandlers: sessionHandlers,
		PostLoginURL:    cfg.Session.PostLoginURL,
		TracingEnabled:  cfg.Observability.OTelEnabled,
		Logger:          logger,
		Metrics:         metrics,
	})

	mainServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthChecker := observability.NewHealthChecker(db, redisClient)
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: api.HealthHandler(healthChecker, metrics),
	}

	shutdown := observability.NewShutdownManager(logger, mainServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})

	// Providers file hot reload.
	watchDone := make(chan struct{})
	if cfg.Providers.WatchFile {
		err := config.WatchProviders(cfg.Providers.File, func(configs []identity.Config) error {
			if err := registry.Reload(ctx, cfg.Providers.ActiveID, configs); err != nil {
				return err
			}
			_, active := registry.Active()
			roleEngine.Update(active)
			return nil
		}, logger, watchDone)
		if err != nil {
			return err
		}
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		close(watchDone)
		return nil
	})

	// Activity log archiver.
	if activityStore != nil {
		archiver := activitylog.NewArchiver(activityStore, cfg.ActivityLog.RetentionMonths,
			cfg.ActivityLog.ArchiveSchedule, logger)
		if err := archiver.Start(); err != nil {
			return fmt.Errorf("starting activity log archiver: %w", err)
		}
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			archiver.Stop()
			return activityStore.Close()
		})
	}

	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithField("addr", mainServer.Addr).Info("gate server listening")
		if err := mainServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(shutdown.WaitForShutdown)

	return group.Wait()
}
