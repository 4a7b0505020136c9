package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"logoserver/internal/account"
	"logoserver/internal/bus"
	"logoserver/internal/dispatch"
	"logoserver/internal/generation"
	"logoserver/internal/http/handlers"
	httpapi "logoserver/internal/http/httpapi"
	"logoserver/internal/infra"
	"logoserver/internal/infra/geoip"
	"logoserver/internal/middleware"
	provider "logoserver/internal/providers/image"
	"logoserver/internal/quota"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Account store backend.
	var (
		accounts account.Store
		sqlExec  infra.SQLExecutor
	)
	switch cfg.AccountStore {
	case "postgres":
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		sqlExec = runner
		accounts = account.NewPostgresStore(runner)
	case "sqlite":
		store, err := account.NewSQLiteStore(cfg.AccountDBPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.AccountDBPath).Msg("failed to open account store")
		}
		defer store.Close()
		accounts = store
	default:
		accounts = account.NewMemoryStore()
	}

	// Quota counters: SQLite when a path is configured, otherwise in-process.
	var quotas quota.Store
	if cfg.QuotaDBPath != "" {
		store, err := quota.NewSQLiteStore(cfg.QuotaDBPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.QuotaDBPath).Msg("failed to open quota store")
		}
		defer store.Close()
		quotas = store
	} else {
		quotas = quota.NewMemoryStore()
	}

	// Optional GeoIP country lookup for quota identities.
	var countryLookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip database unavailable")
		} else {
			defer resolver.Close()
			countryLookup = resolver.CountryCode
		}
	}

	// Optional NATS event publishing.
	var events bus.Publisher = bus.Noop{}
	if cfg.NATSURL != "" {
		client, err := bus.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.NATSURL).Msg("nats unavailable, events disabled")
		} else {
			defer client.Close()
			events = client
		}
	}

	providers := provider.NewDefaultRegistry(&http.Client{}, cfg.SyntheticProviders)
	dispatcher := dispatch.New(cfg.MaxWorkers, logger)

	svc := generation.NewService(generation.Options{
		Dispatcher:   dispatcher,
		Providers:    providers,
		Quotas:       quotas,
		Accounts:     accounts,
		Events:       events,
		SQL:          sqlExec,
		Logger:       logger,
		AwaitTimeout: cfg.GenerateWaitTimeout,
	})

	app := &handlers.App{
		Logger:      logger,
		JWTSecret:   cfg.JWTSecret,
		Accounts:    accounts,
		Quotas:      quotas,
		Generator:   svc,
		PayPalEmail: cfg.PayPalBusinessEmail,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimitPerMin,
		CountryLookup:  countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDrain()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("failed to drain generation workers")
	}
	logger.Info().Msg("server stopped")
}
