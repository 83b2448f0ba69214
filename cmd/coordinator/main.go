// Command coordinator runs the voting session coordinator: the serial event
// loop over the shared Redis store plus the operator HTTP API.
//
// @title                      Vote Coordinator API
// @version                    1.0
// @description                Operator API for timed card-vote sessions: lifecycle, live tally, history and card registration.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the operator JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/its-hmtu/vote-dashboard/internal/api"
	"github.com/its-hmtu/vote-dashboard/internal/api/live"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
	"github.com/its-hmtu/vote-dashboard/internal/core/service"
	"github.com/its-hmtu/vote-dashboard/internal/infrastructure/config"
	mongodb "github.com/its-hmtu/vote-dashboard/internal/infrastructure/db/mongo"
	redisdb "github.com/its-hmtu/vote-dashboard/internal/infrastructure/db/redis"
	"github.com/its-hmtu/vote-dashboard/internal/infrastructure/queue"
	"github.com/its-hmtu/vote-dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "coordinator:", err)
		os.Exit(1)
	}
}

func connectArchive(ctx context.Context, cfg mongodb.Config) (*mongo.Client, *mongo.Database, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}
	return mongodb.Connect(ctx, cfg)
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty && !cfg.IsProduction(),
		Service: "vote-coordinator",
	})

	// --- Shared store ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
		Timeout:  cfg.Voting.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := redisdb.EnableKeyspaceEvents(ctx, rdb); err != nil {
		log.Warn().Err(err).Msg("could not enable keyspace notifications; relying on server configuration")
	}

	timeout := cfg.Voting.StoreTimeout
	sessions := redisdb.NewSessionStore(rdb, timeout)
	ledger := redisdb.NewLedgerStore(rdb, timeout)
	registry := redisdb.NewRegistryStore(rdb, timeout)
	cfgStore := redisdb.NewConfigStore(rdb, timeout)

	// --- Optional archive ---
	var (
		archive ports.ArchiveRepository
		mdb     *mongo.Database
	)
	mcfg := mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database}
	switch client, db, err := connectArchive(ctx, mcfg); {
	case !mcfg.Enabled():
		log.Info().Msg("MONGO_URI not set: results archive disabled")
	case err != nil:
		log.Error().Err(err).Msg("archive unreachable: results archive disabled")
	default:
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()

		repo := mongodb.NewArchiveRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("archive index creation failed")
		}
		archive, mdb = repo, db
	}

	// --- Services ---
	hub := live.NewHub(cfg.Live.MaxClients, cfg.Live.AllowedOrigins, logger.Component("live"))
	defer hub.Close()

	lifecycle := service.NewLifecycleService(service.LifecycleDeps{
		Sessions: sessions,
		Ledger:   ledger,
		Registry: registry,
		Config:   cfgStore,
		Archive:  archive,
		Log:      logger.Component("lifecycle"),
	}, service.RetryPolicy{
		Initial:    cfg.Voting.StopRetryInitial,
		MaxElapsed: cfg.Voting.StopRetryMaxElapsed,
	})

	liveView := service.NewLiveViewService(service.LiveViewDeps{
		Sessions:  sessions,
		Ledger:    ledger,
		Registry:  registry,
		Config:    cfgStore,
		Anomalies: redisdb.NewAnomalyMarker(rdb),
		Publisher: hub,
		Log:       logger.Component("live_view"),
	})

	registration := service.NewRegistrationService(registry, cfgStore, sessions, nil, logger.Component("registration"))

	catalog := service.NewCatalogService(service.CatalogDeps{
		Sessions: sessions,
		Ledger:   ledger,
		Registry: registry,
		Config:   cfgStore,
		Archive:  archive,
		Location: loc,
		Log:      logger.Component("catalog"),
	})

	coordinator := service.NewCoordinator(lifecycle, liveView, registration, logger.Component("coordinator"))

	// --- Recover whatever the previous process left behind ---
	if err := lifecycle.Resume(ctx); err != nil {
		log.Error().Err(err).Msg("session recovery incomplete; ticks will retry")
	}
	if err := liveView.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial live view unavailable")
	}

	// --- Event loop ---
	dispatcher := queue.NewDispatcher(cfg.Voting.TickInterval, coordinator, logger.Component("dispatcher"))
	loopDone := dispatcher.Start(ctx)

	subscriber := redisdb.NewSubscriber(rdb, cfg.Redis.DB, logger.Component("subscriber"))
	go dispatcher.Watch(ctx, subscriber, service.WatchedPrefixes()...)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Lifecycle:    lifecycle,
		Live:         liveView,
		Catalog:      catalog,
		Registration: registration,
		Hub:          hub,
		Mongo:        mdb,
		Redis:        rdb,
		JWTSecret:    cfg.JWTSecret,
		Log:          logger.Component("http"),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		serveErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	stop()
	<-loopDone
	log.Info().Msg("coordinator stopped")
	return nil
}
