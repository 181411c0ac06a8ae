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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/config"
	"github.com/kailas-cloud/facetdex/internal/db"
	dbBleve "github.com/kailas-cloud/facetdex/internal/db/bleve"
	dbElastic "github.com/kailas-cloud/facetdex/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	entityrepo "github.com/kailas-cloud/facetdex/internal/repository/entity"
	recordrepo "github.com/kailas-cloud/facetdex/internal/repository/record"
	searchrepo "github.com/kailas-cloud/facetdex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/facetdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/facetdex/internal/usecase/search"
	"github.com/kailas-cloud/facetdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting facetdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend_driver", cfg.Backend.Driver),
		zap.String("hydration_driver", cfg.Hydration.Driver),
		zap.Int("entities", len(cfg.Entities)),
	)

	entities, err := entityrepo.FromConfig(cfg.Entities)
	if err != nil {
		logger.Fatal("Invalid entity configuration", zap.Error(err))
	}

	ctx := context.Background()

	backend, err := openBackend(ctx, &cfg, entities)
	if err != nil {
		logger.Fatal("Failed to open search backend", zap.Error(err))
	}
	defer func() { _ = backend.Close() }()
	logger.Info("Search backend ready", zap.String("driver", cfg.Backend.Driver))

	var hydrator searchuc.Hydrator = recordrepo.NewSourceHydrator()
	// Stays a nil interface, not a typed nil pointer, when no hash store is configured.
	var hydrationPinger healthuc.Pinger
	if cfg.Hydration.Driver == config.HydrationRedis {
		hashes, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Hydration.Addrs,
			Password: cfg.Hydration.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create hydration store", zap.Error(err))
		}
		defer hashes.Close()

		timeout := time.Duration(cfg.Hydration.ReadinessTimeout) * time.Second
		if err := hashes.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Hydration store not ready", zap.Error(err))
		}
		hydrator = recordrepo.NewHashHydrator(hashes, cfg.Hydration.KeyPrefix)
		hydrationPinger = hashes
		logger.Info("Connected to hydration store", zap.Strings("addrs", cfg.Hydration.Addrs))
	}

	metrics.RegisterQueryMetrics()

	executor := searchuc.NewInstrumentedExecutor(searchrepo.New(backend), cfg.Backend.Driver, logger)
	searchSvc := searchuc.New(entities, executor, hydrator, searchuc.Limits{
		DefaultPerPage: cfg.Search.DefaultPerPage,
		MaxPerPage:     cfg.Search.MaxPerPage,
	})
	healthSvc := healthuc.New(backend, hydrationPinger)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openBackend creates the configured search backend. Bleve indexes are opened
// (or created from the entity schema) up front, one per distinct index name.
func openBackend(ctx context.Context, cfg *config.Config, entities *entityrepo.Repo) (db.Backend, error) {
	switch cfg.Backend.Driver {
	case config.BackendElasticsearch:
		store, err := dbElastic.NewStore(dbElastic.Config{
			Addrs:    cfg.Backend.Addrs,
			Username: cfg.Backend.Username,
			Password: cfg.Backend.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		timeout := time.Duration(cfg.Backend.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			return nil, fmt.Errorf("elasticsearch not ready: %w", err)
		}
		return store, nil

	case config.BackendBleve:
		store := dbBleve.NewStore(dbBleve.Config{Dir: cfg.Backend.BleveDir})
		for _, e := range entities.List(ctx) {
			def, err := db.IndexFromEntity(e)
			if err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("mapping for %s: %w", e.Name(), err)
			}
			if err := store.Open(def); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("open index %s: %w", def.Name, err)
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}
