package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/reelbrief/server/internal/access"
	"github.com/reelbrief/server/internal/circuitbreaker"
	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/content"
	"github.com/reelbrief/server/internal/dbpool"
	"github.com/reelbrief/server/internal/httpserver"
	"github.com/reelbrief/server/internal/ledger"
	"github.com/reelbrief/server/internal/lifecycle"
	"github.com/reelbrief/server/internal/logger"
	"github.com/reelbrief/server/internal/metrics"
	stripesvc "github.com/reelbrief/server/internal/stripe"
	"github.com/reelbrief/server/internal/subscriptions"
	"github.com/reelbrief/server/internal/tenants"
)

func main() {
	configPath := flag.String("config", os.Getenv("REELBRIEF_CONFIG"), "path to YAML config file")
	flag.Parse()

	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logger.New(logger.Config{Level: "error", Format: "console"})
		fallback.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "reelbrief-server",
		Environment: cfg.Logging.Environment,
	})

	closers := lifecycle.NewManager()
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)

	var db *dbpool.SharedPool
	if cfg.Storage.Backend == "postgres" {
		db, err = dbpool.NewSharedPool(cfg.Storage.PostgresURL, cfg.Storage.PostgresPool)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		closers.Register("postgres pool", db)
	}

	repoCfg := subscriptions.RepositoryConfig{
		Backend:         cfg.Storage.Backend,
		MongoDBURL:      cfg.Storage.MongoDBURL,
		MongoDBDatabase: cfg.Storage.MongoDBDatabase,
	}
	ledgerCfg := ledger.StoreConfig{
		Backend:         cfg.Storage.Backend,
		MongoDBURL:      cfg.Storage.MongoDBURL,
		MongoDBDatabase: cfg.Storage.MongoDBDatabase,
	}
	directoryCfg := tenants.DirectoryConfig{Backend: cfg.Storage.Backend}
	contentCfg := content.StoreConfig{Backend: contentBackend(cfg.Storage.Backend)}
	if db != nil {
		repoCfg.PostgresDB = db.DB()
		ledgerCfg.PostgresDB = db.DB()
		directoryCfg.PostgresDB = db.DB()
		contentCfg.PostgresDB = db.DB()
	}

	repo, err := subscriptions.NewRepository(repoCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create subscription repository")
	}
	closers.Register("subscription repository", repo)

	ledgerStore, err := ledger.NewStore(ledgerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create event ledger")
	}
	closers.Register("event ledger", ledgerStore)

	directory, err := tenants.NewDirectory(directoryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create tenant directory")
	}

	contentStore, err := content.NewStore(context.Background(), contentCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create content store")
	}

	breaker := circuitbreaker.NewFromConfig(cfg.CircuitBreaker)
	stripeClient := stripesvc.NewClient(cfg.Stripe, breaker, metricsCollector)
	reconciler := stripesvc.NewReconciler(stripeClient, repo, ledgerStore, directory, metricsCollector)

	evaluator := access.NewEvaluator(cfg.Billing)
	gate := access.NewGate(repo, evaluator, cfg.Billing, metricsCollector)
	contentSvc := content.NewService(contentStore)

	server := httpserver.New(cfg, reconciler, gate, repo, contentSvc, metricsCollector, log)

	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Str("storage", cfg.Storage.Backend).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := closers.Close(); err != nil {
		log.Error().Err(err).Msg("close resources")
	}
	log.Info().Msg("shutdown complete")
}

// contentBackend maps the shared storage backend to one the content store
// supports. Content rows live in the relational store; with the mongodb
// backend the content store runs in memory, the same fallback the tenant
// directory makes.
func contentBackend(backend string) string {
	if backend == "mongodb" {
		return "memory"
	}
	return backend
}
