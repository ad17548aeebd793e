package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"memoria/internal/audit"
	"memoria/internal/namescan"
	namescanmetrics "memoria/internal/namescan/metrics"
	"memoria/internal/people"
	"memoria/internal/people/claims"
	claimshandler "memoria/internal/people/claims/handler"
	peoplehandler "memoria/internal/people/handler"
	"memoria/internal/platform/config"
	"memoria/internal/platform/httpserver"
	"memoria/internal/platform/kafka"
	"memoria/internal/platform/logger"
	"memoria/internal/platform/metrics"
	"memoria/internal/platform/postgres"
	"memoria/internal/platform/redis"
	"memoria/internal/preference"
	preferencehandler "memoria/internal/preference/handler"
	"memoria/internal/reference"
	referencehandler "memoria/internal/reference/handler"
	referencemetrics "memoria/internal/reference/metrics"
	"memoria/internal/story"
	storyhandler "memoria/internal/story/handler"
	storymetrics "memoria/internal/story/metrics"
	"memoria/internal/token"
	httptransport "memoria/internal/transport/http"
)

const (
	tokenIssuer   = "memoria"
	tokenAudience = "memoria-web"

	auditTopicPartitions  = 3
	auditTopicReplication = 1

	shutdownGrace = 10 * time.Second
)

// main wires configuration, stores, services, and the HTTP router, then
// runs everything under one lifecycle. Business logic lives in the
// internal service packages.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// .env is optional; environment overrides still apply without it.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: Postgres when configured, in-memory otherwise. The
	// in-memory set keeps local development and demos free of
	// infrastructure.
	var (
		storyStore  story.Store
		refStore    reference.Store
		peopleStore people.Store
		claimStore  claims.Store
		prefStore   preference.Store
		sinks       []audit.Sink
	)
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		storyStore = story.NewPostgresStore(db)
		refStore = reference.NewPostgresStore(db)
		peopleStore = people.NewPostgresStore(db)
		claimStore = claims.NewPostgresStore(db)
		prefStore = preference.NewPostgresStore(db)
		sinks = append(sinks, audit.NewPostgresStore(db))
		log.Info("postgres connected")
	} else {
		storyStore = story.NewInMemoryStore()
		refStore = reference.NewInMemoryStore()
		peopleStore = people.NewInMemoryStore()
		claimStore = claims.NewInMemoryStore()
		prefStore = preference.NewInMemoryStore()
		sinks = append(sinks, audit.NewInMemoryStore())
		log.Warn("postgres dsn not configured, using in-memory stores")
	}

	// Preference snapshot cache. Optional: a nil cache reads through to
	// the store on every snapshot.
	var prefCache *preference.Cache
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		prefCache = preference.NewCache(rdb.Client, cfg.Redis.SnapshotTTL.Std())
		log.Info("preference snapshot cache enabled", "ttl", cfg.Redis.SnapshotTTL.Std())
	}

	// Audit pipeline: non-blocking publisher, one worker fanning out to
	// every sink. Kafka joins the sink set only when brokers are
	// configured.
	publisher := audit.NewPublisher(cfg.Audit.BufferSize, log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, auditTopicPartitions, auditTopicReplication); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		sinks = append(sinks, audit.NewKafkaSink(producer))
		log.Info("kafka audit sink enabled", "topic", cfg.Kafka.Topic)
	}
	worker := audit.NewWorker(publisher.Inbox(), log, sinks...)

	// Services.
	peopleService := people.NewService(peopleStore, publisher, log)
	prefService := preference.NewService(prefStore, peopleStore, prefCache, publisher, log)
	scanner := namescan.NewScanner(peopleStore, prefService, refStore, log,
		namescan.WithMaxNames(cfg.Scan.MaxNames),
		namescan.WithMetrics(namescanmetrics.New()),
	)
	storyService := story.NewService(storyStore, refStore, peopleService, prefService, scanner, publisher, log,
		story.WithGate(story.ConsentHoldGate{}),
		story.WithMetrics(storymetrics.New()),
	)
	refService := reference.NewService(refStore, peopleStore, prefService, storyService, publisher, log,
		reference.WithMetrics(referencemetrics.New()),
	)
	claimService := claims.NewService(claimStore, peopleStore, publisher, log)

	tokens := token.NewService(cfg.Auth.JWTSigningKey, tokenIssuer, tokenAudience)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		Validator:      token.NewMiddlewareValidator(tokens),
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout.Std(),
		Handlers: []httptransport.Registrar{
			storyhandler.New(storyService, log),
			referencehandler.New(refService, log),
			peoplehandler.New(peopleService, log),
			claimshandler.New(claimService, log),
			preferencehandler.New(prefService, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})

	// Cache invalidation rides Postgres NOTIFY, so the listener only
	// runs when both Postgres and the cache are present.
	if prefCache != nil && cfg.Postgres.DSN != "" {
		listener := preference.NewListener(cfg.Postgres.DSN, prefCache, log)
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
