// Command server runs the data engine: resolution, read views, statuses, and
// the staff correction surface, plus the audit relay.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"trapper/internal/audit"
	"trapper/internal/blacklist"
	blacklisthandler "trapper/internal/blacklist/handler"
	"trapper/internal/geocode"
	geocodehandler "trapper/internal/geocode/handler"
	"trapper/internal/graph"
	graphhandler "trapper/internal/graph/handler"
	"trapper/internal/override"
	overridehandler "trapper/internal/override/handler"
	"trapper/internal/platform/config"
	"trapper/internal/platform/httpserver"
	"trapper/internal/platform/kafka"
	"trapper/internal/platform/logger"
	platformredis "trapper/internal/platform/redis"
	"trapper/internal/projection"
	projectionhandler "trapper/internal/projection/handler"
	"trapper/internal/resolve"
	resolvehandler "trapper/internal/resolve/handler"
	resolvemetrics "trapper/internal/resolve/metrics"
	"trapper/internal/status"
	statushandler "trapper/internal/status/handler"
	statusmetrics "trapper/internal/status/metrics"
	transport "trapper/internal/transport/http"
	"trapper/pkg/platform/middleware/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	kafkaClient, err := kafka.NewClient(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
	}

	auditStore := audit.NewPostgresStore(db)
	auditSink := audit.NewPublisher(auditStore)

	blacklistSvc := blacklist.NewService(blacklist.NewPostgresStore(db))

	resolveCfg, err := resolveConfig(cfg.Resolution)
	if err != nil {
		return err
	}
	resolveSvc := resolve.NewService(
		resolve.NewPostgresStore(db),
		blacklistSvc,
		auditSink,
		log,
		resolvemetrics.New(),
		resolveCfg,
	)

	projectionSvc := projection.NewService(
		projection.NewPostgresStore(db),
		projection.NewRedisCache(redisClient, cfg.ProjectionCacheTTL),
		log,
		cfg.ProjectionCacheTTL,
	)

	statusSvc := status.NewService(status.NewPostgresStore(db), auditSink, log)
	propagator := status.NewPropagator(
		status.NewPostgresStore(db),
		blacklistSvc,
		auditSink,
		log,
		statusmetrics.New(),
		status.Config{FIVWindow: cfg.Decay.FIVWindow, FeLVWindow: cfg.Decay.FeLVWindow},
	)

	linker := graph.NewLinker(graph.NewPostgresStore(db), blacklistSvc, log)

	overrideSvc := override.NewService(override.NewPostgresStore(db), auditSink, projectionSvc, log)
	geocodeSvc := geocode.NewService(geocode.NewPostgresStore(db), log)

	statusHdl := statushandler.New(statusSvc, propagator, log)
	resolveHdl := resolvehandler.New(resolveSvc, log)
	router := transport.New(transport.Deps{
		Resolve:    resolveHdl,
		ResolveOps: resolveHdl,
		Projection: projectionhandler.New(projectionSvc, log),
		Status:     statusHdl,
		StatusOps:  statusHdl,
		Graph:      graphhandler.New(linker, log),
		Override:   overridehandler.New(overrideSvc, log),
		Blacklist:  blacklisthandler.New(blacklistSvc, log),
		Geocode:    geocodehandler.New(geocodeSvc, log),
		Validator:  auth.NewValidator(cfg.JWTSigningKey),
		Logger:     log,
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	})

	server := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "http server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if kafkaClient != nil {
		relay := audit.NewRelay(auditStore, kafkaClient, cfg.AuditTopic, log)
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit relay: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.InfoContext(ctx, "server stopped")
	return nil
}

func resolveConfig(rc config.ResolutionConfig) (resolve.Config, error) {
	cfg := resolve.Config{
		WeightEmail:             rc.WeightEmail,
		WeightPhone:             rc.WeightPhone,
		WeightName:              rc.WeightName,
		WeightAddress:           rc.WeightAddress,
		AutoMatchThreshold:      rc.AutoMatchThreshold,
		ReviewThreshold:         rc.ReviewThreshold,
		MinIdentifierConfidence: rc.MinIdentifierConfidence,
	}
	if rc.PseudoAccountID != "" {
		id, err := uuid.Parse(rc.PseudoAccountID)
		if err != nil {
			return resolve.Config{}, fmt.Errorf("parse pseudo account id: %w", err)
		}
		cfg.PseudoAccountID = id
	}
	return cfg, nil
}
