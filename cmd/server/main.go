// Command server runs the Pravado intelligence API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	authhandler "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/handler"
	authmetrics "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/metrics"
	authservice "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/service"
	sessionstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/session"
	userstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/user"
	cchandler "github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/handler"
	ccmetrics "github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/metrics"
	ccservice "github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/service"
	ccstore "github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/store"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/featureflag"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/health"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/jwttoken"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/narrative/llm"
	orghandler "github.com/cryptocrystian/pravado-v2-sub011/internal/org/handler"
	orgmetrics "github.com/cryptocrystian/pravado-v2-sub011/internal/org/metrics"
	orgservice "github.com/cryptocrystian/pravado-v2-sub011/internal/org/service"
	orgstore "github.com/cryptocrystian/pravado-v2-sub011/internal/org/store"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/config"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/httpserver"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/logger"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/metrics"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/postgres"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/redis"
	transporthttp "github.com/cryptocrystian/pravado-v2-sub011/internal/transport/http"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags := featureflag.New(cfg.FeatureOverrides)

	// Backing stores. Postgres and Redis are optional in dev; the service
	// falls back to memory-backed stores when they are not configured.
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
		}
		log.Info("postgres connected")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	var (
		orgs       orgstore.OrgStore      = orgstore.NewInMemory()
		users      userstore.Store        = userstore.NewInMemory()
		sessions   sessionstore.Store     = sessionstore.NewInMemory()
		dashboards ccstore.DashboardStore = ccstore.NewInMemoryDashboards()
		insights   ccstore.InsightStore   = ccstore.NewInMemoryInsights()
		kpis       ccstore.KPIStore       = ccstore.NewInMemoryKPIs()
		narratives ccstore.NarrativeStore = ccstore.NewInMemoryNarratives()
		auditStore audit.Store            = audit.NewInMemoryStore()
	)
	if db != nil {
		orgs = orgstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		dashboards = ccstore.NewPostgresDashboards(db)
		insights = ccstore.NewPostgresInsights(db)
		kpis = ccstore.NewPostgresKPIs(db)
		narratives = ccstore.NewPostgresNarratives(db)
		auditStore = audit.NewPostgresStore(db)
	}
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient.Client)
	}

	// Audit pipeline: publisher -> worker -> store, plus an optional Kafka
	// sink behind the audit_kafka flag.
	publisher := audit.NewPublisher(log, 0)
	var sinks []audit.Sink
	if flags.Enabled(featureflag.AuditKafka) && len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		if kafkaSink != nil {
			defer kafkaSink.Close()
			sinks = append(sinks, kafkaSink)
			log.Info("kafka audit sink enabled", "topic", cfg.Kafka.AuditTopic)
		}
	}
	worker := audit.NewWorker(log, auditStore, publisher.Inbox(), sinks...)

	generator, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}
	log.Info("llm provider selected", "provider", cfg.LLM.Provider)

	tokens := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	orgSvc := orgservice.New(orgs,
		orgservice.WithAuditor(publisher),
		orgservice.WithMetrics(orgmetrics.New()),
	)
	authOpts := []authservice.Option{
		authservice.WithAuditor(publisher),
		authservice.WithMetrics(authmetrics.New()),
	}
	if db != nil {
		authOpts = append(authOpts, authservice.WithTxRunner(tx.NewSQLRunner(db)))
	}
	authSvc := authservice.New(users, sessions, orgSvc, tokens,
		cfg.Auth.AccessTokenTTL, cfg.Auth.SessionTTL, authOpts...)
	ccSvc := ccservice.New(dashboards, insights, kpis, narratives, generator, flags,
		ccservice.WithAuditor(publisher),
		ccservice.WithMetrics(ccmetrics.New()),
	)

	healthHandler := health.New(log, cfg.App, cfg.Environment, cfg.Version, flags)
	if db != nil {
		healthHandler.AddDependency("postgres", pinger(func(ctx context.Context) error {
			return postgres.Health(ctx, db)
		}))
	}
	if redisClient != nil {
		healthHandler.AddDependency("redis", redisClient)
	}

	httpMetrics := metrics.New()
	secureCookies := cfg.Environment == "production"

	router := transporthttp.NewRouter(transporthttp.Deps{
		Logger:          log,
		Config:          cfg,
		Metrics:         httpMetrics,
		TokenValidator:  tokens,
		SessionResolver: authSvc,
		OrgGate:         orgSvc,
		Health:          healthHandler,
		Auth:            authhandler.New(authSvc, cfg.Auth.SessionCookie, secureCookies, log),
		Orgs:            orghandler.New(orgSvc, log),
		CommandCenter:   cchandler.New(ccSvc, log),
		Audit:           audit.NewHandler(log, auditStore),
	})

	server := httpserver.New(cfg.HTTP.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pinger adapts a func to the health.Pinger interface.
type pinger func(ctx context.Context) error

func (p pinger) Health(ctx context.Context) error {
	return p(ctx)
}
