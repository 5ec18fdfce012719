package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"afilia/internal/auth"
	"afilia/internal/catalog"
	"afilia/internal/jwttoken"
	"afilia/internal/platform/config"
	"afilia/internal/platform/httpserver"
	"afilia/internal/platform/logger"
	"afilia/internal/platform/metrics"
	"afilia/internal/platform/middleware"
	platformredis "afilia/internal/platform/redis"
	"afilia/internal/postal"
	"afilia/internal/profile"
	regHandler "afilia/internal/registration/handler"
	"afilia/internal/registration/reconcile"
	"afilia/internal/registration/service"
	"afilia/internal/registration/store"
	"afilia/internal/registry"
	"afilia/internal/signing"
	audit "afilia/pkg/platform/audit"
	"afilia/pkg/platform/audit/outbox"
	"afilia/pkg/platform/audit/publisher"
	auditmem "afilia/pkg/platform/audit/store/memory"
	auditpg "afilia/pkg/platform/audit/store/postgres"
	"afilia/pkg/platform/httputil"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs wizard sessions and the catalog cache. Without it the
	// process falls back to in-memory stores, which only suits a single
	// instance.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var sessions store.SessionStore
	if redisClient != nil {
		sessions = store.NewRedis(redisClient, cfg.Wizard.SessionTTL)
		log.Info("wizard sessions backed by redis")
	} else {
		sessions = store.NewMemory(cfg.Wizard.SessionTTL)
		log.Warn("no redis configured, wizard sessions are in-memory")
	}

	// Postgres backs completed registrations and the audit outbox.
	var (
		pool          *pgxpool.Pool
		auditDB       *sql.DB
		registrations interface {
			service.RegistrationSink
			regHandler.RegistrationReader
		}
		auditStore audit.Store
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore := registry.NewStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("registrations schema failed", "error", err)
			os.Exit(1)
		}
		registrations = pgStore

		auditDB, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("audit db open failed", "error", err)
			os.Exit(1)
		}
		defer auditDB.Close()

		outboxStore := auditpg.New(auditDB)
		if err := outboxStore.EnsureSchema(ctx); err != nil {
			log.Error("audit schema failed", "error", err)
			os.Exit(1)
		}
		auditStore = outboxStore

		// The outbox worker drains audit rows to Kafka when brokers are
		// configured; without them rows simply accumulate.
		if len(cfg.Kafka.Brokers) > 0 {
			kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
			if err != nil {
				log.Error("kafka client failed", "error", err)
				os.Exit(1)
			}
			defer kafkaClient.Close()
			if err := outbox.EnsureTopic(ctx, kafkaClient, cfg.Kafka.Topic); err != nil {
				log.Error("kafka topic setup failed", "error", err)
				os.Exit(1)
			}
			worker := outbox.NewWorker(outboxStore, kafkaClient, cfg.Kafka.Topic, log)
			go func() {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit outbox worker stopped", "error", err)
				}
			}()
		}
	} else {
		log.Warn("no postgres configured, registrations and audit are in-memory")
		registrations = registry.NewMemory()
		auditStore = auditmem.NewInMemoryStore()
	}

	auditPub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer auditPub.Close()

	// Outbound dependencies.
	lookup := profile.NewHTTPClient(cfg.CX, m)
	products := catalog.NewCached(catalog.NewHTTPClient(cfg.CX), redisClient, cfg.Wizard.CatalogCacheTTL, log)
	postalValidator := postal.NewHTTPValidator(cfg.Postal.BaseURL, cfg.Postal.Timeout)
	pipeline := signing.NewPipeline(signing.NewHTTPProvider(cfg.Signing), log, m)

	svc := service.New(service.Config{
		Sessions:       sessions,
		Engine:         reconcile.New(lookup, cfg.Wizard.AcceptedPrograms, log, m),
		Pipeline:       pipeline,
		Catalog:        products,
		Postal:         postalValidator,
		Registry:       registrations,
		Audit:          auditPub,
		Logger:         log,
		Metrics:        m,
		SupportContact: cfg.Wizard.SupportContact,
	})

	tokens := jwttoken.NewJWTService(cfg.Auth.SigningKey, "afilia", "afilia-kiosk")
	authHandler := auth.New(tokens, cfg.Auth.APIKeyHash, cfg.Auth.TokenTTL, auditPub, log)
	wizardHandler := regHandler.New(svc, registrations, log)

	router := chi.NewRouter()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Timeout(60*time.Second),
		middleware.LatencyMiddleware(m),
		middleware.Device,
	)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler(redisClient, pool))
	authHandler.Register(router)

	// The signing provider posts callbacks without a bearer token.
	wizardHandler.RegisterCallback(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(tokens, log))
		wizardHandler.Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting afilia", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func healthHandler(redisClient *platformredis.Client, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				status["status"] = "degraded"
				status["redis"] = err.Error()
			}
		}
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				status["status"] = "degraded"
				status["postgres"] = err.Error()
			}
		}
		code := http.StatusOK
		if status["status"] != "ok" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
