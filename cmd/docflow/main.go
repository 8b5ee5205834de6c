package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/docflow/pkg/access"
	"github.com/platinummonkey/docflow/pkg/audit"
	"github.com/platinummonkey/docflow/pkg/config"
	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/doctype"
	"github.com/platinummonkey/docflow/pkg/engine"
	"github.com/platinummonkey/docflow/pkg/groups"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/middleware"
	"github.com/platinummonkey/docflow/pkg/notify"
	"github.com/platinummonkey/docflow/pkg/observability"
	"github.com/platinummonkey/docflow/pkg/storage"
	"github.com/platinummonkey/docflow/pkg/webhooks"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := observability.NewLogger(observability.ParseLogLevel(cfg.LogLevel), os.Stdout)
	metrics := observability.NewMetrics(nil)

	store, closeStore, err := openStore(cfg, metrics)
	if err != nil {
		log.WithError(err).Error("failed to initialize storage")
		os.Exit(1)
	}
	defer closeStore()

	groupCache, err := openGroupCache(cfg)
	if err != nil {
		log.WithError(err).Error("failed to initialize group cache")
		os.Exit(1)
	}
	groupRegistry := groups.NewRegistry(
		groups.NewCollectionStore(store, ""),
		groupCache,
		log.WithField("component", "groups"),
		metrics,
	)

	seed, err := config.LoadGroupSeed(cfg.GroupSeedPath)
	if err != nil {
		log.WithError(err).Error("failed to load group seed")
		os.Exit(1)
	}
	if err := groupRegistry.Seed(context.Background(), seed); err != nil {
		log.WithError(err).Error("failed to seed groups")
		os.Exit(1)
	}

	resolver := groups.NewResolver(groupRegistry, log.WithField("component", "resolver"))
	evaluator := access.NewEvaluator(resolver, cfg.Admin, log.WithField("component", "access"), metrics)

	auditLog := audit.Logger(audit.NopLogger{})
	if path := os.Getenv("DOCFLOW_AUDIT_LOG"); path != "" {
		fileLog, err := audit.NewFileLogger(path)
		if err != nil {
			log.WithError(err).Error("failed to open audit log")
			os.Exit(1)
		}
		defer fileLog.Close()
		auditLog = fileLog
	}

	dispatcher := notify.NewDispatcher(notify.LogNotifier{Log: log}, log.WithField("component", "notify"))
	types := registerTypes(dispatcher)

	webhookManager := webhooks.NewManager(log.WithField("component", "webhooks"))

	svc := engine.NewService(types, store, groupRegistry, evaluator,
		engine.WithLogger(log.WithField("component", "engine")),
		engine.WithMetrics(metrics),
		engine.WithAuditLogger(auditLog),
		engine.WithGroupSeed(seed),
		engine.WithEventPublisher(webhookManager),
	)

	router := mux.NewRouter()
	router.Use(middleware.Recover(log))
	router.Use(middleware.Logging(log.WithField("component", "http")))
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			log.WithError(err).Error("invalid redis URL")
			os.Exit(1)
		}
		limiter := middleware.NewDistributedRateLimitMiddleware(redis.NewClient(opts), log.WithField("component", "ratelimit"))
		router.Use(limiter.Handler)
	} else {
		router.Use(middleware.NewRateLimitMiddleware().Handler)
	}

	engine.NewHandler(svc, identity.HeaderResolver{}).RegisterRoutes(router)

	// Webhook management shares the engine's admin rules; the guard resolves
	// the caller and runs the same check the admin operations use.
	webhookGuard := webhooks.Guard(func(r *http.Request) error {
		caller, ok := identity.HeaderResolver{}.Resolve(r)
		if !ok {
			return docerr.AccessDenied("no caller identity")
		}
		return evaluator.RequireAdmin(r.Context(), &doctype.EvalContext{Caller: caller, Access: evaluator})
	})
	webhooks.NewHandler(webhookManager, webhookGuard).RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", server.Addr).Info("docflow server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}

func openStore(cfg *config.Config, metrics *observability.Metrics) (storage.Store, func(), error) {
	switch cfg.Storage.Type {
	case "memory":
		return storage.Instrument(storage.NewMemoryStore(), metrics), func() {}, nil
	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewSQLStore(db, "sqlite3")
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := store.Init(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return storage.Instrument(store, metrics), func() { db.Close() }, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewSQLStore(db, "postgres")
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := store.Init(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return storage.Instrument(store, metrics), func() { db.Close() }, nil
	default:
		return nil, nil, os.ErrInvalid
	}
}

func openGroupCache(cfg *config.Config) (groups.Cache, error) {
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return nil, err
		}
		return groups.NewRedisCache(redis.NewClient(opts), cfg.Storage.GroupCacheTTL), nil
	}
	return groups.NewLRUCache(cfg.Storage.GroupCacheSize, cfg.Storage.GroupCacheTTL), nil
}
