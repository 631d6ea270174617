package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/audit"
	"hraccess/internal/domain/reports"
	"hraccess/internal/platform/config"
	"hraccess/internal/platform/db"
	"hraccess/internal/platform/events"
	"hraccess/internal/platform/jobs"
	"hraccess/internal/platform/metrics"
	"hraccess/internal/transport/http/api"
	accesshandler "hraccess/internal/transport/http/handlers/access"
	audithandler "hraccess/internal/transport/http/handlers/audit"
	authhandler "hraccess/internal/transport/http/handlers/auth"
	reportshandler "hraccess/internal/transport/http/handlers/reports"
	"hraccess/internal/transport/http/middleware"
)

// Deps are the collaborators the router needs. Optional ones stay nil when the
// backing service is not configured.
type Deps struct {
	Store     access.Store
	Auditor   access.Auditor
	AuditLog  audithandler.EventLister
	Publisher access.Publisher
	Metrics   *metrics.Collector
	Checks    map[string]func(context.Context) error
}

func Run() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	service := newAccessService(cfg, deps)

	runner := jobs.New()
	runner.Start(ctx)
	if _, err := runner.RunNow(ctx, jobs.JobStartupCheck, startupCheck(service, deps.Checks)); err != nil {
		slog.Error("startup check failed", "err", err)
		os.Exit(1)
	}
	runner.Every(ctx, jobs.JobPendingChangeSweep, cfg.PendingChangeTTL, func(context.Context) (any, error) {
		return map[string]int{"removed": service.PurgeExpiredChanges()}, nil
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, deps, service),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("permission service listening", "addr", cfg.Addr, "store", cfg.StoreDriver, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func buildDeps(ctx context.Context, cfg config.Config) (Deps, func(), error) {
	deps := Deps{
		Metrics: metrics.New(),
		Checks:  map[string]func(context.Context) error{},
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.UsesMemoryStore() {
		var seed []access.Credentials
		if cfg.RunSeed {
			var err error
			if seed, err = db.MemorySeed(cfg.SeedPassword); err != nil {
				return Deps{}, cleanup, err
			}
		}
		deps.Store = access.NewMemoryStore(seed...)
		slog.Warn("using in-memory store; changes are lost on restart")
	} else {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return Deps{}, cleanup, err
		}
		closers = append(closers, pool.Close)

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				return Deps{}, cleanup, err
			}
		}
		if cfg.RunSeed {
			if err := db.Seed(ctx, pool, cfg.SeedPassword); err != nil {
				return Deps{}, cleanup, err
			}
		}

		auditLog := audit.New(pool)
		deps.Store = access.NewPGStore(pool)
		deps.Auditor = auditLog
		deps.AuditLog = auditLog
		deps.Checks["database"] = pool.Ping
	}

	if cfg.RedisAddr != "" {
		client := events.NewRedisClient(cfg)
		closers = append(closers, func() { _ = client.Close() })
		publisher := events.NewRedisPublisher(client, cfg.PermissionEventsChannel)
		deps.Publisher = publisher
		deps.Checks["redis"] = publisher.Ping

		go func() {
			err := publisher.Subscribe(ctx, observePermissionChange(deps.Metrics))
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("permission event subscription ended", "err", err)
			}
		}()
	}

	return deps, cleanup, nil
}

// startupCheck verifies every dependency check and that the store answers
// before the listener opens.
func startupCheck(service *access.Service, checks map[string]func(context.Context) error) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		for name, check := range checks {
			if err := check(ctx); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		users, err := service.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		slog.Info("startup check passed", "users", len(users), "checks", len(checks))
		return map[string]int{"users": len(users)}, nil
	}
}

func observePermissionChange(m *metrics.Collector) func(access.ChangeEvent) {
	return func(event access.ChangeEvent) {
		if m != nil {
			m.RecordPermissionChange(event.ChangedAt)
		}
		slog.Info("permission change observed", "userId", event.UserID, "actorId", event.ActorID, "level", event.Level)
	}
}

func newAccessService(cfg config.Config, deps Deps) *access.Service {
	service := access.NewService(deps.Store, deps.Auditor, deps.Publisher)
	service.PendingTTL = cfg.PendingChangeTTL
	return service
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	return newRouter(cfg, deps, newAccessService(cfg, deps))
}

func newRouter(cfg config.Config, deps Deps, service *access.Service) http.Handler {
	var gate middleware.GateRecorder
	if deps.Metrics != nil {
		gate = deps.Metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, check := range deps.Checks {
			if err := check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", name, "err", err)
				http.Error(w, name+" not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(service, cfg.JWTSecret, cfg.TokenTTL)
		r.With(middleware.LoginRateLimit(cfg.LoginRateLimit, cfg.RateLimitWindow)).Post("/auth/login", authHandler.HandleLogin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Use(middleware.RateLimit(cfg.LoginRateLimit, cfg.RateLimitWindow))
			r.Post("/auth/mfa/setup", authHandler.HandleMFASetup)
			r.Post("/auth/mfa/enable", authHandler.HandleMFAEnable)
			r.Post("/auth/mfa/disable", authHandler.HandleMFADisable)
		})

		accessHandler := accesshandler.NewHandler(service, gate)
		accessHandler.Throttle = middleware.RateLimit(cfg.LoginRateLimit, cfg.RateLimitWindow)
		accessHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(reports.NewService(service), service, gate)
		reportsHandler.RegisterRoutes(r)

		if deps.AuditLog != nil {
			auditHandler := audithandler.NewHandler(deps.AuditLog, service, gate)
			auditHandler.RegisterRoutes(r)
		}
	})

	return router
}
