package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"remuneraciones/internal/domain/audit"
	"remuneraciones/internal/domain/auth"
	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
	"remuneraciones/internal/domain/payroll"
	"remuneraciones/internal/platform/config"
	cryptoutil "remuneraciones/internal/platform/crypto"
	"remuneraciones/internal/platform/db"
	"remuneraciones/internal/platform/indicators"
	"remuneraciones/internal/platform/jobs"
	"remuneraciones/internal/platform/metrics"
	"remuneraciones/internal/transport/http/api"
	audithandler "remuneraciones/internal/transport/http/handlers/audit"
	jobshandler "remuneraciones/internal/transport/http/handlers/jobs"
	legalhandler "remuneraciones/internal/transport/http/handlers/legal"
	liquidationhandler "remuneraciones/internal/transport/http/handlers/liquidation"
	"remuneraciones/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
	stop   context.CancelFunc
}

// Jobs is what the router needs from the background job service.
type Jobs interface {
	liquidationhandler.JobQueue
	jobshandler.Getter
}

type routes struct {
	cfg         config.Config
	ready       func(context.Context) error
	table       *legal.Table
	indicators  legalhandler.IndicatorSource
	payroll     liquidationhandler.Service
	jobs        Jobs
	audit       audithandler.Lister
	metrics     *metrics.Collector
	idempotency *middleware.IdempotencyStore
}

// New connects to Postgres, applies migrations and wires every handler. The job
// worker runs until Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := loadTables(cfg.LegalTablesDir)
	if err != nil {
		return nil, err
	}
	sealer, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	auditService := audit.New(pool)
	engine := liquidation.NewEngine(table)
	payrollService := payroll.NewService(engine, payroll.NewStore(pool), sealer, auditService, cfg.BatchWorkers)

	workerCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	jobService := jobs.New(jobs.NewStore(pool), cfg.JobQueueSize)
	jobService.Start(workerCtx)

	var source legalhandler.IndicatorSource
	if cfg.IndicatorsURL != "" {
		source = indicators.New(cfg.IndicatorsURL, cfg.IndicatorsTimeout)
	}
	router := newRouter(routes{
		cfg:         cfg,
		ready:       pool.Ping,
		table:       table,
		indicators:  source,
		payroll:     payrollService,
		jobs:        jobService,
		audit:       auditService,
		metrics:     metrics.New(),
		idempotency: middleware.NewIdempotencyStore(pool),
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobService, stop: stop}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.stop != nil {
		a.stop()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	log.Printf("remuneraciones server listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func loadTables(dir string) (*legal.Table, error) {
	if dir == "" {
		return legal.Default()
	}
	table, err := legal.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("legal tables %s: %w", dir, err)
	}
	return table, nil
}

func newRouter(deps routes) http.Handler {
	perms := auth.StaticPermissions(auth.RolePermissions)

	var observer middleware.StatusRecorder
	if deps.metrics != nil {
		observer = deps.metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default(), observer))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(deps.cfg.IsProduction()))
	router.Use(middleware.BodyLimit(deps.cfg.MaxBodyBytes))
	router.Use(middleware.Auth(deps.cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if deps.ready != nil {
			if err := deps.ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.cfg.MetricsEnabled && deps.metrics != nil {
		router.With(middleware.RequirePermission(auth.PermMetricsRead, perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.BookRateLimit(deps.cfg.RateLimitPerMinute, time.Minute))

		legalhandler.NewHandler(deps.table, deps.indicators, perms).RegisterRoutes(r)

		var queue liquidationhandler.JobQueue
		if deps.jobs != nil {
			queue = deps.jobs
			jobshandler.NewHandler(deps.jobs, perms).RegisterRoutes(r)
		}
		var recorder liquidationhandler.Metrics
		if deps.metrics != nil {
			recorder = deps.metrics
		}
		liquidationhandler.NewHandler(deps.payroll, queue, perms, recorder, deps.idempotency).RegisterRoutes(r)

		if deps.audit != nil {
			audithandler.NewHandler(deps.audit, perms).RegisterRoutes(r)
		}
	})

	return router
}
