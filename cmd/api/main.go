package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/librarian-backend/api/routes"
	"github.com/angelmondragon/librarian-backend/internal/auth"
	"github.com/angelmondragon/librarian-backend/internal/books"
	"github.com/angelmondragon/librarian-backend/internal/copies"
	"github.com/angelmondragon/librarian-backend/internal/loans"
	"github.com/angelmondragon/librarian-backend/internal/members"
	"github.com/angelmondragon/librarian-backend/internal/payments"
	"github.com/angelmondragon/librarian-backend/internal/racks"
	"github.com/angelmondragon/librarian-backend/internal/users"
	"github.com/angelmondragon/librarian-backend/pkg/auth/session"
	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/db"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
	"github.com/angelmondragon/librarian-backend/pkg/metrics"
	"github.com/angelmondragon/librarian-backend/pkg/migrate"
	"github.com/angelmondragon/librarian-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	circulationMetrics := metrics.NewCirculationMetrics(registry)

	gormDB := dbClient.DB()
	booksRepo := books.NewRepository(gormDB)
	copiesRepo := copies.NewRepository(gormDB)
	membersRepo := members.NewRepository(gormDB)
	loansRepo := loans.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	racksRepo := racks.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	bookService, err := books.NewService(booksRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create book service", err)
		os.Exit(1)
	}
	copyService, err := copies.NewService(copiesRepo, booksRepo, racksRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create copy service", err)
		os.Exit(1)
	}
	memberService, err := members.NewService(membersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create member service", err)
		os.Exit(1)
	}
	loanService, err := loans.NewService(loans.ServiceParams{
		Repo:        loansRepo,
		Tx:          dbClient,
		Copies:      copiesRepo,
		Members:     membersRepo,
		Circulation: cfg.Circulation,
		Metrics:     circulationMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create loan service", err)
		os.Exit(1)
	}
	paymentService, err := payments.NewService(paymentsRepo, membersRepo, loansRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}
	rackService, err := racks.NewService(racksRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create rack service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			Database:        dbClient,
			Cache:           redisClient,
			Sessions:        sessionManager,
			AuthService:     authService,
			RegisterService: registerService,
			Books:           bookService,
			Copies:          copyService,
			Members:         memberService,
			Loans:           loanService,
			Payments:        paymentService,
			Racks:           rackService,
			HTTPMetrics:     httpMetrics,
			Gatherer:        registry,
		}),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(redisClient.Close(), dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing resources", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
