package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/gradebook-service/internal/api/http"
	"github.com/spec-kit/gradebook-service/internal/api/http/handlers"
	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/config"
	"github.com/spec-kit/gradebook-service/internal/events"
	"github.com/spec-kit/gradebook-service/internal/observability"
	"github.com/spec-kit/gradebook-service/internal/persistence"
	"github.com/spec-kit/gradebook-service/internal/repository"
	"github.com/spec-kit/gradebook-service/internal/service"
	"github.com/spec-kit/gradebook-service/internal/session"
	"github.com/spec-kit/gradebook-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		// Fail-fast: a process without a signing secret must never serve.
		log.Fatal("AUTH_JWT_SECRET is not configured")
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var users repository.UserRepository
	if pool := pg.PoolHandle(); pool != nil {
		users = repository.NewUserRepository(pool)
	} else {
		logger.Warn("using in-memory user store")
		users = repository.NewMemoryUserRepository()
	}

	tokenMgr := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	sessionCache := session.NewRedisCache(redis.Client, logger)
	gate := auth.NewMiddleware(tokenMgr, sessionCache, cfg.Auth.SessionCookieName, logger)

	metrics := observability.NewMetrics()
	registry := ws.NewRegistry()
	bus := events.NewBus()

	authService := service.NewAuthService(users, tokenMgr)
	notificationService := service.NewNotificationService(registry, bus, logger, metrics)
	socketHandler := ws.NewHandler(tokenMgr, registry, bus, logger, metrics, cfg.Socket)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:    handlers.NewAuthHandler(authService),
		Grades:  handlers.NewGradesHandler(notificationService),
		Gate:    gate,
		Sockets: socketHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
