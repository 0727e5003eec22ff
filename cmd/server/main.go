package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api"
	"github.com/cantetik/hepsiemlak-todo-case/internal/auth"
	"github.com/cantetik/hepsiemlak-todo-case/internal/config"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository/memory"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository/postgres"
	repoRedis "github.com/cantetik/hepsiemlak-todo-case/internal/repository/redis"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/cantetik/hepsiemlak-todo-case/internal/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	repos, closeStores, err := openStores(ctx, cfg, logr)
	if err != nil {
		logr.Error(ctx, "failed to open stores", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	// Initialize credentials
	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		logr.Error(ctx, "failed to build password hasher", "error", err)
		os.Exit(1)
	}
	codec, err := auth.NewTokenCodec(cfg.SigningKey, cfg.AccessTokenTTL, time.Now)
	if err != nil {
		logr.Error(ctx, "failed to build token codec", "error", err)
		os.Exit(1)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(logr.With("component", "hub"))
	go hub.Run()
	defer hub.Stop()

	// Initialize services
	services := service.NewServices(service.Deps{
		Repos:      repos,
		Codec:      codec,
		Hasher:     hasher,
		Events:     hub,
		RefreshTTL: cfg.RefreshTokenTTL,
		Now:        time.Now,
		Log:        logr,
	})

	sweeper := service.NewSweeper(services.Sessions, cfg.SessionSweepInterval, logr.With("component", "sweeper"))
	go sweeper.Run(ctx)

	// Initialize router
	router := api.NewRouter(services, hub, logr)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logr.Info(ctx, "server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"store", cfg.StoreDriver,
			"sessions", cfg.SessionDriver,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error(ctx, "server failed", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	logr.Info(context.Background(), "shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error(shutdownCtx, "server forced to shutdown", "error", err)
	}

	logr.Info(shutdownCtx, "server stopped")
}

// openStores builds the configured user, todo and session stores. The
// returned func releases whatever connections were opened.
func openStores(ctx context.Context, cfg *config.Config, logr logging.Logger) (*repository.Repositories, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var repos *repository.Repositories
	switch cfg.StoreDriver {
	case "postgres":
		db, err := postgres.NewConnection(cfg.DatabaseURL, gormLogLevel(cfg.LogLevel))
		if err != nil {
			return nil, closeAll, fmt.Errorf("connect to database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { sqlDB.Close() })
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		repos = postgres.NewRepositories(db)
	default:
		logr.Warn(ctx, "using in-memory stores; data is lost on restart")
		repos = memory.NewRepositories()
	}

	switch cfg.SessionDriver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			closeAll()
			return nil, func() {}, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
		repos.Session = repoRedis.NewSessionRepository(rdb, "todo")
	case "memory":
		if cfg.StoreDriver != "memory" {
			repos.Session = memory.NewSessionRepository()
		}
	}

	return repos, closeAll, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
