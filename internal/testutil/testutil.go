package testutil

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cantetik/hepsiemlak-todo-case/internal/api"
	"github.com/cantetik/hepsiemlak-todo-case/internal/auth"
	"github.com/cantetik/hepsiemlak-todo-case/internal/config"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository"
	"github.com/cantetik/hepsiemlak-todo-case/internal/repository/memory"
	repoPostgres "github.com/cantetik/hepsiemlak-todo-case/internal/repository/postgres"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/cantetik/hepsiemlak-todo-case/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestSigningKey is the raw HS256 key behind TestConfig's JWT_SECRET.
var TestSigningKey = []byte("test-jwt-signing-key-for-tests-only!")

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a migrated PostgreSQL container. It is skipped in -short mode.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("test_todo"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := repoPostgres.NewConnection(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := repoPostgres.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{"sessions", "todos", "users"}
	if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", "))).Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// NewTestRedis starts an in-process Redis and returns a client for it
func NewTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
	})
	return rdb, mr
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                 "0", // Random port
		Environment:          "test",
		StoreDriver:          "memory",
		SessionDriver:        "memory",
		JWTSecret:            base64.StdEncoding.EncodeToString(TestSigningKey),
		SigningKey:           TestSigningKey,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		PasswordHasher:       "bcrypt",
		BcryptCost:           bcrypt.MinCost,
		SessionSweepInterval: 0,
		LogLevel:             "error",
		LogFormat:            "text",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Codec    *auth.TokenCodec
	Config   *config.Config
}

// NewTestServer serves the full API over in-memory stores
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithRepos(t, memory.NewRepositories())
}

// NewTestServerWithRepos serves the full API over the given stores
func NewTestServerWithRepos(t *testing.T, repos *repository.Repositories) *TestServer {
	t.Helper()

	cfg := TestConfig()
	log := logging.Discard()

	codec, err := auth.NewTokenCodec(cfg.SigningKey, cfg.AccessTokenTTL, time.Now)
	if err != nil {
		t.Fatalf("failed to build token codec: %v", err)
	}

	hub := websocket.NewHub(log)
	go hub.Run()

	services := service.NewServices(service.Deps{
		Repos:      repos,
		Codec:      codec,
		Hasher:     auth.NewBcrypt(cfg.BcryptCost),
		Events:     hub,
		RefreshTTL: cfg.RefreshTokenTTL,
		Log:        log,
	})
	router := api.NewRouter(services, hub, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Codec:    codec,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
