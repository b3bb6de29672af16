//go:build integration

package tests

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	httpAdapter "github.com/gruzdev-dev/codex-users/adapters/http"
	postgresAdapter "github.com/gruzdev-dev/codex-users/adapters/storage/postgres"
	"github.com/gruzdev-dev/codex-users/configs"
	"github.com/gruzdev-dev/codex-users/core/ports"
	"github.com/gruzdev-dev/codex-users/core/services"
	"github.com/gruzdev-dev/codex-users/migrations"
	httpServer "github.com/gruzdev-dev/codex-users/servers/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/dig"
)

const testDocument = "users-it"

type TestEnv struct {
	Container *dig.Container
	DB        *pgxpool.Pool
	ServerURL string
	Cleanup   func()
}

func SetupTestEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	// create logger
	logger := log.New(io.Discard, "", 0)

	// create db pool and postgres container
	dbPool, pgContainer := newPool(t, ctx, logger)

	// create config
	config := newConfig(t, ctx, pgContainer)

	// create container
	container := newContainer(t, config, dbPool)

	var srv *httpServer.Server
	err := container.Invoke(func(s *httpServer.Server) {
		srv = s
	})
	require.NoError(t, err)

	// http test server
	ts := httptest.NewServer(srv.Routes())

	return &TestEnv{
		Container: container,
		DB:        dbPool,
		ServerURL: ts.URL,
		Cleanup: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ts.Close()
			dbPool.Close()
			_ = pgContainer.Terminate(ctx)
		},
	}
}

func newContainer(t *testing.T, config *configs.Config, pool *pgxpool.Pool) *dig.Container {
	container := dig.New()

	if err := container.Provide(func() *configs.Config { return config }); err != nil {
		t.Fatalf("failed to provide config: %v", err)
	}

	if err := container.Provide(func() *pgxpool.Pool { return pool }); err != nil {
		t.Fatalf("failed to provide db pool: %v", err)
	}

	if err := container.Provide(newUserRepository); err != nil {
		t.Fatalf("failed to provide user repo: %v", err)
	}

	if err := container.Provide(newUserService); err != nil {
		t.Fatalf("failed to provide user service: %v", err)
	}

	if err := container.Provide(httpAdapter.NewHandler); err != nil {
		t.Fatalf("failed to provide http handler: %v", err)
	}

	if err := container.Provide(httpServer.NewServer); err != nil {
		t.Fatalf("failed to provide http server: %v", err)
	}

	return container
}

func newPool(t *testing.T, ctx context.Context, logger *log.Logger) (*pgxpool.Pool, *postgres.PostgresContainer) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("codex_users_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithSQLDriver("pgx"),
		testcontainers.WithLogger(logger),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)

	if err != nil {
		t.Fatalf("failed to run postgres container: %v", err)
	}

	connectionString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")

	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping db: %v", err)
	}

	migrationSQL, err := migrations.FS.ReadFile("001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %s", err)
	}

	_, err = pool.Exec(ctx, string(migrationSQL))
	if err != nil {
		t.Fatalf("failed to apply migration: %s", err)
	}

	return pool, pgContainer
}

func newConfig(t *testing.T, ctx context.Context, pgContainer *postgres.PostgresContainer) *configs.Config {
	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	cfg, err := configs.NewConfig()

	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	cfg.HTTP.Port = "8080"
	cfg.Storage.Driver = configs.StorageDriverPostgres
	cfg.Storage.ReadPolicy = string(services.ReadPolicyStrict)
	cfg.Storage.Document = testDocument
	cfg.DB.Host = host
	cfg.DB.Port = port.Port()
	cfg.DB.User = "testuser"
	cfg.DB.Password = "testpass"
	cfg.DB.Database = "codex_users_test"

	return cfg
}

func newUserRepository(pool *pgxpool.Pool, cfg *configs.Config) ports.UserRepository {
	return postgresAdapter.NewDocumentRepo(pool, cfg.Storage.Document)
}

func newUserService(repo ports.UserRepository, cfg *configs.Config) *services.UserService {
	return services.NewUserService(repo, services.ReadPolicy(cfg.Storage.ReadPolicy))
}
