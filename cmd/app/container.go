package main

import (
	"context"
	"fmt"

	grpcAdapter "github.com/gruzdev-dev/codex-users/adapters/grpc"
	httpAdapter "github.com/gruzdev-dev/codex-users/adapters/http"
	"github.com/gruzdev-dev/codex-users/adapters/storage"
	"github.com/gruzdev-dev/codex-users/adapters/storage/jsonfile"
	postgresAdapter "github.com/gruzdev-dev/codex-users/adapters/storage/postgres"
	s3Adapter "github.com/gruzdev-dev/codex-users/adapters/storage/s3"
	"github.com/gruzdev-dev/codex-users/configs"
	"github.com/gruzdev-dev/codex-users/core/ports"
	"github.com/gruzdev-dev/codex-users/core/services"
	grpcServer "github.com/gruzdev-dev/codex-users/servers/grpc"
	httpServer "github.com/gruzdev-dev/codex-users/servers/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"
)

func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(configs.NewConfig); err != nil {
		return nil, err
	}

	if err := container.Provide(newDBPool); err != nil {
		return nil, err
	}

	if err := container.Provide(newUserRepository); err != nil {
		return nil, err
	}

	if err := container.Provide(newUserService); err != nil {
		return nil, err
	}

	if err := container.Provide(httpAdapter.NewHandler); err != nil {
		return nil, err
	}

	if err := container.Provide(grpcAdapter.NewHealthHandler); err != nil {
		return nil, err
	}

	if err := container.Provide(httpServer.NewServer); err != nil {
		return nil, err
	}

	if err := container.Provide(grpcServer.NewServer); err != nil {
		return nil, err
	}

	return container, nil
}

// newDBPool opens the postgres pool for the postgres driver. Other drivers
// get a nil pool.
func newDBPool(cfg *configs.Config) (*pgxpool.Pool, error) {
	if cfg.Storage.Driver != configs.StorageDriverPostgres {
		return nil, nil
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}
	return pool, nil
}

func newUserRepository(cfg *configs.Config, pool *pgxpool.Pool) (ports.UserRepository, error) {
	switch cfg.Storage.Driver {
	case configs.StorageDriverFile:
		return jsonfile.NewFileRepo(cfg.Storage.FilePath), nil
	case configs.StorageDriverMemory:
		return storage.NewInMemoryRepo(), nil
	case configs.StorageDriverPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres storage requires a db pool")
		}
		return postgresAdapter.NewDocumentRepo(pool, cfg.Storage.Document), nil
	case configs.StorageDriverS3:
		client, err := s3Adapter.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return s3Adapter.NewDocumentRepo(client, cfg.S3.Bucket, cfg.S3.Object), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newUserService(repo ports.UserRepository, cfg *configs.Config) *services.UserService {
	return services.NewUserService(repo, services.ReadPolicy(cfg.Storage.ReadPolicy))
}
