package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/gruzdev-dev/codex-users/configs"
	grpcServer "github.com/gruzdev-dev/codex-users/servers/grpc"
	httpServer "github.com/gruzdev-dev/codex-users/servers/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	container, err := BuildContainer()
	if err != nil {
		log.Fatalf("Fatal error building container: %v", err)
	}

	err = container.Invoke(func(
		cfg *configs.Config,
		pool *pgxpool.Pool,
		httpSrv *httpServer.Server,
		grpcSrv *grpcServer.Server,
	) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return httpSrv.Start(ctx)
		})

		if cfg.GRPC.Port != "" {
			g.Go(func() error {
				return grpcSrv.Start(ctx)
			})
		}

		err := g.Wait()
		if pool != nil {
			log.Println("closing db pool...")
			pool.Close()
		}
		return err
	})

	if err != nil {
		log.Fatalf("Application stopped with error: %v", err)
	}
}
