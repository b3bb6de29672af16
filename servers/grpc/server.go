package grpc

import (
	"context"
	"fmt"
	"log"
	"net"

	grpcAdapter "github.com/gruzdev-dev/codex-users/adapters/grpc"
	"github.com/gruzdev-dev/codex-users/configs"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type Server struct {
	cfg        *configs.Config
	grpcServer *grpc.Server
}

func NewServer(cfg *configs.Config, handler *grpcAdapter.HealthHandler) *Server {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpcAdapter.LoggingInterceptor()),
	}

	s := grpc.NewServer(opts...)
	grpc_health_v1.RegisterHealthServer(s, handler)

	return &Server{
		cfg:        cfg,
		grpcServer: s,
	}
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", s.cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, lis)
}

// Serve runs the server on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	log.Printf("gRPC server is running on %s", lis.Addr())
	errCh := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		return fmt.Errorf("gRPC server error: %w", err)
	}
}

func (s *Server) Stop() {
	log.Println("Stopping gRPC server...")
	s.grpcServer.GracefulStop()
}
