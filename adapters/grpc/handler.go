package grpc

import (
	"context"
	"log"

	"github.com/gruzdev-dev/codex-users/core/services"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported for the user store.
const ServiceName = "users"

type HealthHandler struct {
	grpc_health_v1.UnimplementedHealthServer
	userService *services.UserService
}

func NewHealthHandler(userService *services.UserService) *HealthHandler {
	return &HealthHandler{
		userService: userService,
	}
}

func (h *HealthHandler) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if req.GetService() != "" && req.GetService() != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if err := h.userService.Ready(ctx); err != nil {
		log.Printf("[grpc] health check failed: %v", err)
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &grpc_health_v1.HealthCheckResponse{
		Status: grpc_health_v1.HealthCheckResponse_SERVING,
	}, nil
}
