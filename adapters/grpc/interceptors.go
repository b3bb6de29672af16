package grpc

import (
	"context"
	"log"
	"time"

	"github.com/gruzdev-dev/codex-users/pkg/requestid"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor tags each unary call with a request id, taken from the
// x-request-id metadata when the caller sent one, and logs its outcome.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("x-request-id"); len(values) > 0 {
				id = values[0]
			}
		}
		if id == "" {
			id = requestid.New()
		}

		start := time.Now()
		resp, err := handler(requestid.WithCtx(ctx, id), req)

		log.Printf("[grpc] request=%s %s %s %s", id, info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}
