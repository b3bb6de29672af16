package requestid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

// Header carries the request id in both directions.
const Header = "X-Request-ID"

func New() string {
	return uuid.NewString()
}

func WithCtx(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func FromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// Tag formats the request id for log lines, "-" when there is none.
func Tag(ctx context.Context) string {
	if id, ok := FromCtx(ctx); ok {
		return id
	}
	return "-"
}
