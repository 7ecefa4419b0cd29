package kit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RequestID assigns a request id to calls that arrive without one.
func RequestID() Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			if RequestIDOf(ctx) == "" {
				ctx = WithRequestID(ctx, uuid.NewString())
			}
			return next(ctx, request)
		}
	}
}

// Logging logs every call of the named endpoint with its outcome and duration.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			attrs := []any{
				"endpoint", name,
				"transport", TransportOf(ctx),
				"request_id", RequestIDOf(ctx),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.Warn("endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.Info("endpoint served", attrs...)
			}
			return resp, err
		}
	}
}

// Observer receives the outcome of each call.
type Observer func(ctx context.Context, name string, d time.Duration, err error)

// Observe reports every call of the named endpoint to obs.
func Observe(name string, obs Observer) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			obs(ctx, name, time.Since(start), err)
			return resp, err
		}
	}
}
