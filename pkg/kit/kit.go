// Package kit binds pipeline operations to transports. An operation is written
// once as an Endpoint; the HTTP router and the MCP tools both dispatch to it,
// and cross-cutting concerns wrap it as Middleware.
package kit

import "context"

// Endpoint is one transport-agnostic pipeline operation.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one runs outermost.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}

// Transport names the surface a call arrived on.
type Transport string

const (
	TransportHTTP Transport = "http"
	TransportMCP  Transport = "mcp"
	TransportQUIC Transport = "mcp_quic"
)

type ctxKey int

const (
	transportKey ctxKey = iota
	requestIDKey
)

func WithTransport(ctx context.Context, t Transport) context.Context {
	return context.WithValue(ctx, transportKey, t)
}

// TransportOf returns the call's transport, or "" for in-process calls.
func TransportOf(ctx context.Context) Transport {
	t, _ := ctx.Value(transportKey).(Transport)
	return t
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDOf(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
