package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/detect"
	"github.com/hazyhaar/aadhaar-pulse/pkg/kit"
	"github.com/hazyhaar/aadhaar-pulse/pkg/metrics"
	"github.com/hazyhaar/aadhaar-pulse/pkg/pipeline"
)

// errBadRequest marks malformed or missing request parameters.
var errBadRequest = errors.New("bad request")

// Shared request types used by both HTTP and MCP transports.

type datasetReq struct {
	Dataset dataset.ID
}

type stateReq struct {
	State string
}

type detectReq struct {
	State   string
	Dataset dataset.ID
	Opts    detect.Options
}

type sampleReq struct {
	Dataset dataset.ID
	Limit   int
}

// Endpoints holds one kit.Endpoint per pipeline operation.
type Endpoints struct {
	Clean     kit.Endpoint
	Logs      kit.Endpoint
	Detect    kit.Endpoint
	National  kit.Endpoint
	States    kit.Endpoint
	Districts kit.Endpoint
	Stations  kit.Endpoint
	Insights  kit.Endpoint
	Columns   kit.Endpoint
	Sample    kit.Endpoint
}

// MakeEndpoints builds the endpoints over svc, each wrapped with request id,
// logging and metrics middleware.
func MakeEndpoints(svc *pipeline.Service, logger *slog.Logger) Endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, name), kit.Observe(name, observe))(ep)
	}
	return Endpoints{
		Clean:     wrap("clean", cleanEndpoint(svc)),
		Logs:      wrap("logs", logsEndpoint(svc)),
		Detect:    wrap("detect", detectEndpoint(svc)),
		National:  wrap("aggregate_national", nationalEndpoint(svc)),
		States:    wrap("aggregate_state", statesEndpoint(svc)),
		Districts: wrap("aggregate_district", districtsEndpoint(svc)),
		Stations:  wrap("estimate_stations", stationsEndpoint(svc)),
		Insights:  wrap("insights", insightsEndpoint(svc)),
		Columns:   wrap("columns", columnsEndpoint(svc)),
		Sample:    wrap("sample", sampleEndpoint(svc)),
	}
}

func observe(ctx context.Context, name string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	transport := string(kit.TransportOf(ctx))
	if transport == "" {
		transport = "internal"
	}
	metrics.EndpointRequestsTotal.WithLabelValues(name, transport, status).Inc()
	metrics.EndpointDurationMs.WithLabelValues(name).Observe(float64(d.Milliseconds()))
}

func requireState(state string) error {
	if state == "" {
		return fmt.Errorf("%w: state is required", errBadRequest)
	}
	return nil
}

func cleanEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*datasetReq)
		return svc.Clean(ctx, req.Dataset)
	}
}

func logsEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return svc.Logs(ctx)
	}
}

func detectEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*detectReq)
		if err := requireState(req.State); err != nil {
			return nil, err
		}
		return svc.Detect(ctx, req.State, req.Dataset, req.Opts)
	}
}

func nationalEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return svc.National(ctx)
	}
}

func statesEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return svc.States(ctx)
	}
}

func districtsEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*stateReq)
		if err := requireState(req.State); err != nil {
			return nil, err
		}
		return svc.Districts(ctx, req.State)
	}
}

func stationsEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*stateReq)
		if err := requireState(req.State); err != nil {
			return nil, err
		}
		return svc.Stations(ctx, req.State)
	}
}

func insightsEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return svc.Insights(ctx)
	}
}

func columnsEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*datasetReq)
		return svc.Columns(ctx, req.Dataset)
	}
}

func sampleEndpoint(svc *pipeline.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*sampleReq)
		if req.Limit < 0 {
			return nil, fmt.Errorf("%w: limit must be positive", errBadRequest)
		}
		return svc.Sample(ctx, req.Dataset, req.Limit)
	}
}
