package api

import (
	"fmt"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/detect"
	"github.com/hazyhaar/aadhaar-pulse/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const datasetHelp = "Dataset: enrolment | biometric_update | demographic_update"

// RegisterMCPTools registers one MCP tool per pipeline operation.
func RegisterMCPTools(srv *server.MCPServer, eps Endpoints) {
	kit.RegisterMCPTool(srv, mcp.NewTool("clean_dataset",
		mcp.WithDescription("Canonicalize a raw dataset: fix state names, title-case districts, pad pincodes, and record corrections in the cleaning ledger."),
		mcp.WithString("dataset", mcp.Required(), mcp.Description(datasetHelp)),
	), eps.Clean, decodeDataset)

	kit.RegisterMCPTool(srv, mcp.NewTool("cleaning_logs",
		mcp.WithDescription("List every cleaning run recorded in the ledger, oldest first."),
	), eps.Logs, decodeNone)

	kit.RegisterMCPTool(srv, mcp.NewTool("district_anomalies",
		mcp.WithDescription("Report near-duplicate district names within one state of a cleaned dataset. Does not modify data."),
		mcp.WithString("state", mcp.Required(), mcp.Description("Exact canonical state name")),
		mcp.WithString("dataset", mcp.Description(datasetHelp+" (default enrolment)")),
		mcp.WithNumber("similarity_cutoff", mcp.Description("String similarity threshold in [0.8, 1.0] (default 0.9)")),
		mcp.WithNumber("min_count_ratio", mcp.Description("Row-count imbalance at which a pair is flagged for review, >= 1 (default 5)")),
	), eps.Detect, decodeDetect)

	kit.RegisterMCPTool(srv, mcp.NewTool("aggregate_national",
		mcp.WithDescription("National metric totals for each cleaned dataset."),
	), eps.National, decodeNone)

	kit.RegisterMCPTool(srv, mcp.NewTool("aggregate_state",
		mcp.WithDescription("Per-state metric totals merged across the three cleaned datasets."),
	), eps.States, decodeNone)

	kit.RegisterMCPTool(srv, mcp.NewTool("aggregate_district",
		mcp.WithDescription("Per-district metric totals of one state merged across the three cleaned datasets."),
		mcp.WithString("state", mcp.Required(), mcp.Description("Exact canonical state name")),
	), eps.Districts, decodeState)

	kit.RegisterMCPTool(srv, mcp.NewTool("estimate_stations",
		mcp.WithDescription("Annualized weighted service load and minimum service stations per district of one state."),
		mcp.WithString("state", mcp.Required(), mcp.Description("Exact canonical state name")),
	), eps.Stations, decodeState)

	kit.RegisterMCPTool(srv, mcp.NewTool("national_insights",
		mcp.WithDescription("Deterministic national findings: service composition, concentration, spread, capacity signal, trend and risk flags."),
	), eps.Insights, decodeNone)

	kit.RegisterMCPTool(srv, mcp.NewTool("dataset_columns",
		mcp.WithDescription("Column names and row count of a raw dataset."),
		mcp.WithString("dataset", mcp.Required(), mcp.Description(datasetHelp)),
	), eps.Columns, decodeDataset)

	kit.RegisterMCPTool(srv, mcp.NewTool("dataset_sample",
		mcp.WithDescription("First rows of a raw dataset, for inspection."),
		mcp.WithString("dataset", mcp.Required(), mcp.Description(datasetHelp)),
		mcp.WithNumber("limit", mcp.Description("Number of rows (default 5)")),
	), eps.Sample, decodeSample)
}

func decodeNone(map[string]any) (any, error) { return nil, nil }

func decodeDataset(args map[string]any) (any, error) {
	id := kit.StringArg(args, "dataset")
	if id == "" {
		return nil, fmt.Errorf("dataset is required")
	}
	return &datasetReq{Dataset: dataset.ID(id)}, nil
}

func decodeState(args map[string]any) (any, error) {
	return &stateReq{State: kit.StringArg(args, "state")}, nil
}

func decodeDetect(args map[string]any) (any, error) {
	req := &detectReq{
		State:   kit.StringArg(args, "state"),
		Dataset: dataset.Enrolment,
		Opts:    detect.DefaultOptions(),
	}
	if id := kit.StringArg(args, "dataset"); id != "" {
		req.Dataset = dataset.ID(id)
	}
	if v, ok := kit.NumberArg(args, "similarity_cutoff"); ok {
		req.Opts.SimilarityCutoff = v
	}
	if v, ok := kit.NumberArg(args, "min_count_ratio"); ok {
		req.Opts.MinCountRatio = v
	}
	return req, nil
}

func decodeSample(args map[string]any) (any, error) {
	id := kit.StringArg(args, "dataset")
	if id == "" {
		return nil, fmt.Errorf("dataset is required")
	}
	req := &sampleReq{Dataset: dataset.ID(id)}
	if v, ok := kit.NumberArg(args, "limit"); ok {
		req.Limit = int(v)
	}
	return req, nil
}
