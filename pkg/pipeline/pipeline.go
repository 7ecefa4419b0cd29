// CLAUDE:SUMMARY Service facade wiring source, artifacts, ledger, cleaner, detector, aggregator, estimator and insight engine; the single entry point for CLI, HTTP and MCP.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/aadhaar-pulse/pkg/aggregate"
	"github.com/hazyhaar/aadhaar-pulse/pkg/capacity"
	"github.com/hazyhaar/aadhaar-pulse/pkg/cleaner"
	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/detect"
	"github.com/hazyhaar/aadhaar-pulse/pkg/geo"
	"github.com/hazyhaar/aadhaar-pulse/pkg/insight"
	"github.com/hazyhaar/aadhaar-pulse/pkg/store"
)

// DefaultSampleLimit is the row count returned by Sample when none is given.
const DefaultSampleLimit = 5

const maxSampleLimit = 1000

// Config locates the data and selects the ledger backend.
type Config struct {
	RawDir         string
	CleanedDir     string
	SourceEncoding string
	GazetteerPath  string
	StateCutoff    float64
	LedgerDriver   string
	LedgerDSN      string
	Logger         *slog.Logger
}

// Service composes every pipeline component.
type Service struct {
	source    dataset.Source
	ledger    store.Ledger
	gaz       *geo.Gazetteer
	cleaner   *cleaner.Canonicalizer
	detector  *detect.Detector
	agg       *aggregate.Aggregator
	estimator *capacity.Estimator
	engine    *insight.Engine
	weights   capacity.Weights
	logger    *slog.Logger
}

// Open builds a Service from cfg.
func Open(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	gaz, err := geo.Load(cfg.GazetteerPath)
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: %w", err)
	}
	artifacts, err := store.NewFileArtifacts(cfg.CleanedDir)
	if err != nil {
		return nil, err
	}
	ledger, err := store.OpenLedger(cfg.LedgerDriver, cfg.LedgerDSN, cfg.CleanedDir, cfg.Logger)
	if err != nil {
		return nil, err
	}
	s, err := New(gaz, dataset.NewFolderSource(cfg.RawDir, cfg.SourceEncoding), artifacts, ledger, cfg.StateCutoff, cfg.Logger)
	if err != nil {
		ledger.Close()
		return nil, err
	}
	return s, nil
}

// New wires a Service from already-built parts.
func New(gaz *geo.Gazetteer, src dataset.Source, artifacts store.Artifacts, ledger store.Ledger, cutoff float64, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := cleaner.New(cleaner.Config{
		Gazetteer: gaz,
		Source:    src,
		Artifacts: artifacts,
		Ledger:    ledger,
		Cutoff:    cutoff,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	weights := capacity.DefaultWeights()
	agg := aggregate.New(artifacts)
	return &Service{
		source:    src,
		ledger:    ledger,
		gaz:       gaz,
		cleaner:   c,
		detector:  detect.New(artifacts, logger),
		agg:       agg,
		estimator: capacity.NewEstimator(agg, weights),
		engine:    insight.NewEngine(weights),
		weights:   weights,
		logger:    logger,
	}, nil
}

// Close releases the ledger.
func (s *Service) Close() error {
	return s.ledger.Close()
}

// Gazetteer returns the geography in use.
func (s *Service) Gazetteer() *geo.Gazetteer { return s.gaz }

// Weights returns the shared service-load weights.
func (s *Service) Weights() capacity.Weights { return s.weights }

// Clean runs the canonicalizer on one dataset.
func (s *Service) Clean(ctx context.Context, id dataset.ID) (*cleaner.Result, error) {
	return s.cleaner.Clean(ctx, id)
}

// Logs returns the cleaning ledger, oldest first.
func (s *Service) Logs(ctx context.Context) ([]store.Entry, error) {
	return s.ledger.Entries(ctx)
}

// Detect reports near-duplicate districts.
func (s *Service) Detect(ctx context.Context, state string, id dataset.ID, opts detect.Options) (*detect.Report, error) {
	return s.detector.Detect(ctx, state, id, opts)
}

// National returns per-dataset totals.
func (s *Service) National(ctx context.Context) (*aggregate.National, error) {
	return s.agg.National(ctx)
}

// States returns the state-level merge.
func (s *Service) States(ctx context.Context) ([]aggregate.Row, error) {
	return s.agg.ByState(ctx)
}

// Districts returns the district-level merge of one state.
func (s *Service) Districts(ctx context.Context, state string) ([]aggregate.Row, error) {
	return s.agg.ByDistrict(ctx, state)
}

// Stations estimates stations per district of state.
func (s *Service) Stations(ctx context.Context, state string) (*capacity.Report, error) {
	return s.estimator.DistrictStations(ctx, state)
}

// Insights derives national insights from one consistent snapshot.
func (s *Service) Insights(ctx context.Context) (*insight.Insight, error) {
	snap, err := s.agg.Load(ctx)
	if err != nil {
		return nil, err
	}
	national := aggregate.NationalOf(snap)
	states := aggregate.ByKey(snap, "state", func(r dataset.Record) string { return r.State })
	return s.engine.Generate(national, states), nil
}

// Columns describes a raw dataset.
type Columns struct {
	Dataset   string   `json:"dataset"`
	TotalRows int      `json:"total_rows"`
	Columns   []string `json:"columns"`
}

// Sample holds the first rows of a raw dataset.
type Sample struct {
	Dataset    string              `json:"dataset"`
	SampleSize int                 `json:"sample_size"`
	Data       []map[string]string `json:"data"`
}

// Columns lists the raw columns and row count of a dataset.
func (s *Service) Columns(ctx context.Context, id dataset.ID) (*Columns, error) {
	t, err := s.loadRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(t.Header))
	copy(cols, t.Header)
	return &Columns{Dataset: string(id), TotalRows: t.Len(), Columns: cols}, nil
}

// Sample returns the first limit raw rows. limit <= 0 means DefaultSampleLimit.
func (s *Service) Sample(ctx context.Context, id dataset.ID, limit int) (*Sample, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	limit = min(limit, maxSampleLimit)
	t, err := s.loadRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	n := min(limit, t.Len())
	data := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		row := make(map[string]string, len(t.Header))
		for j, h := range t.Header {
			row[h] = t.Value(i, j)
		}
		data[i] = row
	}
	return &Sample{Dataset: string(id), SampleSize: limit, Data: data}, nil
}

func (s *Service) loadRaw(ctx context.Context, id dataset.ID) (*dataset.Table, error) {
	if _, err := dataset.Get(id); err != nil {
		return nil, err
	}
	return s.source.Load(ctx, id)
}
