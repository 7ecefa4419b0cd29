// CLAUDE:SUMMARY Canonicalizer: loads a raw dataset, normalizes geography labels, atomically replaces the cleaned artifact and appends a ledger entry.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/geo"
	"github.com/hazyhaar/aadhaar-pulse/pkg/metrics"
	"github.com/hazyhaar/aadhaar-pulse/pkg/store"
)

// Result summarizes one cleaning run.
type Result struct {
	Dataset          string `json:"dataset"`
	RunID            string `json:"run_id"`
	Rows             int    `json:"rows"`
	OutputFile       string `json:"output_file"`
	CorrectionsCount int    `json:"corrections_count"`
}

// Config wires a Canonicalizer. Cutoff 0 means DefaultCutoff; Logger nil
// means slog.Default(); Now nil means time.Now.
type Config struct {
	Gazetteer *geo.Gazetteer
	Source    dataset.Source
	Artifacts store.Artifacts
	Ledger    store.Ledger
	Cutoff    float64
	Logger    *slog.Logger
	Now       func() time.Time
}

// Canonicalizer turns raw datasets into cleaned artifacts. It holds no
// per-run state and is safe for concurrent use.
type Canonicalizer struct {
	gaz       *geo.Gazetteer
	source    dataset.Source
	artifacts store.Artifacts
	ledger    store.Ledger
	cutoff    float64
	logger    *slog.Logger
	now       func() time.Time
}

// New validates cfg and returns a Canonicalizer.
func New(cfg Config) (*Canonicalizer, error) {
	if cfg.Gazetteer == nil {
		cfg.Gazetteer = geo.Default()
	}
	if cfg.Source == nil || cfg.Artifacts == nil || cfg.Ledger == nil {
		return nil, fmt.Errorf("cleaner: source, artifacts and ledger are required")
	}
	if cfg.Cutoff == 0 {
		cfg.Cutoff = DefaultCutoff
	}
	if err := ValidateCutoff(cfg.Cutoff); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Canonicalizer{
		gaz:       cfg.Gazetteer,
		source:    cfg.Source,
		artifacts: cfg.Artifacts,
		ledger:    cfg.Ledger,
		cutoff:    cfg.Cutoff,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}, nil
}

// CleanTable normalizes t without touching storage.
func (c *Canonicalizer) CleanTable(t *dataset.Table) (*dataset.Table, []geo.Correction) {
	states, _ := NewStateNormalizer(c.gaz, c.cutoff)
	rn := &rowNormalizer{states: states, caser: geo.NewTitleCaser()}
	return rn.cleanTable(t)
}

// Clean loads the raw dataset, replaces its cleaned artifact and appends a
// ledger entry. Nothing is written when the source cannot be loaded or holds
// no rows. The artifact is committed before the ledger entry: when the append
// fails the run is logged as unrecorded and still succeeds, since the new
// artifact is already live.
func (c *Canonicalizer) Clean(ctx context.Context, id dataset.ID) (*Result, error) {
	if _, err := dataset.Get(id); err != nil {
		return nil, err
	}
	start := time.Now()
	log := c.logger.With("dataset", id)

	res, err := c.clean(ctx, id, log)
	status := "ok"
	if err != nil {
		status = "error"
		log.Error("cleaning failed", "error", err)
	}
	metrics.CleaningRunsTotal.WithLabelValues(string(id), status).Inc()
	metrics.CleaningDurationMs.WithLabelValues(string(id)).Observe(float64(time.Since(start).Milliseconds()))
	return res, err
}

func (c *Canonicalizer) clean(ctx context.Context, id dataset.ID, log *slog.Logger) (*Result, error) {
	raw, err := c.source.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows in %s", dataset.ErrSourceUnavailable, id)
	}
	log.Info("cleaning started", "raw_rows", raw.Len())

	cleaned, corrections := c.CleanTable(raw)

	path, err := c.artifacts.Save(ctx, id, cleaned)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	entry := store.Entry{
		RunID:             runID,
		Dataset:           string(id),
		Timestamp:         c.now().UTC().Format(time.RFC3339Nano),
		RowsProcessed:     cleaned.Len(),
		CorrectionsCount:  len(corrections),
		CorrectionsSample: store.Sample(corrections),
	}
	if err := c.ledger.Append(ctx, entry); err != nil {
		log.Error("cleaning run not recorded in ledger", "run_id", runID, "output", path, "error", err)
	}

	byType := countByType(corrections)
	for t, n := range byType {
		metrics.CorrectionsTotal.WithLabelValues(string(id), string(t)).Add(float64(n))
	}
	metrics.CleanedRows.WithLabelValues(string(id)).Set(float64(cleaned.Len()))

	log.Info("dataset cleaned",
		"run_id", runID,
		"rows", cleaned.Len(),
		"dropped", raw.Len()-cleaned.Len(),
		"corrections", len(corrections),
		"by_type", formatCounts(byType),
		"output", path)

	return &Result{
		Dataset:          string(id),
		RunID:            runID,
		Rows:             cleaned.Len(),
		OutputFile:       path,
		CorrectionsCount: len(corrections),
	}, nil
}

func countByType(cs []geo.Correction) map[geo.CorrectionType]int {
	out := make(map[geo.CorrectionType]int)
	for _, c := range cs {
		out[c.Type]++
	}
	return out
}

func formatCounts(m map[geo.CorrectionType]int) string {
	var parts []string
	for _, t := range []geo.CorrectionType{geo.InvalidState, geo.StateAlias, geo.StateFuzzy} {
		if n := m[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", t, n))
		}
	}
	return strings.Join(parts, ",")
}
