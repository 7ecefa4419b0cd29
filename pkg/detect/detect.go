// CLAUDE:SUMMARY Near-duplicate district detector: scopes a cleaned dataset to one state and scores label pairs by similarity and row-count imbalance.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/metrics"
	"github.com/hazyhaar/aadhaar-pulse/pkg/store"
	"github.com/hazyhaar/aadhaar-pulse/pkg/textsim"
)

// ErrInvalidParameter is returned for options outside their bounds.
var ErrInvalidParameter = errors.New("invalid parameter")

const (
	DefaultSimilarityCutoff = 0.9
	DefaultMinCountRatio    = 5.0
	// MaxMatches caps the partners kept for each district.
	MaxMatches = 5
)

// Recommendations.
const (
	Review = "review"
	Check  = "check"
)

// Options tunes a detection run.
type Options struct {
	SimilarityCutoff float64
	MinCountRatio    float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{SimilarityCutoff: DefaultSimilarityCutoff, MinCountRatio: DefaultMinCountRatio}
}

// Validate checks cutoff in [0.8, 1.0] and ratio >= 1.
func (o Options) Validate() error {
	if o.SimilarityCutoff < 0.8 || o.SimilarityCutoff > 1.0 || math.IsNaN(o.SimilarityCutoff) {
		return fmt.Errorf("%w: similarity_cutoff %v not in [0.8, 1.0]", ErrInvalidParameter, o.SimilarityCutoff)
	}
	if o.MinCountRatio < 1.0 || math.IsNaN(o.MinCountRatio) {
		return fmt.Errorf("%w: min_count_ratio %v below 1.0", ErrInvalidParameter, o.MinCountRatio)
	}
	return nil
}

// Pair is a candidate duplicate. A is always the lexically smaller label.
type Pair struct {
	DistrictA      string  `json:"district_a"`
	DistrictB      string  `json:"district_b"`
	Similarity     float64 `json:"similarity"`
	RowsA          int     `json:"rows_a"`
	RowsB          int     `json:"rows_b"`
	CountRatio     float64 `json:"count_ratio"`
	Recommendation string  `json:"recommendation"`
}

// Report is the detection result for one state and dataset.
type Report struct {
	State               string  `json:"state"`
	Dataset             string  `json:"dataset"`
	SimilarityCutoff    float64 `json:"similarity_cutoff"`
	MinCountRatio       float64 `json:"min_count_ratio"`
	PotentialDuplicates []Pair  `json:"potential_duplicates"`
}

// Detector reads cleaned artifacts; it never modifies them.
type Detector struct {
	artifacts store.Artifacts
	logger    *slog.Logger
}

// New returns a Detector over the given artifacts.
func New(artifacts store.Artifacts, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{artifacts: artifacts, logger: logger}
}

// Detect reports near-duplicate districts of state in the cleaned dataset.
// A state with no rows yields an empty report.
func (d *Detector) Detect(ctx context.Context, state string, id dataset.ID, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, err := dataset.Get(id); err != nil {
		return nil, err
	}
	report := &Report{
		State:               state,
		Dataset:             string(id),
		SimilarityCutoff:    opts.SimilarityCutoff,
		MinCountRatio:       opts.MinCountRatio,
		PotentialDuplicates: []Pair{},
	}

	t, err := d.artifacts.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	stateCol, districtCol := t.Col("state"), t.Col("district")
	if stateCol < 0 || districtCol < 0 {
		return report, nil
	}

	counts := make(map[string]int)
	for i := range t.Records {
		if t.Value(i, stateCol) == state {
			counts[t.Value(i, districtCol)]++
		}
	}
	if len(counts) == 0 {
		return report, nil
	}

	report.PotentialDuplicates = Pairs(counts, opts)
	for _, p := range report.PotentialDuplicates {
		metrics.DuplicatePairsTotal.WithLabelValues(p.Recommendation).Inc()
	}
	d.logger.Debug("districts scanned", "state", state, "dataset", id,
		"districts", len(counts), "pairs", len(report.PotentialDuplicates))
	return report, nil
}

// Pairs scores district labels against each other. Each label is compared
// only with the labels after it in sorted order, keeping its MaxMatches best
// partners at or above the cutoff.
func Pairs(counts map[string]int, opts Options) []Pair {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	pairs := []Pair{}
	for i, a := range names {
		for _, m := range textsim.CloseMatches(a, names[i+1:], MaxMatches, opts.SimilarityCutoff) {
			b := m.Text
			ca, cb := counts[a], counts[b]
			ratio := float64(max(ca, cb)) / float64(max(1, min(ca, cb)))

			rec := Check
			if ratio >= opts.MinCountRatio {
				rec = Review
			}
			pairs = append(pairs, Pair{
				DistrictA:      a,
				DistrictB:      b,
				Similarity:     round(textsim.Ratio(a, b), 3),
				RowsA:          ca,
				RowsB:          cb,
				CountRatio:     round(ratio, 2),
				Recommendation: rec,
			})
		}
	}
	return pairs
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
