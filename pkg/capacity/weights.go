package capacity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
)

// Weight is the service-load weight of one metric column.
type Weight struct {
	Metric string
	Value  float64
}

// Weights is an ordered, immutable weight table. The zero value weighs nothing.
type Weights struct {
	entries []Weight
}

// DefaultWeights is the table shared by station estimation and insights.
func DefaultWeights() Weights {
	return Weights{entries: []Weight{
		{"age_0_5", 1.2},
		{"age_5_17", 1.1},
		{"age_18_greater", 1.0},
		{"bio_age_5_17", 0.8},
		{"bio_age_17_", 1.0},
		{"demo_age_5_17", 0.6},
		{"demo_age_17_", 0.7},
	}}
}

// NewWeights builds a table from entries. Weights must be non-negative and
// metrics unique.
func NewWeights(entries ...Weight) (Weights, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]Weight, 0, len(entries))
	for _, e := range entries {
		if e.Value < 0 {
			return Weights{}, fmt.Errorf("weight %s: negative value %v", e.Metric, e.Value)
		}
		if seen[e.Metric] {
			return Weights{}, fmt.Errorf("weight %s: duplicate metric", e.Metric)
		}
		seen[e.Metric] = true
		out = append(out, e)
	}
	return Weights{entries: out}, nil
}

// Entries returns a copy of the table in order.
func (w Weights) Entries() []Weight {
	out := make([]Weight, len(w.entries))
	copy(out, w.entries)
	return out
}

// Of returns the weight of a metric, 0 when absent.
func (w Weights) Of(metric string) float64 {
	for _, e := range w.entries {
		if e.Metric == metric {
			return e.Value
		}
	}
	return 0
}

// ServiceLoad is the weighted sum of c over the table. Missing metrics
// contribute 0.
func (w Weights) ServiceLoad(c dataset.Counts) float64 {
	var load float64
	for _, e := range w.entries {
		load += float64(c.Get(e.Metric)) * e.Value
	}
	return load
}

// MarshalJSON writes the table as an object in table order.
func (w Weights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range w.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Metric)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
