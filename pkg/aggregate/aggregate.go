// CLAUDE:SUMMARY Aggregator: national totals and state/district outer-merges over the three cleaned datasets, loaded concurrently.
package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/store"
)

// Row is one merged aggregate keyed by state or district. It marshals flat:
// the key column followed by the metric columns.
type Row struct {
	KeyName string
	Key     string
	Date    string
	Counts  dataset.Counts
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	k, err := json.Marshal(r.Key)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "%q:%s", r.KeyName, k)
	if r.Date != "" {
		d, _ := json.Marshal(r.Date)
		fmt.Fprintf(&buf, `,"date":%s`, d)
	}
	for _, m := range dataset.MetricColumns() {
		if v, ok := r.Counts[m]; ok {
			fmt.Fprintf(&buf, ",%q:%d", m, v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// National holds per-dataset metric totals.
type National struct {
	Enrolment         dataset.Counts `json:"enrolment"`
	BiometricUpdate   dataset.Counts `json:"biometric_update"`
	DemographicUpdate dataset.Counts `json:"demographic_update"`
}

// Of returns the totals of one dataset.
func (n *National) Of(id dataset.ID) dataset.Counts {
	switch id {
	case dataset.Enrolment:
		return n.Enrolment
	case dataset.BiometricUpdate:
		return n.BiometricUpdate
	case dataset.DemographicUpdate:
		return n.DemographicUpdate
	}
	return nil
}

// Snapshot is the typed content of the three cleaned datasets.
type Snapshot map[dataset.ID][]dataset.Record

// Where returns a snapshot holding only the records matching keep.
func (s Snapshot) Where(keep func(dataset.Record) bool) Snapshot {
	out := make(Snapshot, len(s))
	for id, recs := range s {
		var kept []dataset.Record
		for _, r := range recs {
			if keep(r) {
				kept = append(kept, r)
			}
		}
		out[id] = kept
	}
	return out
}

// Aggregator reads the three cleaned artifacts. It is read-only and safe for
// concurrent use.
type Aggregator struct {
	artifacts store.Artifacts
}

// New returns an Aggregator over artifacts.
func New(artifacts store.Artifacts) *Aggregator {
	return &Aggregator{artifacts: artifacts}
}

// Load reads the three cleaned datasets concurrently. Any missing artifact
// fails the whole load with dataset.ErrPrerequisiteMissing.
func (a *Aggregator) Load(ctx context.Context) (Snapshot, error) {
	ids := dataset.Core()
	recs := make([][]dataset.Record, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			spec, err := dataset.Get(id)
			if err != nil {
				return err
			}
			t, err := a.artifacts.Load(ctx, id)
			if err != nil {
				return err
			}
			r, err := dataset.Records(t, spec)
			if err != nil {
				return err
			}
			recs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := make(Snapshot, len(ids))
	for i, id := range ids {
		snap[id] = recs[i]
	}
	return snap, nil
}

// National sums each dataset's metric columns.
func (a *Aggregator) National(ctx context.Context) (*National, error) {
	snap, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NationalOf(snap), nil
}

// NationalOf sums each dataset's metric columns in snap.
func NationalOf(snap Snapshot) *National {
	total := func(id dataset.ID) dataset.Counts {
		spec, _ := dataset.Get(id)
		t := GroupSum(snap[id], spec.Metrics, func(dataset.Record) string { return "" })
		if c, ok := t[""]; ok {
			return c
		}
		c := make(dataset.Counts, len(spec.Metrics))
		for _, m := range spec.Metrics {
			c[m] = 0
		}
		return c
	}
	return &National{
		Enrolment:         total(dataset.Enrolment),
		BiometricUpdate:   total(dataset.BiometricUpdate),
		DemographicUpdate: total(dataset.DemographicUpdate),
	}
}

// ByState group-sums each dataset by state and outer-merges the results.
func (a *Aggregator) ByState(ctx context.Context) ([]Row, error) {
	snap, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ByKey(snap, "state", func(r dataset.Record) string { return r.State }), nil
}

// ByDistrict does the same as ByState for the districts of one state. A
// state with no rows yields an empty list.
func (a *Aggregator) ByDistrict(ctx context.Context, state string) ([]Row, error) {
	snap, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	scoped := snap.Where(func(r dataset.Record) bool { return r.State == state })
	return ByKey(scoped, "district", func(r dataset.Record) string { return r.District }), nil
}

// ByKey group-sums each dataset of snap by key and outer-merges the results
// into rows labelled keyName.
func ByKey(snap Snapshot, keyName string, key func(dataset.Record) string) []Row {
	var parts []Totals[string]
	for _, id := range dataset.Core() {
		spec, _ := dataset.Get(id)
		parts = append(parts, GroupSum(snap[id], spec.Metrics, key))
	}

	merged := OuterMerge(dataset.MetricColumns(), parts...)
	rows := make([]Row, len(merged))
	for i, m := range merged {
		rows[i] = Row{KeyName: keyName, Key: m.Key, Counts: m.Counts}
	}
	return rows
}
