// CLAUDE:SUMMARY Station estimator: annualizes each district's weighted service load over the shortest observed window and converts it into a facility count.
package capacity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/hazyhaar/aadhaar-pulse/pkg/aggregate"
	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
)

// AnnualServiceCapacity is the weighted service units one station handles per year.
const AnnualServiceCapacity = 25000

// CapacityAssumption describes AnnualServiceCapacity for reports.
const CapacityAssumption = "1 station ≈ 25,000 weighted service units / year"

// ErrNegativeLoad is returned when a service load is below zero, which only
// corrupt counts can produce.
var ErrNegativeLoad = errors.New("negative service load")

// StationsNeeded returns ceil(load / AnnualServiceCapacity). Zero load needs
// zero stations.
func StationsNeeded(load float64) (int, error) {
	if load < 0 || math.IsNaN(load) {
		return 0, fmt.Errorf("%w: %v", ErrNegativeLoad, load)
	}
	if load == 0 {
		return 0, nil
	}
	return int(math.Ceil(load / AnnualServiceCapacity)), nil
}

// AnnualFactor scales a load observed over days to a full year. An unknown
// window (days <= 0) is not scaled.
func AnnualFactor(days int) float64 {
	if days <= 0 {
		return 1
	}
	return 365 / float64(days)
}

// CommonSpanDays returns the smallest positive day span among the datasets
// of snap, or 0 when none has one.
func CommonSpanDays(snap aggregate.Snapshot) int {
	days := 0
	for _, id := range dataset.Core() {
		d := dataset.SpanDays(snap[id])
		if d > 0 && (days == 0 || d < days) {
			days = d
		}
	}
	return days
}

// DistrictEstimate is the station estimate for one district.
type DistrictEstimate struct {
	District              string
	Counts                dataset.Counts
	TimeWindowDays        int
	AnnualisationFactor   float64
	ServiceLoadObserved   float64
	ServiceLoadAnnualised float64
	StationsNeeded        int
}

// MarshalJSON flattens the metric counts next to the estimate fields.
func (d DistrictEstimate) MarshalJSON() ([]byte, error) {
	row, err := json.Marshal(aggregate.Row{KeyName: "district", Key: d.District, Counts: d.Counts})
	if err != nil {
		return nil, err
	}
	tail, err := json.Marshal(struct {
		TimeWindowDays        int     `json:"time_window_days"`
		AnnualisationFactor   float64 `json:"annualisation_factor"`
		ServiceLoadObserved   float64 `json:"service_load_observed"`
		ServiceLoadAnnualised float64 `json:"service_load_annualised"`
		StationsNeeded        int     `json:"estimated_stations_needed"`
	}{d.TimeWindowDays, d.AnnualisationFactor, d.ServiceLoadObserved, d.ServiceLoadAnnualised, d.StationsNeeded})
	if err != nil {
		return nil, err
	}
	// join {"district":..,metrics} and {estimate fields}
	out := bytes.TrimSuffix(row, []byte("}"))
	out = append(out, ',')
	return append(out, tail[1:]...), nil
}

// Assumption documents the constants behind an estimate.
type Assumption struct {
	Capacity string  `json:"capacity"`
	Weights  Weights `json:"weights"`
}

// Report is the district station estimate for one state.
type Report struct {
	Assumption Assumption         `json:"assumption"`
	State      string             `json:"state"`
	Data       []DistrictEstimate `json:"data"`
}

// Estimator produces station estimates from the cleaned datasets.
type Estimator struct {
	agg     *aggregate.Aggregator
	weights Weights
}

// NewEstimator returns an Estimator using weights.
func NewEstimator(agg *aggregate.Aggregator, weights Weights) *Estimator {
	return &Estimator{agg: agg, weights: weights}
}

// DistrictStations estimates stations for every district of state.
func (e *Estimator) DistrictStations(ctx context.Context, state string) (*Report, error) {
	snap, err := e.agg.Load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := EstimateDistricts(snap, state, e.weights)
	if err != nil {
		return nil, err
	}
	return &Report{
		Assumption: Assumption{Capacity: CapacityAssumption, Weights: e.weights},
		State:      state,
		Data:       data,
	}, nil
}

// EstimateDistricts estimates each district of state in snap, ordered by
// district. Each district is annualized over its own common window.
func EstimateDistricts(snap aggregate.Snapshot, state string, w Weights) ([]DistrictEstimate, error) {
	scoped := snap.Where(func(r dataset.Record) bool { return r.State == state })

	out := []DistrictEstimate{}
	for _, row := range aggregate.ByKey(scoped, "district", func(r dataset.Record) string { return r.District }) {
		district := scoped.Where(func(r dataset.Record) bool { return r.District == row.Key })
		est, err := Estimate(row.Key, row.Counts, CommonSpanDays(district), w)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	return out, nil
}

// Estimate annualizes counts observed over days and sizes stations for it.
func Estimate(district string, counts dataset.Counts, days int, w Weights) (DistrictEstimate, error) {
	factor := AnnualFactor(days)
	observed := w.ServiceLoad(counts)
	annualised := observed * factor

	stations, err := StationsNeeded(annualised)
	if err != nil {
		return DistrictEstimate{}, fmt.Errorf("district %s: %w", district, err)
	}
	return DistrictEstimate{
		District:              district,
		Counts:                counts,
		TimeWindowDays:        days,
		AnnualisationFactor:   round2(factor),
		ServiceLoadObserved:   round2(observed),
		ServiceLoadAnnualised: round2(annualised),
		StationsNeeded:        stations,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
