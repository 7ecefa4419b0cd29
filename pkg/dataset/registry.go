package dataset

import (
	"fmt"
	"sort"
	"sync"
)

// ID names one of the independently collected source datasets.
type ID string

const (
	Enrolment         ID = "enrolment"
	BiometricUpdate   ID = "biometric_update"
	DemographicUpdate ID = "demographic_update"
)

// Spec describes a dataset: its identifier and the integer metric columns it carries.
type Spec struct {
	ID          ID       `json:"id"`
	Description string   `json:"description"`
	Metrics     []string `json:"metrics"`
}

var (
	registryMu sync.RWMutex
	specs      = make(map[ID]Spec)
)

func init() {
	Register(Spec{
		ID:          Enrolment,
		Description: "New enrolments by age band",
		Metrics:     []string{"age_0_5", "age_5_17", "age_18_greater"},
	})
	Register(Spec{
		ID:          BiometricUpdate,
		Description: "Biometric updates by age band",
		Metrics:     []string{"bio_age_5_17", "bio_age_17_"},
	})
	Register(Spec{
		ID:          DemographicUpdate,
		Description: "Demographic updates by age band",
		Metrics:     []string{"demo_age_5_17", "demo_age_17_"},
	})
}

// Register adds a dataset spec to the global registry.
func Register(s Spec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	specs[s.ID] = s
}

// Get returns a registered spec by ID.
func Get(id ID) (Spec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := specs[id]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownDataset, id)
	}
	return s, nil
}

// All returns all registered specs sorted by ID.
func All() []Spec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Spec, 0, len(specs))
	for _, s := range specs {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Core returns the three datasets every aggregation merges, in merge order.
func Core() []ID {
	return []ID{Enrolment, BiometricUpdate, DemographicUpdate}
}

// MetricColumns returns the metric columns of the core datasets in merge order.
func MetricColumns() []string {
	var cols []string
	for _, id := range Core() {
		s, err := Get(id)
		if err != nil {
			continue
		}
		cols = append(cols, s.Metrics...)
	}
	return cols
}
