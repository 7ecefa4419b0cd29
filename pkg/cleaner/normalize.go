package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/geo"
	"github.com/hazyhaar/aadhaar-pulse/pkg/textsim"
)

// Similarity cutoff bounds for fuzzy state correction.
const (
	DefaultCutoff = 0.9
	MinCutoff     = 0.8
	MaxCutoff     = 1.0
)

// ErrInvalidCutoff is returned for a state cutoff outside [MinCutoff, MaxCutoff].
var ErrInvalidCutoff = errors.New("state cutoff out of range")

// ValidateCutoff checks a state similarity cutoff.
func ValidateCutoff(c float64) error {
	if c < MinCutoff || c > MaxCutoff {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrInvalidCutoff, c, MinCutoff, MaxCutoff)
	}
	return nil
}

// StateNormalizer maps raw state labels to canonical names. Each call returns
// the normalized value, the corrections it caused, and false when the row must
// be dropped. Results are memoized per raw value, so a normalizer belongs to a
// single cleaning run and must not be shared between goroutines.
type StateNormalizer struct {
	gaz    *geo.Gazetteer
	states []string
	cutoff float64
	caser  *geo.TitleCaser
	memo   map[string]stateResult
}

type stateResult struct {
	value       string
	corrections []geo.Correction
	ok          bool
}

// NewStateNormalizer returns a normalizer over g's enumeration.
func NewStateNormalizer(g *geo.Gazetteer, cutoff float64) (*StateNormalizer, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	return &StateNormalizer{
		gaz:    g,
		states: g.States(),
		cutoff: cutoff,
		caser:  geo.NewTitleCaser(),
		memo:   make(map[string]stateResult),
	}, nil
}

// Normalize rejects numeric labels, title-cases, resolves aliases, then
// snaps to the closest canonical name at or above the cutoff. A label with no
// close match passes through title-cased.
func (n *StateNormalizer) Normalize(raw string) (string, []geo.Correction, bool) {
	if r, ok := n.memo[raw]; ok {
		return r.value, r.corrections, r.ok
	}
	r := n.normalize(raw)
	n.memo[raw] = r
	return r.value, r.corrections, r.ok
}

func (n *StateNormalizer) normalize(raw string) stateResult {
	trimmed := strings.TrimSpace(raw)
	if geo.IsNumeric(trimmed) {
		return stateResult{corrections: []geo.Correction{geo.Rejected(geo.InvalidState, trimmed)}}
	}

	var corrections []geo.Correction
	cleaned := n.caser.Title(trimmed)
	if to, ok := n.gaz.ResolveAlias(cleaned); ok {
		corrections = append(corrections, geo.Corrected(geo.StateAlias, cleaned, to))
		cleaned = to
	}

	if match, ok := textsim.BestMatch(cleaned, n.states, n.cutoff); ok && match != cleaned {
		corrections = append(corrections, geo.Corrected(geo.StateFuzzy, trimmed, match))
		cleaned = match
	}
	return stateResult{value: cleaned, corrections: corrections, ok: true}
}

// rowNormalizer cleans the geography columns of one table.
type rowNormalizer struct {
	states *StateNormalizer
	caser  *geo.TitleCaser
}

// cleanTable snake-cases headers, normalizes state, district and pincode,
// and drops rows whose state was rejected. The input table is not modified.
func (rn *rowNormalizer) cleanTable(t *dataset.Table) (*dataset.Table, []geo.Correction) {
	out := &dataset.Table{Header: make([]string, len(t.Header))}
	for i, h := range t.Header {
		out.Header[i] = geo.SnakeColumn(h)
	}
	stateCol, districtCol, pincodeCol := out.Col("state"), out.Col("district"), out.Col("pincode")

	var corrections []geo.Correction
	out.Records = make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		row := make([]string, len(out.Header))
		copy(row, rec)

		if stateCol >= 0 {
			v, cs, ok := rn.states.Normalize(row[stateCol])
			corrections = append(corrections, cs...)
			if !ok {
				continue
			}
			row[stateCol] = v
		}
		if districtCol >= 0 {
			row[districtCol] = rn.caser.Title(row[districtCol])
		}
		if pincodeCol >= 0 {
			row[pincodeCol] = geo.Pincode(row[pincodeCol])
		}
		out.Records = append(out.Records, row)
	}
	return out, corrections
}
