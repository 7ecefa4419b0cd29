package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Counts maps metric column names to summed counts.
type Counts map[string]int64

// Get returns the count for a metric, 0 when absent.
func (c Counts) Get(metric string) int64 {
	return c[metric]
}

// Add accumulates other into c.
func (c Counts) Add(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Record is one cleaned row, typed for aggregation.
type Record struct {
	State    string
	District string
	Pincode  string
	Date     string
	Counts   Counts
}

// Records converts a cleaned table into typed records using the spec's metric
// columns. Missing metric columns and blank cells count as 0.
func Records(t *Table, spec Spec) ([]Record, error) {
	stateCol, districtCol := t.Col("state"), t.Col("district")
	pincodeCol, dateCol := t.Col("pincode"), t.Col("date")

	metricCols := make(map[string]int, len(spec.Metrics))
	for _, m := range spec.Metrics {
		metricCols[m] = t.Col(m)
	}

	out := make([]Record, 0, t.Len())
	for i := range t.Records {
		rec := Record{
			State:    t.Value(i, stateCol),
			District: t.Value(i, districtCol),
			Pincode:  t.Value(i, pincodeCol),
			Date:     t.Value(i, dateCol),
			Counts:   make(Counts, len(spec.Metrics)),
		}
		for m, c := range metricCols {
			n, err := ParseCount(t.Value(i, c))
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", spec.ID, i+1, m, err)
			}
			rec.Counts[m] = n
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseCount parses an integer count, tolerating the float rendering
// ("12.0") produced by spreadsheet exports. Fractional or out-of-range
// values are rejected.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int64(f), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses the date formats found in the source exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SpanDays returns max(date) - min(date) + 1 in days over the parseable dates
// of recs, or 0 when none parse.
func SpanDays(recs []Record) int {
	var lo, hi time.Time
	found := false
	for _, r := range recs {
		t, ok := ParseDate(r.Date)
		if !ok {
			continue
		}
		if !found || t.Before(lo) {
			lo = t
		}
		if !found || t.After(hi) {
			hi = t
		}
		found = true
	}
	if !found {
		return 0
	}
	return int(hi.Sub(lo).Hours()/24) + 1
}
