package aggregate

import (
	"cmp"
	"slices"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
)

// Totals holds summed counts per key.
type Totals[K cmp.Ordered] map[K]dataset.Counts

// Keyed is one merged entry.
type Keyed[K cmp.Ordered] struct {
	Key    K
	Counts dataset.Counts
}

// GroupSum sums the metric columns of recs per key.
func GroupSum[K cmp.Ordered](recs []dataset.Record, metrics []string, key func(dataset.Record) K) Totals[K] {
	out := make(Totals[K])
	for _, r := range recs {
		k := key(r)
		c, ok := out[k]
		if !ok {
			c = make(dataset.Counts, len(metrics))
			out[k] = c
		}
		for _, m := range metrics {
			c[m] += r.Counts.Get(m)
		}
	}
	return out
}

// OuterMerge joins parts on key. Every key present in any part appears once,
// with every column present and absent columns filled with 0. Entries are
// ordered by key.
func OuterMerge[K cmp.Ordered](columns []string, parts ...Totals[K]) []Keyed[K] {
	merged := make(map[K]dataset.Counts)
	for _, p := range parts {
		for k, c := range p {
			dst, ok := merged[k]
			if !ok {
				dst = make(dataset.Counts, len(columns))
				for _, col := range columns {
					dst[col] = 0
				}
				merged[k] = dst
			}
			dst.Add(c)
		}
	}

	keys := make([]K, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Keyed[K], len(keys))
	for i, k := range keys {
		out[i] = Keyed[K]{Key: k, Counts: merged[k]}
	}
	return out
}
