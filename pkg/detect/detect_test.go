package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/store"
)

func districtTable(state string, counts map[string]int) *dataset.Table {
	t := &dataset.Table{Header: []string{"state", "district", "pincode"}}
	for d, n := range counts {
		for i := 0; i < n; i++ {
			t.Records = append(t.Records, []string{state, d, "560001"})
		}
	}
	return t
}

func newDetector(t *testing.T, tables map[dataset.ID]*dataset.Table) *Detector {
	t.Helper()
	s, err := store.NewFileArtifacts(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for id, tbl := range tables {
		if _, err := s.Save(context.Background(), id, tbl); err != nil {
			t.Fatal(err)
		}
	}
	return New(s, nil)
}

func TestDetectBengaluru(t *testing.T) {
	tbl := districtTable("Karnataka", map[string]int{"Bengaluru": 900, "Bengalooru": 15})
	tbl.Append(districtTable("Kerala", map[string]int{"Bengalooru": 1}))
	d := newDetector(t, map[dataset.ID]*dataset.Table{dataset.Enrolment: tbl})

	// "Bengalooru" / "Bengaluru" score 16/19 ≈ 0.842, so the cutoff is lowered to its floor.
	report, err := d.Detect(context.Background(), "Karnataka", dataset.Enrolment,
		Options{SimilarityCutoff: 0.8, MinCountRatio: 5.0})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(report.PotentialDuplicates) != 1 {
		t.Fatalf("pairs = %+v, want 1", report.PotentialDuplicates)
	}
	p := report.PotentialDuplicates[0]
	want := Pair{
		DistrictA: "Bengalooru", DistrictB: "Bengaluru",
		Similarity: 0.842, RowsA: 15, RowsB: 900,
		CountRatio: 60.0, Recommendation: Review,
	}
	if p != want {
		t.Errorf("pair = %+v, want %+v", p, want)
	}

	strict, err := d.Detect(context.Background(), "Karnataka", dataset.Enrolment, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(strict.PotentialDuplicates) != 0 {
		t.Errorf("at 0.9 pairs = %+v, want none", strict.PotentialDuplicates)
	}
}

func TestPairsForwardOnly(t *testing.T) {
	counts := map[string]int{"Tamil Nadu": 1, "Tamil Nad": 1, "Tamil Naadu": 1}
	pairs := Pairs(counts, Options{SimilarityCutoff: 0.8, MinCountRatio: 5})

	// sorted: Tamil Naadu, Tamil Nad, Tamil Nadu
	seen := map[[2]string]bool{}
	for _, p := range pairs {
		if p.DistrictA >= p.DistrictB {
			t.Errorf("pair %q/%q not in forward order", p.DistrictA, p.DistrictB)
		}
		key := [2]string{p.DistrictA, p.DistrictB}
		if seen[key] {
			t.Errorf("duplicate pair %v", key)
		}
		seen[key] = true
		if p.Recommendation != Check || p.CountRatio != 1 {
			t.Errorf("pair = %+v", p)
		}
	}
	if len(pairs) != 3 {
		t.Errorf("pairs = %d, want 3: %+v", len(pairs), pairs)
	}
	if pairs[0].DistrictA != "Tamil Naadu" {
		t.Errorf("first pair should start from the smallest label: %+v", pairs[0])
	}
}

func TestPairsReviewMonotonic(t *testing.T) {
	counts := map[string]int{
		"Bengaluru": 900, "Bengalooru": 15, "Bengaluru Urban": 40,
		"Mysuru": 300, "Mysore": 100, "Mysuuru": 2,
	}
	prev := -1
	for _, ratio := range []float64{1, 2, 3, 5, 10, 30, 60, 100, 500} {
		reviews := 0
		for _, p := range Pairs(counts, Options{SimilarityCutoff: 0.8, MinCountRatio: ratio}) {
			if p.Recommendation == Review {
				reviews++
			}
		}
		if prev >= 0 && reviews > prev {
			t.Errorf("min_count_ratio %v: reviews rose from %d to %d", ratio, prev, reviews)
		}
		prev = reviews
	}
}

func TestDetectEmptyScopes(t *testing.T) {
	tbl := districtTable("Karnataka", map[string]int{"Bengaluru": 3})
	d := newDetector(t, map[dataset.ID]*dataset.Table{
		dataset.Enrolment:       tbl,
		dataset.BiometricUpdate: {Header: []string{"pincode"}, Records: [][]string{{"1"}}},
	})

	tests := []struct {
		name  string
		state string
		id    dataset.ID
	}{
		{"unknown state", "Atlantis", dataset.Enrolment},
		{"no geography columns", "Karnataka", dataset.BiometricUpdate},
		{"single district", "Karnataka", dataset.Enrolment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := d.Detect(context.Background(), tt.state, tt.id, DefaultOptions())
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if r.PotentialDuplicates == nil || len(r.PotentialDuplicates) != 0 {
				t.Errorf("pairs = %#v, want empty", r.PotentialDuplicates)
			}
		})
	}
}

func TestDetectErrors(t *testing.T) {
	d := newDetector(t, nil)
	ctx := context.Background()

	if _, err := d.Detect(ctx, "Goa", dataset.Enrolment, DefaultOptions()); !errors.Is(err, dataset.ErrPrerequisiteMissing) {
		t.Errorf("missing artifact: err = %v", err)
	}
	if _, err := d.Detect(ctx, "Goa", "census", DefaultOptions()); !errors.Is(err, dataset.ErrUnknownDataset) {
		t.Errorf("unknown dataset: err = %v", err)
	}
	for _, o := range []Options{{0.7, 5}, {1.1, 5}, {0.9, 0.5}} {
		if _, err := d.Detect(ctx, "Goa", dataset.Enrolment, o); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("options %+v: err = %v, want ErrInvalidParameter", o, err)
		}
	}
}
