package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/geo"
	"github.com/hazyhaar/aadhaar-pulse/pkg/store"
)

// memSource serves tables from memory.
type memSource map[dataset.ID]*dataset.Table

func (m memSource) Load(_ context.Context, id dataset.ID) (*dataset.Table, error) {
	t, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrSourceUnavailable, id)
	}
	return t, nil
}

type fixture struct {
	c         *Canonicalizer
	artifacts *store.FileArtifacts
	ledger    *store.JSONLedger
}

func newFixture(t *testing.T, src dataset.Source, cutoff float64) *fixture {
	t.Helper()
	dir := t.TempDir()
	artifacts, err := store.NewFileArtifacts(filepath.Join(dir, "cleaned"))
	if err != nil {
		t.Fatal(err)
	}
	ledger, err := store.NewJSONLedger(filepath.Join(dir, "cleaned", "cleaning_log.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(Config{
		Source:    src,
		Artifacts: artifacts,
		Ledger:    ledger,
		Cutoff:    cutoff,
		Now:       func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{c: c, artifacts: artifacts, ledger: ledger}
}

func rawTable(states ...string) *dataset.Table {
	t := &dataset.Table{Header: []string{" State ", "District", "Pincode", "Date", "Age 0 5"}}
	for i, s := range states {
		t.Records = append(t.Records, []string{s, " patna ", "800001.0", "2025-01-01", fmt.Sprint(i + 1)})
	}
	return t
}

func stateColumn(t *dataset.Table) []string {
	col := t.Col("state")
	var out []string
	for i := range t.Records {
		out = append(out, t.Value(i, col))
	}
	return out
}

func TestCleanDropsNumericStates(t *testing.T) {
	f := newFixture(t, memSource{dataset.Enrolment: rawTable("bihar", "123456", "Bihar ")}, 0)

	res, err := f.c.Clean(context.Background(), dataset.Enrolment)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Rows != 2 || res.CorrectionsCount != 1 {
		t.Fatalf("result = %+v, want 2 rows and 1 correction", res)
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}

	out, err := f.artifacts.Load(context.Background(), dataset.Enrolment)
	if err != nil {
		t.Fatal(err)
	}
	if got := stateColumn(out); !reflect.DeepEqual(got, []string{"Bihar", "Bihar"}) {
		t.Errorf("states = %v", got)
	}

	entries, _ := f.ledger.Entries(context.Background())
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Dataset != "enrolment" || e.RowsProcessed != 2 || e.CorrectionsCount != 1 || e.RunID != res.RunID {
		t.Errorf("entry = %+v", e)
	}
	if e.Timestamp != "2025-03-01T10:00:00Z" {
		t.Errorf("timestamp = %q", e.Timestamp)
	}
	want := geo.Correction{Type: geo.InvalidState, From: "123456"}
	if !reflect.DeepEqual(e.CorrectionsSample, []geo.Correction{want}) {
		t.Errorf("sample = %+v", e.CorrectionsSample)
	}
}

func TestCleanNormalizesColumns(t *testing.T) {
	f := newFixture(t, memSource{dataset.Enrolment: rawTable("goa")}, 0)
	if _, err := f.c.Clean(context.Background(), dataset.Enrolment); err != nil {
		t.Fatal(err)
	}
	out, _ := f.artifacts.Load(context.Background(), dataset.Enrolment)

	if want := []string{"state", "district", "pincode", "date", "age_0_5"}; !reflect.DeepEqual(out.Header, want) {
		t.Errorf("header = %v, want %v", out.Header, want)
	}
	row := out.Records[0]
	if row[1] != "Patna" {
		t.Errorf("district = %q, want Patna", row[1])
	}
	if row[2] != "800001" {
		t.Errorf("pincode = %q, want 800001", row[2])
	}
}

func TestStateNormalizer(t *testing.T) {
	tests := []struct {
		raw         string
		cutoff      float64
		want        string
		ok          bool
		corrections []geo.Correction
	}{
		{"bihar", 0.9, "Bihar", true, nil},
		{"  WEST BENGAL ", 0.9, "West Bengal", true, nil},
		{"123456", 0.9, "", false, []geo.Correction{geo.Rejected(geo.InvalidState, "123456")}},
		{"pondicherry", 0.9, "Puducherry", true,
			[]geo.Correction{geo.Corrected(geo.StateAlias, "Pondicherry", "Puducherry")}},
		{"Jammu & Kashmir", 0.9, "Jammu And Kashmir", true,
			[]geo.Correction{geo.Corrected(geo.StateAlias, "Jammu & Kashmir", "Jammu And Kashmir")}},
		{"dadra & nagar haveli", 0.9, "Dadra And Nagar Haveli And Daman And Diu", true,
			[]geo.Correction{geo.Corrected(geo.StateAlias, "Dadra & Nagar Haveli", "Dadra And Nagar Haveli And Daman And Diu")}},
		{"tamil nad ", 0.9, "Tamil Nadu", true,
			[]geo.Correction{geo.Corrected(geo.StateFuzzy, "tamil nad", "Tamil Nadu")}},
		{"Bihr", 0.9, "Bihr", true, nil},
		{"Bihr", 0.8, "Bihar", true, []geo.Correction{geo.Corrected(geo.StateFuzzy, "Bihr", "Bihar")}},
		{"Orissa", 0.9, "Orissa", true, nil},
		{"", 0.9, "", true, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%v", tt.raw, tt.cutoff), func(t *testing.T) {
			n, err := NewStateNormalizer(geo.Default(), tt.cutoff)
			if err != nil {
				t.Fatal(err)
			}
			got, cs, ok := n.Normalize(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
			if !reflect.DeepEqual(cs, tt.corrections) {
				t.Errorf("corrections = %+v, want %+v", cs, tt.corrections)
			}
		})
	}
}

func TestStateNormalizerMemoKeepsCorrectionsPerCall(t *testing.T) {
	f := newFixture(t, memSource{dataset.Enrolment: rawTable("Pondicherry", "Pondicherry", "Pondicherry")}, 0)
	res, err := f.c.Clean(context.Background(), dataset.Enrolment)
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectionsCount != 3 {
		t.Errorf("corrections = %d, want one per row", res.CorrectionsCount)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	raw := rawTable("bihar", "123456", "Pondicherry", "tamil nad", "Dadra & Nagar Haveli", "Bihr", "daman & diu")
	f := newFixture(t, memSource{dataset.Enrolment: raw}, 0)
	ctx := context.Background()

	first, err := f.c.Clean(ctx, dataset.Enrolment)
	if err != nil {
		t.Fatal(err)
	}
	if first.CorrectionsCount == 0 {
		t.Fatal("first run should correct something")
	}
	cleaned, err := f.artifacts.Load(ctx, dataset.Enrolment)
	if err != nil {
		t.Fatal(err)
	}

	again, corrections := f.c.CleanTable(cleaned)
	if len(corrections) != 0 {
		t.Errorf("second pass corrections = %+v, want none", corrections)
	}
	if !reflect.DeepEqual(again, cleaned) {
		t.Errorf("second pass changed the artifact:\n got %v\nwant %v", again.Records, cleaned.Records)
	}
}

func TestCleanInvariants(t *testing.T) {
	raw := &dataset.Table{
		Header: []string{"state", "district", "pincode"},
		Records: [][]string{
			{"Goa", "x", "1234"},
			{"Goa", "x", ""},
			{"Goa", "x", "12345678"},
			{"Goa", "x", "403001.0"},
			{"Atlantis", "x", "403001"},
		},
	}
	f := newFixture(t, memSource{dataset.Enrolment: raw}, 0)
	cleaned, _ := f.c.CleanTable(raw)

	g := geo.Default()
	for i, row := range cleaned.Records {
		if p := row[2]; len(p) != geo.PincodeWidth {
			t.Errorf("row %d pincode %q not %d wide", i, p, geo.PincodeWidth)
		}
		if s := row[0]; !g.IsCanonical(s) && s != raw.Records[i][0] {
			t.Errorf("row %d state %q neither canonical nor passthrough", i, s)
		}
	}
	if got := cleaned.Records[0][2]; got != "001234" {
		t.Errorf("padded pincode = %q", got)
	}
}

func TestCleanSourceUnavailable(t *testing.T) {
	f := newFixture(t, memSource{}, 0)
	ctx := context.Background()

	_, err := f.c.Clean(ctx, dataset.DemographicUpdate)
	if !errors.Is(err, dataset.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if _, err := f.artifacts.Load(ctx, dataset.DemographicUpdate); !errors.Is(err, dataset.ErrPrerequisiteMissing) {
		t.Errorf("artifact written on failure: %v", err)
	}
	if entries, _ := f.ledger.Entries(ctx); len(entries) != 0 {
		t.Errorf("ledger written on failure: %+v", entries)
	}
}

func TestCleanHeaderOnlySourceKeepsArtifact(t *testing.T) {
	raw := t.TempDir()
	folder := filepath.Join(raw, string(dataset.Enrolment))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "a.csv"), []byte("state,district,pincode,date,age_0_5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, dataset.NewFolderSource(raw, ""), 0)
	ctx := context.Background()

	prev := &dataset.Table{Header: []string{"state", "district"}, Records: [][]string{{"Bihar", "Patna"}}}
	if _, err := f.artifacts.Save(ctx, dataset.Enrolment, prev); err != nil {
		t.Fatal(err)
	}

	_, err := f.c.Clean(ctx, dataset.Enrolment)
	if !errors.Is(err, dataset.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	got, err := f.artifacts.Load(ctx, dataset.Enrolment)
	if err != nil || got.Len() != 1 {
		t.Errorf("previous artifact lost: rows=%v err=%v", got, err)
	}
	if entries, _ := f.ledger.Entries(ctx); len(entries) != 0 {
		t.Errorf("ledger written for empty source: %+v", entries)
	}
}

func TestCleanEmptyTable(t *testing.T) {
	f := newFixture(t, memSource{dataset.Enrolment: rawTable()}, 0)
	if _, err := f.c.Clean(context.Background(), dataset.Enrolment); !errors.Is(err, dataset.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

// brokenLedger fails every append.
type brokenLedger struct{ store.Ledger }

func (brokenLedger) Append(context.Context, store.Entry) error { return errors.New("disk full") }

func TestCleanLedgerFailureKeepsRun(t *testing.T) {
	dir := t.TempDir()
	artifacts, err := store.NewFileArtifacts(dir)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(Config{
		Source:    memSource{dataset.Enrolment: rawTable("bihar")},
		Artifacts: artifacts,
		Ledger:    brokenLedger{},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Clean(context.Background(), dataset.Enrolment)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Rows != 1 || res.OutputFile != artifacts.Path(dataset.Enrolment) {
		t.Errorf("result = %+v", res)
	}
	if got, err := artifacts.Load(context.Background(), dataset.Enrolment); err != nil || got.Len() != 1 {
		t.Errorf("artifact = %v, %v", got, err)
	}
}

func TestCleanUnknownDataset(t *testing.T) {
	f := newFixture(t, memSource{}, 0)
	_, err := f.c.Clean(context.Background(), "census")
	if !errors.Is(err, dataset.ErrUnknownDataset) {
		t.Fatalf("err = %v, want ErrUnknownDataset", err)
	}
}

func TestNewRejectsCutoff(t *testing.T) {
	dir := t.TempDir()
	artifacts, _ := store.NewFileArtifacts(dir)
	ledger, _ := store.NewJSONLedger(filepath.Join(dir, "log.json"), nil)
	for _, c := range []float64{0.5, 1.2, -1} {
		_, err := New(Config{Source: memSource{}, Artifacts: artifacts, Ledger: ledger, Cutoff: c})
		if !errors.Is(err, ErrInvalidCutoff) {
			t.Errorf("cutoff %v: err = %v, want ErrInvalidCutoff", c, err)
		}
	}
}
