package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRaw(t *testing.T, dir string, id ID, name, content string) {
	t.Helper()
	folder := filepath.Join(dir, string(id))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFolderSource_Concatenates(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, Enrolment, "b.csv", "state,district,age_0_5\nGoa,North Goa,2\n")
	writeRaw(t, dir, Enrolment, "a.csv", "state,district,age_0_5\nBihar,Patna,1\n")
	writeRaw(t, dir, Enrolment, "notes.txt", "ignored")

	tbl, err := NewFolderSource(dir, "").Load(context.Background(), Enrolment)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	// File-name order: a.csv first.
	if tbl.Value(0, tbl.Col("state")) != "Bihar" {
		t.Errorf("first row state = %q, want Bihar", tbl.Value(0, tbl.Col("state")))
	}
}

func TestFolderSource_Missing(t *testing.T) {
	_, err := NewFolderSource(t.TempDir(), "").Load(context.Background(), BiometricUpdate)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFolderSource_NoCSV(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, DemographicUpdate, "readme.md", "nothing")
	_, err := NewFolderSource(dir, "").Load(context.Background(), DemographicUpdate)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFolderSource_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, Enrolment, "a.csv", "state,district,age_0_5\n")
	writeRaw(t, dir, Enrolment, "b.csv", "state,district,age_0_5\n")

	_, err := NewFolderSource(dir, "").Load(context.Background(), Enrolment)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFolderSource_Transcodes(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, Enrolment, "latin.csv", "state,district\nGoa,P\xe9rnem\n")

	tbl, err := NewFolderSource(dir, "windows-1252").Load(context.Background(), Enrolment)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.Value(0, 1); got != "Pérnem" {
		t.Errorf("district = %q, want Pérnem", got)
	}
}
