package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExportNPY(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	snap := createTestSnapshot("npy-run")
	snap.Dimensions[0].Name = "a/b"
	snap.Dimensions[1].Name = ""

	paths, err := ExportNPY(dir, snap)
	if err != nil {
		t.Fatalf("ExportNPY failed: %v", err)
	}

	want := []string{"a_b_x.npy", "a_b_pdf.npy", "dim1_x.npy", "dim1_pdf.npy"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %d files, got %d: %v", len(want), len(paths), paths)
	}
	for i, name := range want {
		if filepath.Base(paths[i]) != name {
			t.Errorf("File %d: expected %s, got %s", i, name, filepath.Base(paths[i]))
		}
		if _, err := os.Stat(paths[i]); err != nil {
			t.Errorf("File %s missing: %v", paths[i], err)
		}
	}

	pdf, err := ReadNPY(paths[3])
	if err != nil {
		t.Fatalf("ReadNPY failed: %v", err)
	}
	expected := snap.Dimensions[1].PDF
	if len(pdf) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(pdf))
	}
	for i := range expected {
		if pdf[i] != expected[i] {
			t.Errorf("Value %d: expected %f, got %f", i, expected[i], pdf[i])
		}
	}
}

func TestExportNPY_NilSnapshot(t *testing.T) {
	if _, err := ExportNPY(t.TempDir(), nil); err == nil {
		t.Error("Expected error for nil snapshot")
	}
}

func TestReadNPY_Missing(t *testing.T) {
	if _, err := ReadNPY(filepath.Join(t.TempDir(), "none.npy")); err == nil {
		t.Error("Expected error for missing file")
	}
}
