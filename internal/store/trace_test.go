package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// writeTrace writes entries for runID and closes the writer.
func writeTrace(t *testing.T, baseDir, runID string, resume bool, entries ...TraceEntry) {
	t.Helper()
	w, err := NewTraceWriter(baseDir, runID, resume)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for _, e := range entries {
		if err := w.Write(e); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
}

func TestTrace_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Now()
	entries := []TraceEntry{
		{Round: 1, Value: 1.0, BestValue: 1.0, Evaluations: 20, Timestamp: now},
		{Round: 2, Value: 1.4, BestValue: 1.0, Evaluations: 40, Timestamp: now},
		{Round: 3, Value: 0.6, BestValue: 0.6, Evaluations: 60, Timestamp: now, Solution: []float64{0.1, -0.2}},
	}
	writeTrace(t, tmpDir, "run", false, entries...)

	if _, err := os.Stat(filepath.Join(tmpDir, "runs", "run", "trace.jsonl")); err != nil {
		t.Fatalf("Trace file not created: %v", err)
	}

	got, err := ReadTrace(tmpDir, "run")
	if err != nil {
		t.Fatalf("ReadTrace failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i, e := range got {
		want := entries[i]
		if e.Round != want.Round || e.Value != want.Value || e.BestValue != want.BestValue || e.Evaluations != want.Evaluations {
			t.Errorf("Entry %d: got %+v, want %+v", i, e, want)
		}
		if len(e.Solution) != len(want.Solution) {
			t.Errorf("Entry %d: expected %d solution values, got %d", i, len(want.Solution), len(e.Solution))
		}
	}
}

func TestTrace_ResumeAppends(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "run", false, TraceEntry{Round: 1, Timestamp: time.Now()})
	writeTrace(t, tmpDir, "run", true, TraceEntry{Round: 2, Timestamp: time.Now()})

	got, err := ReadTrace(tmpDir, "run")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Round != 1 || got[1].Round != 2 {
		t.Fatalf("Expected rounds [1 2], got %+v", got)
	}

	// A fresh writer truncates
	writeTrace(t, tmpDir, "run", false, TraceEntry{Round: 1, Timestamp: time.Now()})
	got, err = ReadTrace(tmpDir, "run")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 entry after restart, got %d", len(got))
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := NewTraceWriter(tmpDir, "run", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer w.Close()

	if err := w.Write(TraceEntry{Round: 1, Value: 1.0, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	// Visible on disk before Close
	data, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Errorf("Expected one JSON line after flush, got %q", data)
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	tmpDir := t.TempDir()
	var entries []TraceEntry
	for i := 1; i <= 5; i++ {
		entries = append(entries, TraceEntry{Round: i, Value: 1.0 - float64(i)*0.1, Timestamp: time.Now()})
	}
	writeTrace(t, tmpDir, "run", false, entries...)

	reader, err := NewTraceReader(tmpDir, "run")
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}
		count++
		if entry.Round != count {
			t.Errorf("Entry %d: got round %d", count, entry.Round)
		}
	}
	if count != 5 {
		t.Errorf("Expected to read 5 entries, got %d", count)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "nonexistent-run")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError, got: %v", err)
	}
	if _, err := ReadTrace(t.TempDir(), "nonexistent-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadTrace: expected NotFoundError, got: %v", err)
	}
}

func TestTraceReader_Corrupted(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "run", false, TraceEntry{Round: 1, Timestamp: time.Now()})

	f, err := os.OpenFile(filepath.Join(tmpDir, "runs", "run", "trace.jsonl"), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n")
	f.Close()

	if _, err := ReadTrace(tmpDir, "run"); err == nil {
		t.Error("Expected an error for a corrupted trace")
	}
}

func TestTraceWriter_LargeSolution(t *testing.T) {
	tmpDir := t.TempDir()

	solution := make([]float64, 500)
	for i := range solution {
		solution[i] = float64(i) / 7
	}
	writeTrace(t, tmpDir, "run", false, TraceEntry{Round: 1, Value: 0.123, Timestamp: time.Now(), Solution: solution})

	got, err := ReadTrace(tmpDir, "run")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Solution) != len(solution) {
		t.Fatalf("Expected one entry with %d values, got %+v", len(solution), got)
	}
	for i, v := range got[0].Solution {
		if v != solution[i] {
			t.Fatalf("Solution value %d: expected %v, got %v", i, solution[i], v)
		}
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := NewTraceWriter(tmpDir, "run", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(round int) {
			defer wg.Done()
			if err := w.Write(TraceEntry{Round: round, Value: float64(round), Timestamp: time.Now()}); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadTrace(tmpDir, "run")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(got))
	}
}

func TestImprovements(t *testing.T) {
	entries := []TraceEntry{
		{Round: 1, BestValue: 5},
		{Round: 2, BestValue: 5},
		{Round: 3, BestValue: 3},
		{Round: 4, BestValue: 3},
		{Round: 5, BestValue: 1},
	}

	got := Improvements(entries)
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("Expected rounds %v, got %+v", want, got)
	}
	for i, e := range got {
		if e.Round != want[i] {
			t.Errorf("Improvement %d: round %d, want %d", i, e.Round, want[i])
		}
	}

	if Improvements(nil) != nil {
		t.Error("Expected nil for an empty trace")
	}
}
