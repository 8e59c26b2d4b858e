package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bgbg/asop/internal/store"
)

func testRunOptions(dataDir string) runOptions {
	return runOptions{
		benchmark:   "sphere",
		dims:        2,
		rounds:      5,
		pop:         20,
		points:      41,
		direction:   "min",
		scaling:     "auto",
		seed:        7,
		threshold:   1e-6,
		dataDir:     dataDir,
		runID:       "run-1",
		snapshotInt: 2,
	}
}

func TestRunBenchmark_Text(t *testing.T) {
	o := testRunOptions("")
	o.runID = ""
	o.plot = true
	cmd, out := newTestCommand("")

	if err := runBenchmark(context.Background(), cmd, o); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"sphere in 2 dimension(s)", "Best value:", "Rounds:      5"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestRunBenchmark_PersistAndResume(t *testing.T) {
	dataDir := t.TempDir()
	o := testRunOptions(dataDir)
	o.exportNPY = true
	o.jsonOut = true
	cmd, out := newTestCommand("")

	if err := runBenchmark(context.Background(), cmd, o); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var res struct {
		RunID  string `json:"runId"`
		Rounds int    `json:"rounds"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if res.RunID != "run-1" || res.Rounds != 5 {
		t.Errorf("Unexpected result %+v", res)
	}

	st, err := store.NewFSStore(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := st.LoadSnapshot("run-1")
	if err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}
	if snap.Round != 5 {
		t.Errorf("Expected snapshot round 5, got %d", snap.Round)
	}
	if _, err := os.Stat(filepath.Join(st.RunDir("run-1"), "X0_pdf.npy")); err != nil {
		t.Errorf("Expected exported pdf: %v", err)
	}

	// Resume for three more rounds; the trace continues where it stopped
	o = testRunOptions(dataDir)
	o.resume = "run-1"
	o.rounds = 3
	cmd, _ = newTestCommand("")
	if err := runBenchmark(context.Background(), cmd, o); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	snap, err = st.LoadSnapshot("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Round != 8 {
		t.Errorf("Expected snapshot round 8 after resume, got %d", snap.Round)
	}

	reader, err := store.NewTraceReader(dataDir, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 {
		t.Fatalf("Expected 8 trace entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Round != i+1 {
			t.Errorf("entry %d has round %d", i, e.Round)
		}
	}
}

func TestRunBenchmark_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*runOptions)
	}{
		{"unknown benchmark", func(o *runOptions) { o.benchmark = "nope" }},
		{"resume without data dir", func(o *runOptions) { o.dataDir = ""; o.resume = "x" }},
		{"npy without data dir", func(o *runOptions) { o.dataDir = ""; o.exportNPY = true }},
		{"bad direction", func(o *runOptions) { o.direction = "sideways" }},
		{"bad scaling", func(o *runOptions) { o.scaling = "cubic" }},
		{"missing snapshot", func(o *runOptions) { o.resume = "missing" }},
		{"zero dims", func(o *runOptions) { o.dims = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testRunOptions(t.TempDir())
			tt.modify(&o)
			cmd, _ := newTestCommand("")
			if err := runBenchmark(context.Background(), cmd, o); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
