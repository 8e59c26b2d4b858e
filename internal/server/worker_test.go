package server

import (
	"context"
	"errors"
	"testing"

	"github.com/bgbg/asop/internal/store"
)

func testJobConfig() JobConfig {
	c := JobConfig{
		Benchmark:  "sphere",
		Dimensions: 2,
		Rounds:     10,
		Population: 20,
		Points:     41,
		Seed:       42,
	}
	c.applyDefaults()
	return c
}

func TestRunJob_Success(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig())

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if updated.Rounds != 10 {
		t.Errorf("Expected 10 rounds, got %d", updated.Rounds)
	}
	if updated.Evaluations != 200 {
		t.Errorf("Expected 200 evaluations, got %d", updated.Evaluations)
	}
	if len(updated.BestSolution) != 2 {
		t.Errorf("Expected 2 values in best solution, got %d", len(updated.BestSolution))
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}
	// 400 samples on a 41-point grid over [-2, 2]^2 find a point near the origin
	if updated.BestValue > 0.5 {
		t.Errorf("Expected best value below 0.5, got %v", updated.BestValue)
	}
}

func TestRunJob_UnknownBenchmark(t *testing.T) {
	jm := NewJobManager()
	config := testJobConfig()
	config.Benchmark = "nope"
	job := jm.CreateJob(config)

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Error("runJob should fail with an unknown benchmark")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runJob(ctx, jm, nil, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
}

func TestRunJob_NotFound(t *testing.T) {
	if err := runJob(context.Background(), NewJobManager(), nil, "missing"); err == nil {
		t.Error("runJob should fail for a missing job")
	}
}

func TestRunJob_SnapshotsAndTrace(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	jm := NewJobManager()
	config := testJobConfig()
	config.SnapshotEvery = 3
	job := jm.CreateJob(config)

	if err := runJob(context.Background(), jm, st, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	snap, err := st.LoadSnapshot(job.ID)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.Round != 10 {
		t.Errorf("Expected final snapshot at round 10, got %d", snap.Round)
	}
	if len(snap.Dimensions) != 2 || len(snap.Dimensions[0].X) != 41 {
		t.Errorf("Unexpected snapshot dimensions: %+v", snap.Dimensions)
	}

	reader, err := store.NewTraceReader(dir, job.ID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("Expected 10 trace entries, got %d", len(entries))
	}
	if entries[9].Evaluations != 200 {
		t.Errorf("Expected 200 evaluations in last entry, got %d", entries[9].Evaluations)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].BestValue > entries[i-1].BestValue {
			t.Errorf("Best value got worse at round %d", entries[i].Round)
		}
	}
}

func TestNewJobOptimizer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*JobConfig)
	}{
		{"benchmark", func(c *JobConfig) { c.Benchmark = "unknown" }},
		{"direction", func(c *JobConfig) { c.Direction = "sideways" }},
		{"scaling", func(c *JobConfig) { c.Scaling = "cubic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testJobConfig()
			tt.mutate(&c)
			if _, err := newJobOptimizer(c); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	o, err := newJobOptimizer(testJobConfig())
	if err != nil {
		t.Fatalf("newJobOptimizer failed: %v", err)
	}
	if o.Dimensions() != 2 || o.Names()[1] != "X1" {
		t.Errorf("Unexpected optimizer: %v", o.Names())
	}
}
