package server

import (
	"context"
	"testing"
	"time"
)

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	config := JobConfig{
		Benchmark:  "sphere",
		Dimensions: 3,
		Rounds:     10,
		Population: 20,
		Seed:       42,
	}

	job := jm.CreateJob(config)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}
	if job.Config.Benchmark != "sphere" || job.Config.Dimensions != 3 {
		t.Errorf("Config not set correctly: %+v", job.Config)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{Benchmark: "sphere"})

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}
	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	// Copies must not alias the stored job
	retrieved.State = StateFailed
	again, _ := jm.GetJob(job.ID)
	if again.State != StatePending {
		t.Errorf("GetJob returned an alias, state is %s", again.State)
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(JobConfig{Benchmark: "sphere"})
	time.Sleep(time.Millisecond)
	jm.CreateJob(JobConfig{Benchmark: "rastrigin"})

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID {
		t.Error("Expected jobs ordered by start time")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{Benchmark: "sphere"})

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Rounds = 5
	})
	if err != nil {
		t.Errorf("UpdateJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning || updated.Rounds != 5 {
		t.Errorf("Update not applied: %+v", updated)
	}

	if err := jm.UpdateJob("nonexistent", func(j *Job) {}); err == nil {
		t.Error("UpdateJob should fail for nonexistent job")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	job1 := jm.CreateJob(JobConfig{Benchmark: "sphere"})
	jm.CreateJob(JobConfig{Benchmark: "sphere"})
	jm.UpdateJob(job1.ID, func(j *Job) { j.State = StateRunning })

	running := jm.GetRunningJobs()
	if len(running) != 1 {
		t.Fatalf("Expected 1 running job, got %d", len(running))
	}
	if running[0].ID != job1.ID {
		t.Error("Wrong job returned")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{Benchmark: "sphere"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jm.setCancel(job.ID, cancel)

	if !jm.CancelJob(job.ID) {
		t.Fatal("CancelJob should succeed for a pending job")
	}
	if ctx.Err() == nil {
		t.Error("Expected the job context to be cancelled")
	}

	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCompleted })
	if jm.CancelJob(job.ID) {
		t.Error("CancelJob should fail for a finished job")
	}
	if jm.CancelJob("nonexistent") {
		t.Error("CancelJob should fail for nonexistent job")
	}
}

func TestJobConfig_Defaults(t *testing.T) {
	var c JobConfig
	c.applyDefaults()

	if c.Benchmark != "sphere" || c.Dimensions != 2 || c.Rounds != 50 ||
		c.Population != 50 || c.Points != 200 || c.Direction != "min" || c.Scaling != "auto" {
		t.Errorf("Unexpected defaults: %+v", c)
	}

	c = JobConfig{Benchmark: "rosenbrock", Rounds: 7}
	c.applyDefaults()
	if c.Benchmark != "rosenbrock" || c.Rounds != 7 {
		t.Errorf("Defaults overwrote explicit values: %+v", c)
	}
}
