package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bgbg/asop/internal/asop"
	"github.com/bgbg/asop/internal/objective"
	"github.com/bgbg/asop/internal/store"
)

// tracer is implemented by stores that keep a per-run trace next to the snapshot.
type tracer interface {
	BaseDir() string
}

// newJobOptimizer builds one continuous variable per dimension over the
// benchmark's box.
func newJobOptimizer(cfg JobConfig) (*asop.Optimizer, error) {
	bench, err := objective.Lookup(cfg.Benchmark)
	if err != nil {
		return nil, err
	}
	direction, err := asop.ParseDirection(cfg.Direction)
	if err != nil {
		return nil, err
	}
	policy, err := asop.ParseScaling(cfg.Scaling)
	if err != nil {
		return nil, err
	}

	vars, err := bench.Variables(cfg.Dimensions, cfg.Points, cfg.SamplingStd, cfg.Seed)
	if err != nil {
		return nil, err
	}

	return asop.New(asop.Func(bench.Func), asop.Variables(vars...),
		asop.WithDirection(direction),
		asop.WithScaling(policy),
	)
}

// runJob executes an optimization job in the background.
// If st is not nil, a snapshot is saved every SnapshotEvery rounds and when
// the run ends; stores with a base directory also receive a round trace.
func runJob(ctx context.Context, jm *JobManager, st store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	defer jm.broadcaster.CleanupJob(jobID)
	defer jm.finish(jobID)

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}

	slog.Info("Starting job",
		"job_id", jobID,
		"benchmark", job.Config.Benchmark,
		"dimensions", job.Config.Dimensions,
		"rounds", job.Config.Rounds,
	)

	o, err := newJobOptimizer(job.Config)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	var trace *store.TraceWriter
	if t, ok := st.(tracer); ok {
		trace, err = store.NewTraceWriter(t.BaseDir(), jobID, false)
		if err != nil {
			slog.Warn("Trace disabled", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
		}
	}

	hook := func(info asop.RoundInfo) error {
		eps := 0.0
		if s := info.Elapsed.Seconds(); s > 0 {
			eps = float64(info.Evaluations) / s
		}

		jm.UpdateJob(jobID, func(j *Job) {
			j.Rounds = info.Round
			j.Evaluations = info.Evaluations
			j.BestValue = info.Best.Value
			j.BestSolution = info.Best.Solution
		})
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:       jobID,
			State:       StateRunning,
			Round:       info.Round,
			BestValue:   info.Best.Value,
			Evaluations: info.Evaluations,
			EPS:         eps,
			Timestamp:   time.Now(),
		})

		if trace != nil {
			if err := trace.Write(store.TraceEntry{
				Round:       info.Round,
				Value:       info.RoundBest.Value,
				BestValue:   info.Best.Value,
				Evaluations: info.Evaluations,
				Timestamp:   time.Now(),
				Solution:    info.RoundBest.Solution,
			}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		if st != nil && job.Config.SnapshotEvery > 0 && info.Round%job.Config.SnapshotEvery == 0 {
			saveSnapshot(st, o, jobID)
			if trace != nil {
				if err := trace.Flush(); err != nil {
					slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
				}
			}
		}
		return nil
	}

	res, err := o.Run(ctx, asop.RunConfig{
		Rounds:      job.Config.Rounds,
		Population:  job.Config.Population,
		Convergence: asop.DisabledConvergenceConfig(),
		Hook:        hook,
	})

	if st != nil && o.Rounds() > 0 {
		saveSnapshot(st, o, jobID)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			markJobCancelled(jm, jobID)
		} else {
			markJobFailed(jm, jobID, err)
		}
		return err
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestSolution = res.Best.Solution
		j.BestValue = res.Best.Value
		j.Rounds = res.Rounds
		j.Evaluations = res.Evaluations
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	eps := 0.0
	if res.Elapsed > 0 {
		eps = float64(res.Evaluations) / res.Elapsed.Seconds()
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", res.Elapsed,
		"best_value", res.Best.Value,
		"evaluations_per_second", eps,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Round:       res.Rounds,
		BestValue:   res.Best.Value,
		Evaluations: res.Evaluations,
		EPS:         eps,
		Timestamp:   time.Now(),
	})

	return nil
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	broadcastState(jm, jobID)
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	broadcastState(jm, jobID)
	slog.Info("Job cancelled", "job_id", jobID)
}

func broadcastState(jm *JobManager, jobID string) {
	job, ok := jm.GetJob(jobID)
	if !ok {
		return
	}
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       job.State,
		Round:       job.Rounds,
		BestValue:   job.BestValue,
		Evaluations: job.Evaluations,
		Timestamp:   time.Now(),
	})
}

// saveSnapshot persists the optimizer state under the job ID. Failures are
// logged and do not stop the job.
func saveSnapshot(st store.Store, o *asop.Optimizer, jobID string) {
	snap := o.Snapshot(jobID)
	if err := st.SaveSnapshot(jobID, snap); err != nil {
		slog.Error("Failed to save snapshot", "job_id", jobID, "error", err)
		return
	}
	slog.Info("Snapshot saved", "job_id", jobID, "round", snap.Round, "best_value", snap.BestValue)
}
