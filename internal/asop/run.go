package asop

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RoundInfo describes one completed round of Run.
type RoundInfo struct {
	Round       int
	RoundBest   Result // best solution sampled this round
	Best        Result // best solution of the whole run so far
	Evaluations int    // objective evaluations so far
	Elapsed     time.Duration
}

// RunConfig controls Run.
type RunConfig struct {
	// Rounds is the maximum number of Train calls
	Rounds int

	// Population is the number of solutions sampled per round
	Population int

	Convergence ConvergenceConfig

	// Hook, if set, is called after each round. A non-nil error stops the run
	// and is returned by Run.
	Hook func(RoundInfo) error
}

// DefaultRunConfig returns a configuration for 100 rounds of 50 samples.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Rounds:      100,
		Population:  50,
		Convergence: DisabledConvergenceConfig(),
	}
}

// RunResult summarizes a finished Run.
type RunResult struct {
	Best        Result        `json:"best"`
	Rounds      int           `json:"rounds"`
	Evaluations int           `json:"evaluations"`
	Converged   bool          `json:"converged"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Run repeats Train until cfg.Rounds is reached, the best value stops
// improving, the hook fails or ctx is done. On cancellation the partial
// result is returned together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	if cfg.Rounds <= 0 || cfg.Population <= 0 {
		return RunResult{}, fmt.Errorf("%w: rounds=%d population=%d", ErrNonPositiveCount, cfg.Rounds, cfg.Population)
	}
	if o.objective == nil {
		return RunResult{}, ErrNoObjective
	}

	tracker := NewConvergenceTracker(cfg.Convergence, o.direction)
	start := time.Now()
	var res RunResult

	slog.Info("Starting run",
		"rounds", cfg.Rounds,
		"population", cfg.Population,
		"dimensions", len(o.vars),
		"direction", o.direction.String(),
	)

	for round := 1; round <= cfg.Rounds; round++ {
		top, err := o.Train(ctx, cfg.Population, 1)
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("round %d: %w", round, err)
		}
		res.Rounds = round
		res.Evaluations += cfg.Population
		res.Best, _ = o.Best()

		if cfg.Hook != nil {
			info := RoundInfo{
				Round:       round,
				RoundBest:   top[0],
				Best:        res.Best,
				Evaluations: res.Evaluations,
				Elapsed:     time.Since(start),
			}
			if err := cfg.Hook(info); err != nil {
				res.Elapsed = time.Since(start)
				return res, fmt.Errorf("round %d hook: %w", round, err)
			}
		}

		if tracker.Update(res.Best.Value) {
			res.Converged = true
			break
		}
	}

	res.Elapsed = time.Since(start)
	slog.Info("Run completed",
		"rounds", res.Rounds,
		"evaluations", res.Evaluations,
		"best_value", res.Best.Value,
		"converged", res.Converged,
		"elapsed", res.Elapsed,
	)
	return res, nil
}
