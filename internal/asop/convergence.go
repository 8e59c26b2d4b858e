package asop

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines when a run stops for lack of progress.
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool

	// Patience is the number of rounds with no significant improvement of the
	// best value before stopping
	Patience int

	// Threshold is the minimum relative improvement that counts as progress.
	// Example: 0.001 = 0.1% improvement required
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  5,
		Threshold: 0.001,
	}
}

// DisabledConvergenceConfig returns a config with convergence detection disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{Enabled: false}
}

// ConvergenceTracker follows the best value of a run, round by round, and
// reports when it has stopped improving.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	direction       Direction
	history         []float64
	best            float64 // best value ever seen
	lastSignificant float64 // last value that was a significant improvement
	staleCount      int     // rounds without significant improvement
}

// NewConvergenceTracker creates a tracker for values optimized in direction d.
func NewConvergenceTracker(config ConvergenceConfig, d Direction) *ConvergenceTracker {
	c := &ConvergenceTracker{config: config, direction: d}
	c.Reset()
	return c
}

// improvement is the relative progress from old to v, positive when v is
// better. Near zero the absolute difference is used instead.
func (c *ConvergenceTracker) improvement(old, v float64) float64 {
	gain := old - v
	if c.direction == Maximize {
		gain = v - old
	}
	denom := math.Abs(old)
	if denom < 1e-12 {
		denom = 1
	}
	return gain / denom
}

// Update records the value of one round and returns true once convergence is detected.
func (c *ConvergenceTracker) Update(value float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, value)
	if len(c.history) == 1 || c.direction.better(value, c.best) {
		c.best = value
	}

	if len(c.history) == 1 {
		c.lastSignificant = value
		return false
	}

	rel := c.improvement(c.lastSignificant, value)
	if rel >= c.config.Threshold {
		c.lastSignificant = value
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_value", c.best,
		)
		return true
	}
	return false
}

// Best returns the best value seen so far
func (c *ConvergenceTracker) Best() float64 { return c.best }

// History returns a copy of the recorded values
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of rounds without improvement
func (c *ConvergenceTracker) StaleCount() int { return c.staleCount }

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.history = []float64{}
	c.staleCount = 0
	c.best = math.Inf(1)
	if c.direction == Maximize {
		c.best = math.Inf(-1)
	}
	c.lastSignificant = c.best
}
