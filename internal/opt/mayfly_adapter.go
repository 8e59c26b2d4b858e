package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter. popSize must be at least
// 20 for the library to run.
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
//
// The library only supports one scalar bound for all dimensions, so the
// search runs on the unit cube and every candidate is mapped onto the
// per-dimension box before evaluation.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	b := box{lower: lower, upper: upper}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 { return eval(b.toBounds(u)) }
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("Mayfly optimization failed, returning box center", "error", err)
		x := b.toBounds(fill(dim, 0.5))
		return x, eval(x)
	}

	return b.toBounds(result.GlobalBest.Position), result.GlobalBest.Cost
}
