package opt

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"github.com/bgbg/asop/internal/asop"
	"github.com/bgbg/asop/internal/variable"
)

// stdFraction is the sampling std of each dimension relative to its range.
const stdFraction = 1.0 / 20

// ASOPAdapter runs the ASOP optimizer with one continuous variable per dimension.
type ASOPAdapter struct {
	rounds  int
	popSize int
	points  int
	seed    uint64
}

// NewASOP creates an adapter that trains for rounds rounds of popSize samples,
// discretizing each dimension into points support values.
func NewASOP(rounds, popSize, points int, seed uint64) Optimizer {
	return &ASOPAdapter{
		rounds:  rounds,
		popSize: popSize,
		points:  points,
		seed:    seed,
	}
}

// Run executes rounds of sampling and learning with automatic tanh scaling.
func (a *ASOPAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	vars := make([]variable.Variable, dim)
	for i := range vars {
		opts := []variable.Option{
			variable.WithName(variableName(i)),
			variable.WithRange(lower[i], upper[i], a.points),
			variable.WithSamplingStd((upper[i] - lower[i]) * stdFraction),
		}
		if a.seed != 0 {
			opts = append(opts, variable.WithSeed(a.seed+uint64(i)))
		}
		v, err := variable.NewContinuous(opts...)
		if err != nil {
			return a.fail(eval, lower, upper, err)
		}
		vars[i] = v
	}

	o, err := asop.New(asop.Func(eval), asop.Variables(vars...), asop.WithScaling(asop.ScalingAuto()))
	if err != nil {
		return a.fail(eval, lower, upper, err)
	}

	res, err := o.Run(context.Background(), asop.RunConfig{
		Rounds:      a.rounds,
		Population:  a.popSize,
		Convergence: asop.DisabledConvergenceConfig(),
	})
	if err != nil {
		// Partial progress is still usable
		if best, ok := o.Best(); ok {
			slog.Warn("ASOP run stopped early", "rounds", res.Rounds, "error", err)
			return best.Solution, best.Value
		}
		return a.fail(eval, lower, upper, err)
	}
	return res.Best.Solution, res.Best.Value
}

func (a *ASOPAdapter) fail(eval func([]float64) float64, lower, upper []float64, err error) ([]float64, float64) {
	slog.Warn("ASOP optimization failed, returning box center", "error", err)
	x := box{lower: lower, upper: upper}.toBounds(fill(len(lower), 0.5))
	if len(x) == 0 {
		return x, math.Inf(1)
	}
	return x, eval(x)
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func variableName(i int) string {
	return "X" + strconv.Itoa(i)
}
