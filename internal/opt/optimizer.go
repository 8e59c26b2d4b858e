// Package opt puts black-box optimizers behind one interface so they can be
// compared on the same problems.
package opt

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Run minimizes eval over the box [lower_i, upper_i], i < dim, and returns
	// the best parameters and their cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}

// box maps points of the unit cube onto [lower_i, upper_i].
type box struct {
	lower, upper []float64
}

func (b box) toBounds(u []float64) []float64 {
	x := make([]float64, len(u))
	for i, v := range u {
		x[i] = b.lower[i] + v*(b.upper[i]-b.lower[i])
	}
	return x
}
