package variable

import (
	"fmt"
	"math"
)

// Continuous is a real-valued variable discretized over a strictly ascending support.
type Continuous struct {
	*quantitative
}

// NewContinuous creates a continuous variable. Without WithValues or WithRange
// the support is 0, 0.01, ..., 0.99.
func NewContinuous(opts ...Option) (*Continuous, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}

	x := cfg.values
	if x == nil {
		x = Arange(0, 1, 0.01)
	}
	if err := checkAscending(x); err != nil {
		return nil, err
	}

	q, err := newQuantitative(KindContinuous, x, initialScores(cfg, len(x)), cfg)
	if err != nil {
		return nil, err
	}
	return &Continuous{q}, nil
}

// initialScores expands the configured scores to one per point.
func initialScores(cfg *config, n int) []float64 {
	if cfg.scores != nil {
		return append([]float64(nil), cfg.scores...)
	}
	s := make([]float64, n)
	for i := range s {
		s[i] = cfg.score
	}
	return s
}

func checkAscending(x []float64) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: support is empty", ErrUnsorted)
	}
	if len(x) > MaxSupportSize {
		return fmt.Errorf("%w: %d support points exceed the limit of %d", ErrInvalidOption, len(x), MaxSupportSize)
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: support value %v is not finite", ErrInvalidOption, v)
		}
	}
	if span := x[len(x)-1] - x[0]; math.IsInf(span, 0) {
		return fmt.Errorf("%w: support span overflows", ErrInvalidOption)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return fmt.Errorf("%w: value %v at position %d follows %v", ErrUnsorted, x[i], i, x[i-1])
		}
	}
	return nil
}
