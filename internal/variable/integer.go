package variable

import (
	"fmt"
	"math"
)

// Integer is a variable restricted to integers. Its support is always the full
// contiguous range between the smallest and largest seed value; integers that
// were not seeded start with the absent score.
type Integer struct {
	*quantitative
}

// NewInteger creates an integer variable. Seed values are truncated toward zero
// and must stay unique. Without WithValues the support is 0..99.
func NewInteger(opts ...Option) (*Integer, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}

	seeds := cfg.values
	if seeds == nil {
		seeds = Arange(0, 100, 1)
	}
	if err := checkAscending(seeds); err != nil {
		return nil, err
	}

	seen := make(map[float64]bool, len(seeds))
	for i, v := range seeds {
		t := math.Trunc(v)
		if seen[t] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateValues, v)
		}
		seen[t] = true
		seeds[i] = t
	}

	scores := initialScores(cfg, len(seeds))
	if len(scores) != len(seeds) {
		return nil, fmt.Errorf("%w: %d values, %d scores", ErrScoreLength, len(seeds), len(scores))
	}
	x, full, err := densify(seeds, scores, cfg.absentScore)
	if err != nil {
		return nil, err
	}

	q, err := newQuantitative(KindInteger, x, full, cfg)
	if err != nil {
		return nil, err
	}
	return &Integer{q}, nil
}

// densify fills every integer between the first and last seed. seeds must be
// ascending, finite integers.
func densify(seeds, scores []float64, absent float64) (x, full []float64, err error) {
	lo, hi := seeds[0], seeds[len(seeds)-1]
	if hi-lo+1 > MaxSupportSize {
		return nil, nil, fmt.Errorf("%w: integer range [%v, %v] exceeds %d points", ErrInvalidOption, lo, hi, MaxSupportSize)
	}
	n := int(hi-lo) + 1
	x = make([]float64, n)
	full = make([]float64, n)
	for i := range x {
		x[i] = lo + float64(i)
		full[i] = absent
	}
	for i, s := range seeds {
		full[int(s-lo)] = scores[i]
	}
	return x, full, nil
}

// Ints returns the support as ints.
func (v *Integer) Ints() []int {
	out := make([]int, len(v.x))
	for i, x := range v.x {
		out[i] = int(x)
	}
	return out
}
