package sampler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws values from an arbitrary discrete PMF defined over a support set.
// Implementations must accept being re-pointed at a new (support, weights) pair
// after every commit of a sampling variable.
type Sampler interface {
	// SetPMF replaces the support and weights used by subsequent draws.
	// Weights must be non-negative, parallel to support, and sum to a positive total.
	SetPMF(support, weights []float64) error

	// Draw returns a single value from the support.
	Draw() float64

	// DrawN returns n independent draws.
	DrawN(n int) []float64
}

var (
	// ErrLengthMismatch is returned when support and weights differ in length.
	ErrLengthMismatch = errors.New("sampler: support and weights must have the same length")
	// ErrEmptySupport is returned when the support is empty.
	ErrEmptySupport = errors.New("sampler: support cannot be empty")
	// ErrInvalidWeights is returned for negative, non-finite or all-zero weights.
	ErrInvalidWeights = errors.New("sampler: weights must be non-negative and sum to a positive total")
)

// Categorical samples support values with a gonum categorical distribution.
// It is not safe for concurrent use.
type Categorical struct {
	src     rand.Source
	support []float64
	dist    distuv.Categorical
}

// NewCategorical creates a sampler seeded with seed. A zero seed derives one from
// the wall clock.
func NewCategorical(seed uint64) *Categorical {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Categorical{src: rand.NewSource(seed)}
}

// SetPMF points the sampler at a new support and weight vector.
func (c *Categorical) SetPMF(support, weights []float64) error {
	if len(support) == 0 {
		return ErrEmptySupport
	}
	if len(support) != len(weights) {
		return fmt.Errorf("%w: %d values, %d weights", ErrLengthMismatch, len(support), len(weights))
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is %v", ErrInvalidWeights, i, w)
		}
	}
	if floats.Sum(weights) <= 0 {
		return ErrInvalidWeights
	}

	c.support = append(c.support[:0], support...)
	c.dist = distuv.NewCategorical(weights, c.src)
	return nil
}

// Draw returns one value. It panics if SetPMF has never succeeded.
func (c *Categorical) Draw() float64 {
	if c.support == nil {
		panic("sampler: Draw called before SetPMF")
	}
	return c.support[int(c.dist.Rand())]
}

// DrawN returns n independent values.
func (c *Categorical) DrawN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = c.Draw()
	}
	return out
}
