package variable

import (
	"fmt"
	"math"

	"github.com/bgbg/asop/internal/sampler"
)

// DefaultAbsentScore is the initial score given to integers that fill gaps between
// the seed values of an integer variable. It keeps their probability close to
// zero while leaving them sampleable.
const DefaultAbsentScore = -1000.0

// DefaultRangePoints is the support size used by WithRange when n <= 0.
const DefaultRangePoints = 1000

// MaxSupportSize bounds the number of support points of one variable, including
// the gap integers an integer variable fills in.
const MaxSupportSize = 1 << 20

// Option configures a variable at construction time.
type Option func(*config) error

type config struct {
	name        string
	values      []float64
	scores      []float64
	score       float64
	std         float64
	stdSet      bool
	strategy    Strategy
	sampler     sampler.Sampler
	seed        uint64
	absentScore float64
}

func defaultConfig() *config {
	return &config{
		strategy:    Standardized,
		absentScore: DefaultAbsentScore,
	}
}

func (c *config) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(c *config) error {
		c.name = name
		return nil
	}
}

// WithValues sets the support set. Quantitative supports must be strictly ascending.
func WithValues(values []float64) Option {
	return func(c *config) error {
		c.values = append([]float64(nil), values...)
		return nil
	}
}

// WithRange sets the support to n evenly spaced points covering [lo, hi].
func WithRange(lo, hi float64, n int) Option {
	return func(c *config) error {
		if n <= 0 {
			n = DefaultRangePoints
		}
		if n > MaxSupportSize {
			return fmt.Errorf("%w: %d points exceed the limit of %d", ErrInvalidOption, n, MaxSupportSize)
		}
		if math.IsInf(hi-lo, 0) || math.IsNaN(hi-lo) {
			return fmt.Errorf("%w: range [%v, %v] is not finite", ErrInvalidOption, lo, hi)
		}
		if !(hi > lo) {
			return fmt.Errorf("%w: range [%v, %v] is empty", ErrInvalidOption, lo, hi)
		}
		c.values = Linspace(lo, hi, n)
		return nil
	}
}

// WithScores sets one initial score per support point.
func WithScores(scores []float64) Option {
	return func(c *config) error {
		c.scores = append([]float64(nil), scores...)
		return nil
	}
}

// WithInitialScore broadcasts one initial score to every support point.
func WithInitialScore(score float64) Option {
	return func(c *config) error {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return fmt.Errorf("%w: initial score %v", ErrInvalidOption, score)
		}
		c.scores = nil
		c.score = score
		return nil
	}
}

// WithSamplingStd sets the kernel width the optimizer uses for this variable.
// Zero is allowed and requests exact-slot updates.
func WithSamplingStd(std float64) Option {
	return func(c *config) error {
		if std < 0 || math.IsNaN(std) || math.IsInf(std, 0) {
			return fmt.Errorf("%w: sampling std %v", ErrInvalidOption, std)
		}
		c.std = std
		c.stdSet = true
		return nil
	}
}

// WithStrategy sets the probability calculation strategy.
func WithStrategy(s Strategy) Option {
	return func(c *config) error {
		if !s.valid() {
			return fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
		}
		c.strategy = s
		return nil
	}
}

// WithSampler injects the sampler used for draws.
func WithSampler(s sampler.Sampler) Option {
	return func(c *config) error {
		c.sampler = s
		return nil
	}
}

// WithSeed seeds the default categorical sampler. Ignored when WithSampler is used.
func WithSeed(seed uint64) Option {
	return func(c *config) error {
		c.seed = seed
		return nil
	}
}

// WithAbsentScore overrides the score given to gap integers of an integer variable.
func WithAbsentScore(score float64) Option {
	return func(c *config) error {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return fmt.Errorf("%w: absent score %v", ErrInvalidOption, score)
		}
		c.absentScore = score
		return nil
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Arange returns values lo, lo+step, ... strictly below hi.
func Arange(lo, hi, step float64) []float64 {
	if step <= 0 || hi <= lo {
		return nil
	}
	n := int(math.Ceil((hi - lo) / step))
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
