package variable

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/bgbg/asop/internal/sampler"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// quantitative holds the state shared by continuous and integer variables.
//
// pdf is the cumulative PMF. scores is the evidence accumulated since the last
// commit; a commit turns it into one probability factor for the whole round.
type quantitative struct {
	kind     Kind
	name     string
	x        []float64
	index    map[float64]int
	scores   []float64
	pdf      []float64
	std      float64
	strategy Strategy
	rng      sampler.Sampler
	updates  int
}

func newQuantitative(kind Kind, x, scores []float64, cfg *config) (*quantitative, error) {
	if len(scores) != len(x) {
		return nil, fmt.Errorf("%w: %d values, %d scores", ErrScoreLength, len(x), len(scores))
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: score %d is %v", ErrInvalidOption, i, s)
		}
	}

	q := &quantitative{
		kind:     kind,
		name:     cfg.name,
		x:        x,
		index:    make(map[float64]int, len(x)),
		scores:   scores,
		strategy: cfg.strategy,
		rng:      cfg.sampler,
	}
	for i, v := range x {
		q.index[v] = i
	}

	if cfg.stdSet {
		q.std = cfg.std
	} else {
		// The full range then spans about four standard deviations.
		q.std = (floats.Max(x) - floats.Min(x)) / 4
	}

	q.pdf = ProbabilityFromScore(condition(scores, q.strategy))

	if q.rng == nil {
		q.rng = sampler.NewCategorical(cfg.seed)
	}
	if err := q.rng.SetPMF(q.x, q.pdf); err != nil {
		return nil, fmt.Errorf("failed to initialize sampler: %w", err)
	}

	slog.Debug("Variable created", "kind", kind, "name", q.name, "points", len(x), "sampling_std", q.std)
	return q, nil
}

// condition applies a strategy to a copy of scores.
func condition(scores []float64, s Strategy) []float64 {
	out := append([]float64(nil), scores...)
	if s == Raw || len(out) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(out, nil)
	floats.AddConst(-mean, out)
	if s == Standardized && std != 0 {
		floats.Scale(1/std, out)
	}
	return out
}

func (q *quantitative) Name() string         { return q.name }
func (q *quantitative) Kind() Kind           { return q.kind }
func (q *quantitative) Strategy() Strategy   { return q.strategy }
func (q *quantitative) SamplingStd() float64 { return q.std }

func (q *quantitative) X() []float64         { return append([]float64(nil), q.x...) }
func (q *quantitative) PDFValues() []float64 { return append([]float64(nil), q.pdf...) }
func (q *quantitative) Scores() []float64    { return append([]float64(nil), q.scores...) }

// Updates returns how many updates have been accumulated over the variable's life.
func (q *quantitative) Updates() int { return q.updates }

func (q *quantitative) String() string {
	return fmt.Sprintf("<%s> %q", q.kind, q.name)
}

func (q *quantitative) Random() float64 {
	return q.rng.Draw()
}

func (q *quantitative) RandomN(n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("variable: cannot draw %d values", n)
	}
	return q.rng.DrawN(n), nil
}

func (q *quantitative) CheckUpdate(amount, location, width float64) error {
	if width < 0 {
		return fmt.Errorf("%w (got %v)", ErrNegativeWidth, width)
	}
	for _, v := range [...]float64{amount, location, width} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w (got amount=%v location=%v width=%v)", ErrNonFinite, amount, location, width)
		}
	}
	if width == 0 {
		if _, ok := q.index[location]; !ok {
			return fmt.Errorf("%w: %v", ErrLocationNotFound, location)
		}
	}
	return nil
}

// kernel returns the evidence vector for one update: a Gaussian density centered
// at location with standard deviation width, scaled by amount. Width zero puts
// the whole amount on the exact support slot.
func (q *quantitative) kernel(amount, location, width float64) []float64 {
	k := make([]float64, len(q.x))
	if width == 0 {
		k[q.index[location]] = amount
		return k
	}
	n := distuv.Normal{Mu: location, Sigma: width}
	for i, v := range q.x {
		k[i] = amount * n.Prob(v)
	}
	return k
}

func (q *quantitative) Accumulate(amount, location, width float64) error {
	if err := q.CheckUpdate(amount, location, width); err != nil {
		return err
	}
	floats.Add(q.scores, q.kernel(amount, location, width))
	q.updates++
	return nil
}

// Commit conditions the accumulated scores with the strategy, converts them
// with ProbabilityFromScore and multiplies the result into the PMF. The product
// is renormalized, or reset to uniform if it vanishes everywhere. Scores are
// cleared afterwards.
func (q *quantitative) Commit() error {
	next := make([]float64, len(q.pdf))
	floats.MulTo(next, q.pdf, ProbabilityFromScore(condition(q.scores, q.strategy)))
	normalizeOrUniform(next)

	if err := q.rng.SetPMF(q.x, next); err != nil {
		return fmt.Errorf("failed to update sampler: %w", err)
	}
	q.pdf = next
	q.reset()
	return nil
}

func (q *quantitative) reset() {
	for i := range q.scores {
		q.scores[i] = 0
	}
}

func (q *quantitative) Alter(amount, location, width float64, immediate bool) error {
	if err := q.Accumulate(amount, location, width); err != nil {
		return err
	}
	if immediate {
		return q.Commit()
	}
	return nil
}

func (q *quantitative) SetPDFValues(pdf []float64) error {
	if len(pdf) != len(q.x) {
		return fmt.Errorf("%w: %d values for %d support points", ErrInvalidPDF, len(pdf), len(q.x))
	}
	for _, p := range pdf {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return ErrInvalidPDF
		}
	}
	next := append([]float64(nil), pdf...)
	if floats.Sum(next) <= 0 {
		return ErrInvalidPDF
	}
	normalizeOrUniform(next)

	if err := q.rng.SetPMF(q.x, next); err != nil {
		return fmt.Errorf("failed to update sampler: %w", err)
	}
	q.pdf = next
	q.reset()
	return nil
}
