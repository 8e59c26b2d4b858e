// Package variable implements sampling variables: one optimization dimension
// represented as a probability mass function over a finite support set.
//
// A variable learns in two phases. Accumulate adds one piece of evidence (an
// amount reported at a location, spread by a Gaussian kernel) to the score
// vector without touching the PMF. Commit conditions the scores with the
// variable's Strategy, turns them into a probability factor with
// ProbabilityFromScore, multiplies that factor into the PMF, re-points the
// sampler and clears the scores. Alter with immediate=true is Accumulate
// followed by Commit.
package variable

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Kind identifies the variable family.
type Kind string

const (
	KindContinuous  Kind = "continuous"
	KindInteger     Kind = "integer"
	KindQualitative Kind = "qualitative"
)

// Variable is the capability set the optimizer needs from a dimension.
type Variable interface {
	Name() string
	Kind() Kind
	Strategy() Strategy

	// X returns a copy of the support set.
	X() []float64
	// PDFValues returns a copy of the current PMF, parallel to X.
	PDFValues() []float64
	// Scores returns a copy of the raw evidence received since the last commit.
	Scores() []float64
	// SamplingStd is the default kernel width used by the optimizer.
	SamplingStd() float64

	// Random draws one value from the current PMF.
	Random() float64
	// RandomN draws n independent values.
	RandomN(n int) ([]float64, error)

	// CheckUpdate reports whether Accumulate would accept the arguments.
	CheckUpdate(amount, location, width float64) error
	// Accumulate adds evidence to the score vector.
	Accumulate(amount, location, width float64) error
	// Commit folds the scores into the PMF and clears them.
	Commit() error
	// Alter accumulates and, when immediate is true, commits.
	Alter(amount, location, width float64, immediate bool) error

	// SetPDFValues replaces the PMF, for example when restoring a snapshot.
	SetPDFValues(pdf []float64) error
}

var (
	// ErrUnsorted is returned when a quantitative support is not strictly ascending.
	ErrUnsorted = errors.New("variable: sampling values must be sorted ascendingly without duplicates")
	// ErrDuplicateValues is returned when integer truncation collapses two seed values.
	ErrDuplicateValues = errors.New("variable: sampling values conflict after truncation to integers")
	// ErrScoreLength is returned when per-point scores do not match the support length.
	ErrScoreLength = errors.New("variable: scores must have the same length as the sampling values")
	// ErrUnknownStrategy is returned for an unrecognized probability strategy.
	ErrUnknownStrategy = errors.New("variable: unknown probability calculation strategy")
	// ErrInvalidOption is returned for out-of-range option values.
	ErrInvalidOption = errors.New("variable: invalid option")
	// ErrNegativeWidth is returned when an update uses a negative kernel width.
	ErrNegativeWidth = errors.New("variable: update width must be non-negative")
	// ErrLocationNotFound is returned when an exact (width 0) update targets a value
	// outside the support.
	ErrLocationNotFound = errors.New("variable: location is not in the support")
	// ErrNonFinite is returned when an update argument is NaN or infinite.
	ErrNonFinite = errors.New("variable: update arguments must be finite")
	// ErrInvalidPDF is returned by SetPDFValues for malformed input.
	ErrInvalidPDF = errors.New("variable: pdf values must be non-negative, finite and sum to a positive total")
	// ErrNotImplemented is returned for variable families that are not supported.
	ErrNotImplemented = errors.New("variable: not implemented")
)

// Strategy selects how raw scores are conditioned before they become probabilities.
type Strategy int

const (
	// Standardized subtracts the mean and divides by the population standard
	// deviation when it is non-zero.
	Standardized Strategy = iota
	// Raw uses scores unmodified.
	Raw
	// Centered subtracts the mean.
	Centered
)

func (s Strategy) String() string {
	switch s {
	case Raw:
		return "RAW"
	case Centered:
		return "CENTERED"
	case Standardized:
		return "STANDARDIZED"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts RAW, CENTERED or STANDARDIZED in any case.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RAW":
		return Raw, nil
	case "CENTERED":
		return Centered, nil
	case "STANDARDIZED", "":
		return Standardized, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

func (s Strategy) valid() bool {
	return s == Raw || s == Centered || s == Standardized
}

// logitBound is the magnitude beyond which the logistic saturates to exactly 0 or 1.
var logitBound = -math.Log(epsilon)

const epsilon = 2.220446049250313e-16 // float64 machine epsilon

// ProbabilityFromScore converts scores into a probability vector: each score is
// passed through a logistic that saturates beyond ±ln(1/eps), and the result is
// L1-normalized. An all-zero result becomes uniform.
func ProbabilityFromScore(scores []float64) []float64 {
	p := make([]float64, len(scores))
	for i, s := range scores {
		switch {
		case s > logitBound:
			p[i] = 1
		case s < -logitBound:
			p[i] = 0
		default:
			p[i] = 1 / (1 + math.Exp(-s))
		}
	}
	normalizeOrUniform(p)
	return p
}

// normalizeOrUniform scales p to sum to one, or fills it uniformly when the sum is zero.
func normalizeOrUniform(p []float64) {
	if len(p) == 0 {
		return
	}
	sum := floats.Sum(p)
	if sum > 0 {
		floats.Scale(1/sum, p)
		return
	}
	u := 1 / float64(len(p))
	for i := range p {
		p[i] = u
	}
}

// Uniform returns n equal weights summing to one.
func Uniform(n int) []float64 {
	p := make([]float64, n)
	normalizeOrUniform(p)
	return p
}
