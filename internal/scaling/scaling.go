// Package scaling converts raw objective values into bounded, signed learning signals.
//
// Every scaler is a pure function of its input. Scale handles a single value and
// ScaleAll maps a slice to a new slice of the same length.
package scaling

import (
	"errors"
	"fmt"
	"math"
)

// Func is a numeric transform applied to objective values before learning.
type Func interface {
	Scale(x float64) float64
	ScaleAll(xs []float64) []float64
}

var (
	// ErrConstruction is wrapped by every parameter error raised by a constructor.
	ErrConstruction = errors.New("scaling: invalid parameters")
	// ErrZeroSlope is returned by NewLinear when a == 0.
	ErrZeroSlope = fmt.Errorf("%w: slope cannot be zero", ErrConstruction)
	// ErrZeroSteepness is returned by sigmoid constructors when steepness == 0.
	ErrZeroSteepness = fmt.Errorf("%w: steepness cannot be zero", ErrConstruction)
	// ErrNonFiniteParameter is returned when a constructor gets a NaN or infinite parameter.
	ErrNonFiniteParameter = fmt.Errorf("%w: parameters must be finite", ErrConstruction)
)

func finite(params ...float64) error {
	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w (got %v)", ErrNonFiniteParameter, params)
		}
	}
	return nil
}

func scaleAll(f func(float64) float64, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}

// Linear computes y = A*x + B.
type Linear struct {
	A, B float64
}

// NewLinear returns a linear scaler. A zero slope is rejected.
func NewLinear(a, b float64) (Linear, error) {
	if err := finite(a, b); err != nil {
		return Linear{}, err
	}
	if a == 0 {
		return Linear{}, ErrZeroSlope
	}
	return Linear{A: a, B: b}, nil
}

func (l Linear) Scale(x float64) float64 { return l.A*x + l.B }

func (l Linear) ScaleAll(xs []float64) []float64 { return scaleAll(l.Scale, xs) }

// Tanh computes y = tanh(Steepness * (x - X50)).
//
// The output is 0 at X50 and lies in (-1, 1). A positive steepness maps larger
// inputs to larger outputs.
type Tanh struct {
	X50       float64
	Steepness float64
}

// NewTanh returns a tanh scaler centered at x50.
func NewTanh(x50, steepness float64) (Tanh, error) {
	if err := finite(x50, steepness); err != nil {
		return Tanh{}, err
	}
	if steepness == 0 {
		return Tanh{}, ErrZeroSteepness
	}
	return Tanh{X50: x50, Steepness: steepness}, nil
}

func (t Tanh) Scale(x float64) float64 { return math.Tanh(t.Steepness * (x - t.X50)) }

func (t Tanh) ScaleAll(xs []float64) []float64 { return scaleAll(t.Scale, xs) }

// Logistic computes y = 1 / (1 + exp(-Steepness * (x - X50))).
//
// The output is 0.5 at X50 and lies in [0, 1]. For very large arguments the
// exponential overflows to +Inf, which yields exactly 0 rather than NaN.
type Logistic struct {
	X50       float64
	Steepness float64
}

// NewLogistic returns a logistic scaler centered at x50.
func NewLogistic(x50, steepness float64) (Logistic, error) {
	if err := finite(x50, steepness); err != nil {
		return Logistic{}, err
	}
	if steepness == 0 {
		return Logistic{}, ErrZeroSteepness
	}
	return Logistic{X50: x50, Steepness: steepness}, nil
}

func (l Logistic) Scale(x float64) float64 {
	return 1 / (1 + math.Exp(-l.Steepness*(x-l.X50)))
}

func (l Logistic) ScaleAll(xs []float64) []float64 { return scaleAll(l.Scale, xs) }
