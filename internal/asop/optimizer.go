// Package asop implements the ASOP optimizer: every dimension of the search
// space is a variable.Variable holding a PMF over its support, and the optimizer
// repeatedly samples candidate solutions, evaluates them and shifts probability
// mass toward the better ones.
//
// The optimizer is not safe for concurrent use. Callers that evaluate in
// parallel should use Sample and Learn and serialize access themselves.
package asop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/bgbg/asop/internal/variable"
)

var (
	ErrNilObjective      = errors.New("asop: objective cannot be nil")
	ErrNoObjective       = errors.New("asop: optimizer was created without an objective; use Sample and Learn")
	ErrInvalidDimensions = errors.New("asop: invalid dimensions")
	ErrDuplicateVariable = errors.New("asop: the same variable is used for more than one dimension")
	ErrInvalidDirection  = errors.New("asop: invalid direction")
	ErrInvalidScaling    = errors.New("asop: invalid scaling")
	ErrNonPositiveCount  = errors.New("asop: count must be positive")
	ErrNegativeCount     = errors.New("asop: count cannot be negative")
	ErrLengthMismatch    = errors.New("asop: solutions and values differ in length")
	ErrDimensionMismatch = errors.New("asop: solution length differs from the number of dimensions")
	ErrNonFiniteValue    = errors.New("asop: objective values must be finite")
)

// Objective maps a solution to a value. Errors abort Train and are returned
// to the caller.
type Objective func(solution []float64) (float64, error)

// Func adapts an infallible objective.
func Func(f func([]float64) float64) Objective {
	if f == nil {
		return nil
	}
	return func(x []float64) (float64, error) { return f(x), nil }
}

// Result is one evaluated solution.
type Result struct {
	Solution []float64 `json:"solution"`
	Value    float64   `json:"value"`
}

// Dimensions describes the search space given to New.
type Dimensions struct {
	count int
	vars  []variable.Variable
	err   error
}

// Count requests n default continuous variables named X0..X{n-1}.
func Count(n int) Dimensions {
	if n <= 0 {
		return Dimensions{err: fmt.Errorf("%w: count must be positive (got %d)", ErrInvalidDimensions, n)}
	}
	return Dimensions{count: n}
}

// CountString parses a dimension count such as "3" or "3.0".
func CountString(s string) Dimensions {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Dimensions{err: fmt.Errorf("%w: %q is not a number", ErrInvalidDimensions, s)}
	}
	if v != math.Trunc(v) || v > math.MaxInt32 {
		return Dimensions{err: fmt.Errorf("%w: %q is not an integer", ErrInvalidDimensions, s)}
	}
	return Count(int(v))
}

// Variables uses the given variables, in order, as the dimensions.
func Variables(vs ...variable.Variable) Dimensions {
	if len(vs) == 0 {
		return Dimensions{err: fmt.Errorf("%w: no variables", ErrInvalidDimensions)}
	}
	for i, v := range vs {
		if v == nil || isNilPointer(v) {
			return Dimensions{err: fmt.Errorf("%w: variable %d is nil", ErrInvalidDimensions, i)}
		}
		for j := 0; j < i; j++ {
			if sameVariable(vs[j], v) {
				return Dimensions{err: fmt.Errorf("%w: positions %d and %d", ErrDuplicateVariable, j, i)}
			}
		}
	}
	return Dimensions{vars: append([]variable.Variable(nil), vs...)}
}

func isNilPointer(v variable.Variable) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func sameVariable(a, b variable.Variable) bool {
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

func (d Dimensions) build(seed uint64) ([]variable.Variable, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.vars != nil {
		return d.vars, nil
	}
	if d.count == 0 {
		return nil, fmt.Errorf("%w: no dimensions given", ErrInvalidDimensions)
	}
	vars := make([]variable.Variable, d.count)
	for i := range vars {
		opts := []variable.Option{variable.WithName(fmt.Sprintf("X%d", i))}
		if seed != 0 {
			opts = append(opts, variable.WithSeed(seed+uint64(i)))
		}
		v, err := variable.NewContinuous(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create dimension %d: %w", i, err)
		}
		vars[i] = v
	}
	return vars, nil
}

// Option configures an Optimizer.
type Option func(*Optimizer) error

// WithDirection sets the optimization direction. The default is Minimize.
func WithDirection(d Direction) Option {
	return func(o *Optimizer) error {
		if !d.valid() {
			return fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
		}
		o.direction = d
		return nil
	}
}

// WithScaling sets the scaling policy. The default is ScalingNone.
func WithScaling(p ScalingPolicy) Option {
	return func(o *Optimizer) error {
		if err := p.validate(); err != nil {
			return err
		}
		o.scaling = p
		return nil
	}
}

// WithSeed seeds the samplers of default variables created from a count.
// Dimension i uses seed+i.
func WithSeed(seed uint64) Option {
	return func(o *Optimizer) error {
		o.seed = seed
		return nil
	}
}

// WithoutObjective creates an ask/tell optimizer driven only by Sample and
// Learn. Train returns ErrNoObjective.
func WithoutObjective() Option {
	return func(o *Optimizer) error {
		o.askTell = true
		return nil
	}
}

// Optimizer coordinates one variable per dimension through the
// sample, evaluate and learn cycle.
type Optimizer struct {
	objective Objective
	askTell   bool
	vars      []variable.Variable
	direction Direction
	scaling   ScalingPolicy
	seed      uint64

	rounds  int
	best    Result
	hasBest bool
}

// New creates an optimizer for objective over dims.
func New(objective Objective, dims Dimensions, opts ...Option) (*Optimizer, error) {
	o := &Optimizer{
		objective: objective,
		direction: Minimize,
		scaling:   ScalingNone(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if objective == nil && !o.askTell {
		return nil, ErrNilObjective
	}

	vars, err := dims.build(o.seed)
	if err != nil {
		return nil, err
	}
	o.vars = vars

	slog.Debug("Optimizer created",
		"dimensions", len(vars),
		"direction", o.direction.String(),
		"scaling", o.scaling.String(),
		"ask_tell", objective == nil,
	)
	return o, nil
}

// Variables returns the dimensions in order. The variables are live: reading
// their PMF is safe, mutating them bypasses the optimizer.
func (o *Optimizer) Variables() []variable.Variable {
	return append([]variable.Variable(nil), o.vars...)
}

// Dimensions returns the number of dimensions.
func (o *Optimizer) Dimensions() int { return len(o.vars) }

// Names returns the dimension names in order.
func (o *Optimizer) Names() []string {
	names := make([]string, len(o.vars))
	for i, v := range o.vars {
		names[i] = v.Name()
	}
	return names
}

func (o *Optimizer) Direction() Direction { return o.direction }

func (o *Optimizer) Scaling() ScalingPolicy { return o.scaling }

// Rounds returns the number of successful Learn calls.
func (o *Optimizer) Rounds() int { return o.rounds }

// Best returns the best observation learned so far.
func (o *Optimizer) Best() (Result, bool) {
	if !o.hasBest {
		return Result{}, false
	}
	return Result{Solution: append([]float64(nil), o.best.Solution...), Value: o.best.Value}, true
}

// Sample draws n solutions. Each dimension is drawn independently from its
// variable's current PMF.
func (o *Optimizer) Sample(n int) ([][]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrNonPositiveCount, n)
	}
	solutions := make([][]float64, n)
	for i := range solutions {
		solutions[i] = make([]float64, len(o.vars))
	}
	for j, v := range o.vars {
		draws, err := v.RandomN(n)
		if err != nil {
			return nil, fmt.Errorf("failed to sample %s: %w", v.Name(), err)
		}
		for i, x := range draws {
			solutions[i][j] = x
		}
	}
	return solutions, nil
}

// Train samples n solutions, evaluates them, learns from them and returns the
// best min(n, nToReturn) of them, best first. Ties keep sampling order.
func (o *Optimizer) Train(ctx context.Context, n, nToReturn int) ([]Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w (got n=%d)", ErrNonPositiveCount, n)
	}
	if nToReturn < 0 {
		return nil, fmt.Errorf("%w (got nToReturn=%d)", ErrNegativeCount, nToReturn)
	}
	if o.objective == nil {
		return nil, ErrNoObjective
	}

	solutions, err := o.Sample(n)
	if err != nil {
		return nil, err
	}

	values := make([]float64, n)
	for i, s := range solutions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := o.objective(append([]float64(nil), s...))
		if err != nil {
			return nil, fmt.Errorf("objective failed on solution %d: %w", i, err)
		}
		values[i] = v
	}

	if err := o.Learn(solutions, values); err != nil {
		return nil, err
	}

	results := make([]Result, n)
	for i := range results {
		results[i] = Result{Solution: solutions[i], Value: values[i]}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return o.direction.better(results[a].Value, results[b].Value)
	})
	return results[:min(n, nToReturn)], nil
}

// Learn updates every variable from externally evaluated solutions.
//
// Values are scaled by the active policy (calibrating it first when automatic
// scaling is still pending), signed by the direction and applied to each
// dimension as a Gaussian bump centered at the solution's component with the
// variable's sampling std. All variables are committed once at the end.
// Every input is validated before any state changes, so a failed call leaves
// the optimizer as it was.
func (o *Optimizer) Learn(solutions [][]float64, values []float64) error {
	if len(solutions) != len(values) {
		return fmt.Errorf("%w: %d solutions, %d values", ErrLengthMismatch, len(solutions), len(values))
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: nothing to learn", ErrNonPositiveCount)
	}
	for i, s := range solutions {
		if len(s) != len(o.vars) {
			return fmt.Errorf("%w: solution %d has %d values, want %d", ErrDimensionMismatch, i, len(s), len(o.vars))
		}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %d is %v", ErrNonFiniteValue, i, v)
		}
	}

	scaled, policy, err := o.scaling.apply(values)
	if err != nil {
		return err
	}
	signal := make([]float64, len(scaled))
	for i, s := range scaled {
		signal[i] = float64(o.direction) * s
	}

	for i, s := range solutions {
		for j, v := range o.vars {
			if err := v.CheckUpdate(signal[i], s[j], v.SamplingStd()); err != nil {
				return fmt.Errorf("solution %d, dimension %s: %w", i, v.Name(), err)
			}
		}
	}

	if policy.state != o.scaling.state {
		slog.Debug("Auto scaling calibrated", "scaling", policy.String())
	}
	o.scaling = policy

	for i, s := range solutions {
		for j, v := range o.vars {
			if err := v.Accumulate(signal[i], s[j], v.SamplingStd()); err != nil {
				return fmt.Errorf("solution %d, dimension %s: %w", i, v.Name(), err)
			}
		}
	}
	for _, v := range o.vars {
		if err := v.Commit(); err != nil {
			return fmt.Errorf("failed to commit %s: %w", v.Name(), err)
		}
	}

	o.rounds++
	for i, v := range values {
		if !o.hasBest || o.direction.better(v, o.best.Value) {
			o.best = Result{Solution: append([]float64(nil), solutions[i]...), Value: v}
			o.hasBest = true
		}
	}

	slog.Debug("Learned batch",
		"round", o.rounds,
		"observations", len(values),
		"best_value", o.best.Value,
	)
	return nil
}
