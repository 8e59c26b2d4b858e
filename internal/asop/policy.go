package asop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bgbg/asop/internal/scaling"
)

// DefaultAutoYHigh is the level the largest value of the first learned batch
// maps to under automatic scaling.
const DefaultAutoYHigh = 0.8

type policyState int

const (
	policyOff policyState = iota
	policyFixed
	policyPendingAuto
	policyResolvedAuto
)

// ScalingPolicy decides how objective values are transformed before learning.
//
// It is one of: off (raw values), fixed (a caller supplied scaling.Func),
// pending auto (a tanh scaler will be fitted to the extrema of the first
// learned batch) or resolved auto (that fitted scaler, frozen). A pending auto
// policy resolves exactly once and never reverts.
type ScalingPolicy struct {
	state policyState
	fn    scaling.Func
	yHigh float64
}

// ScalingNone learns from raw objective values.
func ScalingNone() ScalingPolicy { return ScalingPolicy{state: policyOff} }

// ScalingFixed learns from f(value).
func ScalingFixed(f scaling.Func) ScalingPolicy {
	if f == nil {
		return ScalingNone()
	}
	return ScalingPolicy{state: policyFixed, fn: f}
}

// ScalingAuto calibrates a tanh scaler on the first learned batch with yHigh 0.8.
func ScalingAuto() ScalingPolicy { return ScalingAutoWith(DefaultAutoYHigh) }

// ScalingAutoWith calibrates a tanh scaler on the first learned batch so that
// the batch maximum maps to yHigh and the minimum to -yHigh.
func ScalingAutoWith(yHigh float64) ScalingPolicy {
	return ScalingPolicy{state: policyPendingAuto, yHigh: yHigh}
}

// Func returns the active scaler, or nil when values are used raw or auto
// calibration has not happened yet.
func (p ScalingPolicy) Func() scaling.Func { return p.fn }

// Pending reports whether the policy is waiting for its calibration batch.
func (p ScalingPolicy) Pending() bool { return p.state == policyPendingAuto }

func (p ScalingPolicy) validate() error {
	if p.state == policyPendingAuto && !(p.yHigh > 0 && p.yHigh < 1) {
		return fmt.Errorf("%w (got %v)", scaling.ErrYHighRange, p.yHigh)
	}
	return nil
}

// apply scales values and returns the policy to keep afterwards. The receiver
// is never modified, so a failed learn call leaves the optimizer untouched.
func (p ScalingPolicy) apply(values []float64) ([]float64, ScalingPolicy, error) {
	switch p.state {
	case policyFixed, policyResolvedAuto:
		return p.fn.ScaleAll(values), p, nil
	case policyPendingAuto:
		t, err := scaling.TanhFromValueExtrema(values, p.yHigh)
		if err != nil {
			return nil, p, fmt.Errorf("auto scaling: %w", err)
		}
		next := ScalingPolicy{state: policyResolvedAuto, fn: t, yHigh: p.yHigh}
		return t.ScaleAll(values), next, nil
	}
	return append([]float64(nil), values...), p, nil
}

// String renders the policy in the form accepted by ParseScaling. A resolved
// auto policy renders as its fitted tanh scaler.
func (p ScalingPolicy) String() string {
	switch p.state {
	case policyOff:
		return "none"
	case policyPendingAuto:
		if p.yHigh == DefaultAutoYHigh {
			return "auto"
		}
		return "auto:" + ftoa(p.yHigh)
	}
	switch f := p.fn.(type) {
	case scaling.Linear:
		return "linear:" + ftoa(f.A) + "," + ftoa(f.B)
	case scaling.Tanh:
		return "tanh:" + ftoa(f.X50) + "," + ftoa(f.Steepness)
	case scaling.Logistic:
		return "logistic:" + ftoa(f.X50) + "," + ftoa(f.Steepness)
	}
	return fmt.Sprintf("custom(%T)", p.fn)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// ParseScaling parses "none", "auto", "auto:<yHigh>", "linear:<a>,<b>",
// "tanh:<x50>,<steepness>" or "logistic:<x50>,<steepness>".
func ParseScaling(s string) (ScalingPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	kind, args, _ := strings.Cut(s, ":")

	var params []float64
	if args != "" {
		for _, a := range strings.Split(args, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
			if err != nil {
				return ScalingPolicy{}, fmt.Errorf("%w: %q: %v", ErrInvalidScaling, s, err)
			}
			params = append(params, v)
		}
	}
	want := func(n int) error {
		if len(params) != n {
			return fmt.Errorf("%w: %q needs %d parameters", ErrInvalidScaling, s, n)
		}
		return nil
	}

	switch kind {
	case "", "none":
		return ScalingNone(), want(0)
	case "auto":
		if len(params) == 0 {
			return ScalingAuto(), nil
		}
		if err := want(1); err != nil {
			return ScalingPolicy{}, err
		}
		p := ScalingAutoWith(params[0])
		return p, p.validate()
	case "linear":
		if err := want(2); err != nil {
			return ScalingPolicy{}, err
		}
		f, err := scaling.NewLinear(params[0], params[1])
		return ScalingFixed(f), err
	case "tanh":
		if err := want(2); err != nil {
			return ScalingPolicy{}, err
		}
		f, err := scaling.NewTanh(params[0], params[1])
		return ScalingFixed(f), err
	case "logistic":
		if err := want(2); err != nil {
			return ScalingPolicy{}, err
		}
		f, err := scaling.NewLogistic(params[0], params[1])
		return ScalingFixed(f), err
	}
	return ScalingPolicy{}, fmt.Errorf("%w: %q", ErrInvalidScaling, s)
}
