package scaling

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrCalibration is wrapped by every error raised while fitting a scaler to data.
	ErrCalibration = errors.New("scaling: cannot calibrate from values")
	// ErrYHighRange is returned when yHigh is outside the open interval (0, 1).
	ErrYHighRange = fmt.Errorf("%w: yHigh must be in (0, 1)", ErrCalibration)
	// ErrTooFewValues is returned when fewer than two values are supplied.
	ErrTooFewValues = fmt.Errorf("%w: at least two values are required", ErrCalibration)
	// ErrDegenerateValues is returned when all values are equal.
	ErrDegenerateValues = fmt.Errorf("%w: values must not all be equal", ErrCalibration)
)

// extrema validates a calibration batch and returns its minimum, maximum and midpoint.
func extrema(values []float64, yHigh float64) (lo, hi, mid float64, err error) {
	if !(yHigh > 0 && yHigh < 1) {
		return 0, 0, 0, fmt.Errorf("%w (got %v)", ErrYHighRange, yHigh)
	}
	if len(values) < 2 {
		return 0, 0, 0, fmt.Errorf("%w (got %d)", ErrTooFewValues, len(values))
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, fmt.Errorf("%w: non-finite value %v", ErrCalibration, v)
		}
	}
	lo, hi = floats.Min(values), floats.Max(values)
	if lo == hi {
		return 0, 0, 0, ErrDegenerateValues
	}
	if math.IsInf(hi-lo, 0) {
		return 0, 0, 0, fmt.Errorf("%w: range [%v, %v] overflows", ErrDegenerateValues, lo, hi)
	}
	mid = lo + (hi-lo)/2
	if !(mid > lo && mid < hi) {
		return 0, 0, 0, fmt.Errorf("%w: no midpoint between %v and %v", ErrDegenerateValues, lo, hi)
	}
	return lo, hi, mid, nil
}

// checkSteepness rejects a fitted steepness that cannot be represented.
func checkSteepness(steepness, lo, hi float64) error {
	if steepness == 0 || math.IsNaN(steepness) || math.IsInf(steepness, 0) {
		return fmt.Errorf("%w: range [%v, %v] gives steepness %v", ErrDegenerateValues, lo, hi, steepness)
	}
	return nil
}

// TanhFromValueExtrema fits a Tanh scaler to a batch of observed values so that
// max(values) maps to yHigh and min(values) maps to -yHigh. The center is the
// midpoint of the observed range.
func TanhFromValueExtrema(values []float64, yHigh float64) (Tanh, error) {
	lo, hi, mid, err := extrema(values, yHigh)
	if err != nil {
		return Tanh{}, err
	}
	steepness := -math.Atanh(yHigh) / (mid - hi)
	if err := checkSteepness(steepness, lo, hi); err != nil {
		return Tanh{}, err
	}
	return NewTanh(mid, steepness)
}

// LogisticFromValueExtrema fits a Logistic scaler so that max(values) maps to yHigh
// and min(values) maps to 1-yHigh.
func LogisticFromValueExtrema(values []float64, yHigh float64) (Logistic, error) {
	lo, hi, mid, err := extrema(values, yHigh)
	if err != nil {
		return Logistic{}, err
	}
	// logit(yHigh) = steepness * (hi - mid); symmetry puts 1-yHigh at the minimum.
	logit := math.Log(yHigh / (1 - yHigh))
	if logit == 0 {
		return Logistic{}, fmt.Errorf("%w: yHigh 0.5 gives a flat logistic", ErrCalibration)
	}
	steepness := logit / (hi - mid)
	if err := checkSteepness(steepness, lo, hi); err != nil {
		return Logistic{}, err
	}
	return NewLogistic(mid, steepness)
}
