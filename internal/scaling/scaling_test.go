package scaling

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const tol = 1e-2

func wideValues(rng *rand.Rand, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = math.Exp(rng.NormFloat64() * 4)
	}
	return xs
}

func TestScalersProduceFiniteOutput(t *testing.T) {
	lin, _ := NewLinear(2, 1)
	th, _ := NewTanh(0.5, 1)
	lg, _ := NewLogistic(0.5, 1)
	rng := rand.New(rand.NewSource(1))

	for _, f := range []Func{lin, th, lg} {
		for i := 0; i < 100; i++ {
			xs := wideValues(rng, 1000)
			// Include sign flips so the logistic exponent overflows both ways.
			for j := range xs {
				if j%2 == 0 {
					xs[j] = -xs[j]
				}
			}
			out := f.ScaleAll(xs)
			if len(out) != len(xs) {
				t.Fatalf("%T: expected %d outputs, got %d", f, len(xs), len(out))
			}
			for j, y := range out {
				if math.IsNaN(y) || math.IsInf(y, 0) {
					t.Fatalf("%T: non-finite output %v for input %v", f, y, xs[j])
				}
			}
		}
	}
}

func TestScaleMatchesScaleAll(t *testing.T) {
	th, _ := NewTanh(1, 2)
	xs := []float64{-1, 0, 1, 2, 3}
	out := th.ScaleAll(xs)
	for i, x := range xs {
		if out[i] != th.Scale(x) {
			t.Errorf("ScaleAll[%d] = %v, Scale = %v", i, out[i], th.Scale(x))
		}
	}
}

func TestConstructorsRejectZeroParameters(t *testing.T) {
	if _, err := NewLinear(0, 3); !errors.Is(err, ErrZeroSlope) {
		t.Errorf("NewLinear: expected ErrZeroSlope, got %v", err)
	}
	if _, err := NewTanh(1, 0); !errors.Is(err, ErrZeroSteepness) {
		t.Errorf("NewTanh: expected ErrZeroSteepness, got %v", err)
	}
	if _, err := NewLogistic(1, 0); !errors.Is(err, ErrZeroSteepness) {
		t.Errorf("NewLogistic: expected ErrZeroSteepness, got %v", err)
	}
	if _, err := NewTanh(1, 0); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected error to wrap ErrConstruction, got %v", err)
	}
}

func TestConstructorsRejectNonFiniteParameters(t *testing.T) {
	bad := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, v := range bad {
		constructors := map[string]func() error{
			"linear slope":       func() error { _, err := NewLinear(v, 0); return err },
			"linear intercept":   func() error { _, err := NewLinear(1, v); return err },
			"tanh steepness":     func() error { _, err := NewTanh(0, v); return err },
			"tanh center":        func() error { _, err := NewTanh(v, 1); return err },
			"logistic steepness": func() error { _, err := NewLogistic(0, v); return err },
			"logistic center":    func() error { _, err := NewLogistic(v, 1); return err },
		}
		for name, build := range constructors {
			err := build()
			if !errors.Is(err, ErrNonFiniteParameter) || !errors.Is(err, ErrConstruction) {
				t.Errorf("%s = %v: expected ErrNonFiniteParameter wrapping ErrConstruction, got %v", name, v, err)
			}
		}
	}
}

func TestLinearValues(t *testing.T) {
	l, err := NewLinear(-2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Scale(4); got != -5 {
		t.Errorf("expected -5, got %v", got)
	}
}

func TestTanhReferenceValues(t *testing.T) {
	ref := [][4]float64{
		{-10, 0.01, -11, -0.010},
		{-10, 0.51, -11, -0.466},
		{-10, 1.00, -5.5, 1.000},
		{0, 0.01, 5.5, 0.055},
		{0, 0.51, -5.5, -0.992},
		{0, 1.00, 0, 0.000},
		{10, 0.01, 0, -0.100},
		{10, 0.51, 11, 0.466},
		{10, 1.00, 11, 0.762},
	}
	for _, r := range ref {
		th, err := NewTanh(r[0], r[1])
		if err != nil {
			t.Fatal(err)
		}
		if got := th.Scale(r[2]); math.Abs(got-r[3]) > tol {
			t.Errorf("tanh(x50=%v, s=%v)(%v) = %.3f, expected %.3f", r[0], r[1], r[2], got, r[3])
		}
	}
}

func TestTanhCenterAndMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		x50 := rng.NormFloat64() * 20
		s := rng.NormFloat64() * 5
		if s == 0 {
			continue
		}
		th, _ := NewTanh(x50, s)
		if got := th.Scale(x50); got != 0 {
			t.Fatalf("Scale(x50) = %v, expected 0", got)
		}

		a, b := th.Scale(x50-0.1), th.Scale(x50+0.1)
		if s > 0 && !(a < b) {
			t.Errorf("expected increasing for steepness %v: %v >= %v", s, a, b)
		}
		if s < 0 && !(a > b) {
			t.Errorf("expected decreasing for steepness %v: %v <= %v", s, a, b)
		}
	}
}

func TestLogisticCenter(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		x50 := rng.NormFloat64() * 20
		s := rng.NormFloat64() * 5
		if s == 0 {
			continue
		}
		lg, _ := NewLogistic(x50, s)
		if got := lg.Scale(x50); got != 0.5 {
			t.Fatalf("Scale(x50) = %v, expected 0.5", got)
		}
	}
}

func TestTanhFromValueExtrema(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 1000; i++ {
		values := make([]float64, 100)
		for j := range values {
			if i%2 == 0 {
				values[j] = rng.Float64() * 10
			} else {
				values[j] = math.Exp(rng.NormFloat64() * 10)
			}
		}
		yHigh := rng.Float64()*0.998 + 1e-3

		sc, err := TanhFromValueExtrema(values, yHigh)
		if err != nil {
			t.Fatalf("TanhFromValueExtrema failed: %v", err)
		}

		lo, hi := values[0], values[0]
		for _, v := range values {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if got := sc.Scale(hi); math.Abs(got-yHigh) > tol {
			t.Fatalf("Scale(max) = %v, expected %v", got, yHigh)
		}
		if got := sc.Scale(lo); math.Abs(got+yHigh) > tol {
			t.Fatalf("Scale(min) = %v, expected %v", got, -yHigh)
		}
	}
}

func TestTanhFromValueExtremaErrors(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		yHigh  float64
		want   error
	}{
		{"equal values", []float64{0.3, 0.3, 0.3}, 0.8, ErrDegenerateValues},
		{"single value", []float64{1}, 0.8, ErrTooFewValues},
		{"no values", nil, 0.8, ErrTooFewValues},
		{"yHigh negative", []float64{1, 2}, -0.5, ErrYHighRange},
		{"yHigh zero", []float64{1, 2}, 0, ErrYHighRange},
		{"yHigh one", []float64{1, 2}, 1, ErrYHighRange},
		{"yHigh above one", []float64{1, 2}, 1.5, ErrYHighRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TanhFromValueExtrema(tt.values, tt.yHigh)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrCalibration) {
				t.Errorf("expected error to wrap ErrCalibration, got %v", err)
			}
		})
	}
}

func TestLogisticFromValueExtrema(t *testing.T) {
	values := []float64{3, 7, 12, 5, -4}
	for _, yHigh := range []float64{0.6, 0.8, 0.95, 0.2} {
		sc, err := LogisticFromValueExtrema(values, yHigh)
		if err != nil {
			t.Fatalf("yHigh=%v: %v", yHigh, err)
		}
		if got := sc.Scale(12); math.Abs(got-yHigh) > 1e-9 {
			t.Errorf("Scale(max) = %v, expected %v", got, yHigh)
		}
		if got := sc.Scale(-4); math.Abs(got-(1-yHigh)) > 1e-9 {
			t.Errorf("Scale(min) = %v, expected %v", got, 1-yHigh)
		}
	}

	if _, err := LogisticFromValueExtrema(values, 0.5); !errors.Is(err, ErrCalibration) {
		t.Errorf("expected calibration error for yHigh 0.5, got %v", err)
	}
	if _, err := LogisticFromValueExtrema([]float64{2, 2}, 0.8); !errors.Is(err, ErrDegenerateValues) {
		t.Errorf("expected ErrDegenerateValues, got %v", err)
	}
}

func TestFromValueExtremaUnrepresentableRange(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"adjacent floats", []float64{1, math.Nextafter(1, 2)}},
		{"overflowing span", []float64{-1e308, 1e308}},
		{"subnormal span", []float64{0, 1e-320}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TanhFromValueExtrema(tt.values, 0.8); !errors.Is(err, ErrDegenerateValues) || !errors.Is(err, ErrCalibration) {
				t.Errorf("tanh: expected ErrDegenerateValues, got %v", err)
			}
			if _, err := LogisticFromValueExtrema(tt.values, 0.8); !errors.Is(err, ErrDegenerateValues) {
				t.Errorf("logistic: expected ErrDegenerateValues, got %v", err)
			}
		})
	}
}
