// Package objective provides standard test functions for exercising optimizers.
//
// Every function accepts any number of dimensions and reduces to the usual
// two-dimensional form for len(x) == 2.
package objective

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bgbg/asop/internal/variable"
	"gonum.org/v1/gonum/floats"
)

// Benchmark describes a test function and the box it is usually searched on.
type Benchmark struct {
	Name  string
	Func  func([]float64) float64
	Lower float64
	Upper float64
	// Minimum is the global minimum of Func in two dimensions.
	Minimum float64
}

// Sphere is sum(x_i^2). Minimum 0 at the origin.
func Sphere(x []float64) float64 {
	return floats.Dot(x, x)
}

// Rosenbrock is sum((1-x_i)^2 + 100(x_{i+1}-x_i^2)^2). Minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i+1 < len(x); i++ {
		a := 1 - x[i]
		b := x[i+1] - x[i]*x[i]
		sum += a*a + 100*b*b
	}
	return sum
}

// Rastrigin is 10n + sum(x_i^2 + 10cos(2πx_i)). Its minima lie near x_i = ±0.5.
func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v + 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

// Sines is 1 + sum(sin^2 x_i) - 0.1exp(-sum(x_i^2)). Minimum 0.9 at the origin.
func Sines(x []float64) float64 {
	var s2 float64
	for _, v := range x {
		s := math.Sin(v)
		s2 += s * s
	}
	return 1 + s2 - 0.1*math.Exp(-floats.Dot(x, x))
}

var registry = map[string]Benchmark{
	"sphere":     {Name: "sphere", Func: Sphere, Lower: -2, Upper: 2, Minimum: 0},
	"rosenbrock": {Name: "rosenbrock", Func: Rosenbrock, Lower: -2, Upper: 2, Minimum: 0},
	"rastrigin":  {Name: "rastrigin", Func: Rastrigin, Lower: -2, Upper: 2, Minimum: 0.497480},
	"sines":      {Name: "sines", Func: Sines, Lower: -2, Upper: 2, Minimum: 0.9},
}

// Lookup returns the benchmark with the given name, case-insensitively.
// "sines2d" is accepted for "sines".
func Lookup(name string) (Benchmark, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "sines2d" {
		key = "sines"
	}
	b, ok := registry[key]
	if !ok {
		return Benchmark{}, fmt.Errorf("unknown benchmark %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return b, nil
}

// Names lists the available benchmarks in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Variables returns one continuous variable per dimension, named X0..X{dim-1},
// each with points support values spanning the benchmark's box. A positive
// stdFraction sets the sampling std relative to the box width. A non-zero seed
// seeds dimension i with seed+i.
func (b Benchmark) Variables(dim, points int, stdFraction float64, seed uint64) ([]variable.Variable, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension count must be positive (got %d)", dim)
	}
	vars := make([]variable.Variable, dim)
	for i := range vars {
		opts := []variable.Option{
			variable.WithName(fmt.Sprintf("X%d", i)),
			variable.WithRange(b.Lower, b.Upper, points),
		}
		if stdFraction > 0 {
			opts = append(opts, variable.WithSamplingStd(stdFraction*(b.Upper-b.Lower)))
		}
		if seed != 0 {
			opts = append(opts, variable.WithSeed(seed+uint64(i)))
		}
		v, err := variable.NewContinuous(opts...)
		if err != nil {
			return nil, fmt.Errorf("dimension %d: %w", i, err)
		}
		vars[i] = v
	}
	return vars, nil
}
