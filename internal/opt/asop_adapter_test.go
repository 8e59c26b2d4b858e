package opt

import (
	"math"
	"testing"
)

func TestASOPAdapterOnSphere(t *testing.T) {
	optimizer := NewASOP(40, 50, 201, 42) // rounds, popSize, points, seed

	dim := 3
	lower := []float64{-10, -10, -10}
	upper := []float64{10, 10, 10}

	best, cost := optimizer.Run(sphere, lower, upper, dim)

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}
	if cost != sphere(best) {
		t.Errorf("Returned cost %f does not match parameters (%f)", cost, sphere(best))
	}
	if cost > 5 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}
	for i, v := range best {
		if v < lower[i] || v > upper[i] {
			t.Errorf("Parameter %d = %f outside bounds", i, v)
		}
	}
}

func TestASOPAdapterPerDimensionBounds(t *testing.T) {
	optimizer := NewASOP(10, 20, 101, 7)

	lower := []float64{0, 100}
	upper := []float64{1, 200}
	best, _ := optimizer.Run(sphere, lower, upper, 2)

	if best[0] < 0 || best[0] > 1 || best[1] < 100 || best[1] > 200 {
		t.Errorf("Parameters %v outside per-dimension bounds", best)
	}
	// The optimum on this box is at the lower corner of the second axis
	if best[1] > 150 {
		t.Errorf("Expected the second parameter in the lower half, got %f", best[1])
	}
}

func TestASOPAdapterDeterministic(t *testing.T) {
	lower := []float64{-5, -5}
	upper := []float64{5, 5}

	_, cost1 := NewASOP(10, 20, 101, 123).Run(sphere, lower, upper, 2)
	_, cost2 := NewASOP(10, 20, 101, 123).Run(sphere, lower, upper, 2)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestASOPAdapterInvalidBox(t *testing.T) {
	// An empty range cannot be discretized; the adapter falls back to the box center
	best, cost := NewASOP(5, 10, 11, 1).Run(sphere, []float64{1, 1}, []float64{1, 2}, 2)
	if len(best) != 2 || best[0] != 1 || best[1] != 1.5 {
		t.Errorf("Expected box center fallback, got %v", best)
	}
	if math.Abs(cost-sphere(best)) > 1e-12 {
		t.Errorf("Expected cost of the fallback point, got %f", cost)
	}
}
