package opt

import (
	"math"
	"testing"
)

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42) // maxIters, popSize, seed

	dim := 3
	lower := []float64{-10, -10, -10}
	upper := []float64{10, 10, 10}

	best, cost := optimizer.Run(sphere, lower, upper, dim)

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}
	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}
	for i, v := range best {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterPerDimensionBounds(t *testing.T) {
	// Minimum at (50, 2), inside very different per-axis ranges.
	shifted := func(x []float64) float64 {
		dx, dy := x[0]-50, x[1]-2
		return dx*dx/100 + dy*dy
	}
	lower := []float64{0, 0}
	upper := []float64{200, 4}

	best, _ := NewMayfly(100, 20, 7).Run(shifted, lower, upper, 2)

	for i := range best {
		if best[i] < lower[i] || best[i] > upper[i] {
			t.Errorf("Parameter %d = %f outside [%f, %f]", i, best[i], lower[i], upper[i])
		}
	}
	if math.Abs(best[0]-50) > 10 || math.Abs(best[1]-2) > 0.5 {
		t.Errorf("Expected near (50, 2), got (%f, %f)", best[0], best[1])
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	dim := 2
	lower := []float64{-5, -5}
	upper := []float64{5, 5}

	// popSize must be >=20 for mayfly v0.1.0
	optimizer1 := NewMayfly(50, 20, 123)
	_, cost1 := optimizer1.Run(sphere, lower, upper, dim)

	optimizer2 := NewMayfly(50, 20, 123)
	_, cost2 := optimizer2.Run(sphere, lower, upper, dim)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestDenormalize(t *testing.T) {
	got := Denormalize([]float64{0, 0.5, 1, -0.2, 1.3}, []float64{0, 10, -1, 5, 5}, []float64{10, 20, 1, 6, 6})
	want := []float64{0, 15, 1, 5, 6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}
