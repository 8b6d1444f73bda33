package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the Mayfly library to conform to the Optimizer interface.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter.
// popSize must be at least 20 for mayfly v0.1.0.
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes Mayfly on the unit cube and maps every candidate onto
// [lower[i], upper[i]], since the library only supports scalar bounds.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	scaled := func(u []float64) []float64 {
		return Denormalize(u, lower, upper)
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 { return eval(scaled(u)) }
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("Mayfly optimization failed, using lower bounds", "error", err)
		x := scaled(make([]float64, dim))
		return x, eval(x)
	}

	return scaled(result.GlobalBest.Position), result.GlobalBest.Cost
}

// Denormalize maps u from the unit cube onto the box [lower, upper],
// clamping coordinates outside [0, 1].
func Denormalize(u, lower, upper []float64) []float64 {
	x := make([]float64, len(u))
	for i, v := range u {
		v = min(max(v, 0), 1)
		x[i] = lower[i] + v*(upper[i]-lower[i])
	}
	return x
}
