// Package opt defines the black-box optimizer used for parameter tuning.
package opt

// Optimizer minimises an objective over a box-bounded parameter space.
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: per-dimension parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
