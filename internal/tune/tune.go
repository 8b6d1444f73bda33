// Package tune searches benchmark parameters that trade prediction quality
// against search cost.
package tune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/me"
	"github.com/cwbudde/motionbench/internal/opt"
)

// Dimensions of the search space, in parameter vector order.
const (
	dimEarlyExit = iota
	dimLowCut
	dimCutGap
	numDims
)

// Bounds of each tuned parameter. high_cut is searched as low_cut + gap so
// every candidate keeps the cut points ordered.
var (
	Lower = []float64{0, 0, 0}
	Upper = []float64{400, 40, 60}
)

// Options controls a tuning run.
type Options struct {
	// Lambda weighs average search points per block against PSNR in dB.
	Lambda   float64
	Strategy string
}

// DefaultOptions tunes the adaptive hierarchical strategy with λ = 0.01,
// so 100 search points per block cost as much as 1 dB.
func DefaultOptions() Options {
	return Options{Lambda: 0.01, Strategy: bench.StrategyHierarchical}
}

// Result compares the tuned configuration with the starting one.
type Result struct {
	Config       bench.Config          `json:"config"`
	Best         bench.AlgorithmResult `json:"best"`
	BestCost     float64               `json:"bestCost"`
	Baseline     bench.AlgorithmResult `json:"baseline"`
	BaselineCost float64               `json:"baselineCost"`
	Evaluations  int                   `json:"evaluations"`
}

// Tuner evaluates candidate configurations on a fixed frame set.
type Tuner struct {
	base      bench.Config
	frames    []*me.Frame
	opts      Options
	optimizer opt.Optimizer

	mu    sync.Mutex
	evals int
	err   error
}

// New returns a tuner that starts from base.
func New(base bench.Config, frames []*me.Frame, opts Options, optimizer opt.Optimizer) (*Tuner, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if _, err := bench.CanonicalName(opts.Strategy); err != nil {
		return nil, err
	}
	if len(frames) < 2 {
		return nil, fmt.Errorf("tuning needs at least 2 frames, got %d", len(frames))
	}
	return &Tuner{base: base, frames: frames, opts: opts, optimizer: optimizer}, nil
}

// Cost is the minimised objective: -avg_psnr + λ·avg_search_points_per_block.
func Cost(r bench.AlgorithmResult, lambda float64) float64 {
	return -r.AvgPSNR + lambda*r.AvgSearchPointsPerBlock
}

// Apply returns base with the parameter vector x applied.
func Apply(base bench.Config, x []float64) bench.Config {
	cfg := base
	cfg.EarlyExitThreshold = int(math.Round(x[dimEarlyExit]))
	cfg.TextureRanges.LowCut = x[dimLowCut]
	cfg.TextureRanges.HighCut = x[dimLowCut] + x[dimCutGap]
	return cfg
}

// Run optimizes the parameters. Cancelling ctx makes the remaining
// evaluations fail fast; Run then returns the context error.
func (t *Tuner) Run(ctx context.Context) (*Result, error) {
	baseline, err := t.evaluate(ctx, t.base)
	if err != nil {
		return nil, fmt.Errorf("baseline evaluation failed: %w", err)
	}
	baselineCost := Cost(baseline, t.opts.Lambda)
	slog.Info("Baseline evaluated", "strategy", baseline.Strategy, "avg_psnr", baseline.AvgPSNR,
		"avg_points", baseline.AvgSearchPointsPerBlock, "cost", baselineCost)

	objective := func(x []float64) float64 {
		res, err := t.evaluate(ctx, Apply(t.base, x))
		if err != nil {
			t.recordErr(err)
			return math.Inf(1)
		}
		return Cost(res, t.opts.Lambda)
	}

	bestX, _ := t.optimizer.Run(objective, Lower, Upper, numDims)
	if err := t.firstErr(); err != nil {
		return nil, err
	}

	cfg := Apply(t.base, bestX)
	best, err := t.evaluate(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("final evaluation failed: %w", err)
	}
	bestCost := Cost(best, t.opts.Lambda)

	// The optimizer may never beat the starting point.
	if bestCost > baselineCost {
		cfg, best, bestCost = t.base, baseline, baselineCost
	}

	t.mu.Lock()
	evals := t.evals
	t.mu.Unlock()

	slog.Info("Tuning complete", "evaluations", evals, "baseline_cost", baselineCost, "best_cost", bestCost,
		"early_exit", cfg.EarlyExitThreshold, "low_cut", cfg.TextureRanges.LowCut, "high_cut", cfg.TextureRanges.HighCut)

	return &Result{
		Config:       cfg,
		Best:         best,
		BestCost:     bestCost,
		Baseline:     baseline,
		BaselineCost: baselineCost,
		Evaluations:  evals,
	}, nil
}

func (t *Tuner) evaluate(ctx context.Context, cfg bench.Config) (bench.AlgorithmResult, error) {
	t.mu.Lock()
	t.evals++
	t.mu.Unlock()

	d, err := bench.NewDriver(cfg)
	if err != nil {
		return bench.AlgorithmResult{}, err
	}
	s, err := bench.NewStrategy(t.opts.Strategy, cfg)
	if err != nil {
		return bench.AlgorithmResult{}, err
	}
	return d.Run(ctx, t.frames, s)
}

func (t *Tuner) recordErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

func (t *Tuner) firstErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if errors.Is(t.err, context.Canceled) || errors.Is(t.err, context.DeadlineExceeded) {
		return t.err
	}
	if t.err != nil {
		return fmt.Errorf("evaluation failed: %w", t.err)
	}
	return nil
}
