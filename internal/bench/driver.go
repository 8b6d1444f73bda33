package bench

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/cwbudde/motionbench/internal/me"
	"github.com/cwbudde/motionbench/internal/recon"
)

// AlgorithmResult aggregates one strategy over every frame pair of a run.
type AlgorithmResult struct {
	Strategy                string  `json:"strategy"`
	AvgPSNR                 float64 `json:"avg_psnr"`
	RuntimeSeconds          float64 `json:"runtime_seconds"`
	AvgSearchPointsPerBlock float64 `json:"avg_search_points_per_block"`
	FramePairs              int     `json:"frame_pairs"`
	BlocksPerFrame          int     `json:"blocks_per_frame"`
	TotalSearchPoints       int64   `json:"total_search_points"`
}

// PairStats describes one processed frame pair.
type PairStats struct {
	Strategy     string
	Pair         int
	Pairs        int
	PSNR         float64
	SearchPoints int
	Elapsed      time.Duration

	Field     *me.MotionField
	Predicted *me.Frame
}

// Observer is called synchronously after each frame pair.
type Observer func(PairStats)

// Driver runs strategies over a frame sequence.
type Driver struct {
	cfg       Config
	params    me.Params
	observers []Observer
}

// NewDriver validates cfg and returns a driver for it.
func NewDriver(cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{cfg: cfg, params: cfg.Params()}, nil
}

// Config returns the driver's configuration.
func (d *Driver) Config() Config {
	return d.cfg
}

// Observe registers fn to receive per-pair statistics.
func (d *Driver) Observe(fn Observer) {
	d.observers = append(d.observers, fn)
}

// Compare runs each named strategy in order. Every name is resolved before
// the first run starts, so an unknown name fails without doing any work.
func (d *Driver) Compare(ctx context.Context, frames []*me.Frame, names []string) ([]AlgorithmResult, error) {
	strategies := make([]me.Strategy, len(names))
	for i, name := range names {
		s, err := NewStrategy(name, d.cfg)
		if err != nil {
			return nil, err
		}
		strategies[i] = s
	}

	results := make([]AlgorithmResult, 0, len(strategies))
	for _, s := range strategies {
		res, err := d.Run(ctx, frames, s)
		if err != nil {
			return results, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Run estimates motion for every consecutive frame pair, reconstructs each
// current frame from its predecessor and aggregates PSNR and search points.
// Cancellation is checked between pairs.
func (d *Driver) Run(ctx context.Context, frames []*me.Frame, s me.Strategy) (AlgorithmResult, error) {
	res := AlgorithmResult{Strategy: s.Name()}
	if len(frames) > 0 {
		res.BlocksPerFrame = me.NewMotionField(frames[0].Width, frames[0].Height, d.params.BlockSize).Len()
	}
	pairs := max(len(frames)-1, 0)

	slog.Debug("Running strategy", "strategy", res.Strategy, "pairs", pairs, "workers", d.cfg.Workers)

	start := time.Now()
	var psnrSum float64
	for i := 1; i < len(frames); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		prev, curr := frames[i-1], frames[i]
		if !prev.SameSize(curr) {
			return res, fmt.Errorf("frame %d is %dx%d, previous is %dx%d", i, curr.Width, curr.Height, prev.Width, prev.Height)
		}

		pairStart := time.Now()
		pair := &me.Pair{Index: i - 1, Prev: prev, Curr: curr}
		if prep, ok := s.(me.PairPreparer); ok {
			if err := prep.PreparePair(pair); err != nil {
				return res, fmt.Errorf("pair %d: %w", pair.Index, err)
			}
		}

		field := me.NewMotionField(curr.Width, curr.Height, d.params.BlockSize)
		points := d.estimate(pair, s, field)
		predicted := recon.Compensate(prev, field, d.params.BlockSize)
		psnr := recon.PSNR(curr, predicted)

		psnrSum += psnr
		res.TotalSearchPoints += int64(points)
		res.FramePairs++

		stats := PairStats{
			Strategy:     res.Strategy,
			Pair:         pair.Index,
			Pairs:        pairs,
			PSNR:         psnr,
			SearchPoints: points,
			Elapsed:      time.Since(pairStart),
			Field:        field,
			Predicted:    predicted,
		}
		slog.Debug("Pair done", "strategy", res.Strategy, "pair", pair.Index, "psnr", psnr, "points", points)
		for _, fn := range d.observers {
			fn(stats)
		}
	}
	res.RuntimeSeconds = time.Since(start).Seconds()

	if res.FramePairs > 0 {
		res.AvgPSNR = psnrSum / float64(res.FramePairs)
	}
	if denom := res.BlocksPerFrame * res.FramePairs; denom > 0 {
		res.AvgSearchPointsPerBlock = float64(res.TotalSearchPoints) / float64(denom)
	}

	slog.Info("Strategy complete", "strategy", res.Strategy, "avg_psnr", res.AvgPSNR,
		"runtime_s", res.RuntimeSeconds, "avg_points", res.AvgSearchPointsPerBlock)
	return res, nil
}

// estimate fills field in row-major order and returns the search points spent.
// With more than one worker, rows are searched concurrently and each row
// keeps its own count.
func (d *Driver) estimate(pair *me.Pair, s me.Strategy, field *me.MotionField) int {
	if d.cfg.Workers <= 1 {
		total := 0
		for row := 0; row < field.Rows; row++ {
			total += d.estimateRow(pair, s, field, row)
		}
		return total
	}

	rowPoints := make([]int, field.Rows)
	swg := sizedwaitgroup.New(d.cfg.Workers)
	for row := 0; row < field.Rows; row++ {
		swg.Add()
		go func(row int) {
			defer swg.Done()
			rowPoints[row] = d.estimateRow(pair, s, field, row)
		}(row)
	}
	swg.Wait()

	total := 0
	for _, n := range rowPoints {
		total += n
	}
	return total
}

func (d *Driver) estimateRow(pair *me.Pair, s me.Strategy, field *me.MotionField, row int) int {
	bs := d.params.BlockSize
	points := 0
	for col := 0; col < field.Cols; col++ {
		r := s.Search(pair, image.Pt(col*bs, row*bs), d.params)
		field.Set(row, col, r.Vector)
		points += r.Points
	}
	return points
}
