package me

import (
	"image"
	"math"
)

// DefaultEarlyExit is the SAD below which exhaustive search stops scanning.
const DefaultEarlyExit = 50

// DefaultStep is the initial step of the coarse-to-fine step search.
const DefaultStep = 4

// BoundaryPolicy decides whether a candidate block lies inside the frame.
type BoundaryPolicy int

const (
	// BoundsStrict rejects candidates touching the last row or column
	// (nx+bs < w). It reproduces the reference motion fields exactly.
	BoundsStrict BoundaryPolicy = iota
	// BoundsInclusive accepts every candidate fully inside the frame (nx+bs <= w).
	BoundsInclusive
)

func (b BoundaryPolicy) String() string {
	switch b {
	case BoundsStrict:
		return "strict"
	case BoundsInclusive:
		return "inclusive"
	default:
		return "unknown"
	}
}

// Contains reports whether the bw x bh block at (nx, ny) is a valid
// candidate in a w x h frame.
func (b BoundaryPolicy) Contains(w, h, nx, ny, bw, bh int) bool {
	if nx < 0 || ny < 0 {
		return false
	}
	if b == BoundsInclusive {
		return nx+bw <= w && ny+bh <= h
	}
	return nx+bw < w && ny+bh < h
}

// StepSchedule returns the classic three-pass schedule step, step/2, step/4.
func StepSchedule(step int) []int {
	return []int{step, step / 2, step / 4}
}

// Params configures a single block search.
type Params struct {
	BlockSize   int
	SearchRange int
	// EarlyExit stops exhaustive search once a candidate SAD is strictly below it.
	EarlyExit int
	// Steps is the step-search pass schedule.
	Steps  []int
	Bounds BoundaryPolicy
}

// DefaultParams returns the reference configuration: 16x16 blocks,
// range 16, early exit at 50, steps 4/2/1, strict bounds.
func DefaultParams() Params {
	return Params{
		BlockSize:   16,
		SearchRange: 16,
		EarlyExit:   DefaultEarlyExit,
		Steps:       StepSchedule(DefaultStep),
		Bounds:      BoundsStrict,
	}
}

// Result is the outcome of one block search.
type Result struct {
	Vector Vector
	// Cost is the SAD of Vector, or -1 when no candidate was inside the frame.
	Cost int
	// Points counts every candidate considered, including ones rejected by the
	// boundary policy.
	Points int
}

// match is a candidate vector and its cost.
type match struct {
	v    Vector
	cost int
}

// noMatch is the running best before any valid candidate was seen.
var noMatch = match{cost: math.MaxInt}

func (m match) result(points int) Result {
	cost := m.cost
	if cost == math.MaxInt {
		cost = -1
	}
	return Result{Vector: m.v, Cost: cost, Points: points}
}

// blockMatcher evaluates candidate vectors for one current-frame block.
type blockMatcher struct {
	prev, curr *Frame
	at         image.Point
	bw, bh     int
	bounds     BoundaryPolicy
}

func newBlockMatcher(prev, curr *Frame, at image.Point, p Params) blockMatcher {
	bw, bh := curr.BlockDims(at.X, at.Y, p.BlockSize)
	return blockMatcher{prev: prev, curr: curr, at: at, bw: bw, bh: bh, bounds: p.Bounds}
}

// cost returns the SAD of the candidate displaced by v, and false when the
// candidate is outside the previous frame.
func (bm blockMatcher) cost(v Vector) (int, bool) {
	if bm.bw <= 0 || bm.bh <= 0 {
		return 0, false
	}
	nx, ny := bm.at.X+v.DX, bm.at.Y+v.DY
	if !bm.bounds.Contains(bm.prev.Width, bm.prev.Height, nx, ny, bm.bw, bm.bh) {
		return 0, false
	}
	return SAD(bm.curr, bm.prev, bm.at, image.Pt(nx, ny), bm.bw, bm.bh), true
}
