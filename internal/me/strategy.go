package me

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// Pair is one previous/current frame pair handed to a Strategy. Pyramids
// are only populated for strategies that implement PairPreparer.
type Pair struct {
	Index       int
	Prev        *Frame
	Curr        *Frame
	PrevPyramid Pyramid
	CurrPyramid Pyramid
}

// Strategy estimates the motion of one block of a frame pair.
// Implementations never mutate the frames.
type Strategy interface {
	Name() string
	Search(pair *Pair, anchor image.Point, p Params) Result
}

// PairPreparer is implemented by strategies that need per-pair state
// (such as pyramids) before the first block is searched.
type PairPreparer interface {
	PreparePair(pair *Pair) error
}

// Exhaustive is the full-window search.
type Exhaustive struct{}

func (Exhaustive) Name() string { return "exhaustive" }

func (Exhaustive) Search(pair *Pair, anchor image.Point, p Params) Result {
	return ExhaustiveSearch(pair.Prev, pair.Curr, anchor, Vector{}, p)
}

// Step is the coarse-to-fine step search.
type Step struct{}

func (Step) Name() string { return "step" }

func (Step) Search(pair *Pair, anchor image.Point, p Params) Result {
	return StepSearch(pair.Prev, pair.Curr, anchor, p)
}

// Diamond is the large/small diamond pattern search.
type Diamond struct{}

func (Diamond) Name() string { return "diamond" }

func (Diamond) Search(pair *Pair, anchor image.Point, p Params) Result {
	return DiamondSearch(pair.Prev, pair.Curr, anchor, p)
}

// Hierarchical searches a three-level pyramid with a per-block search range
// chosen by Ranges from the block's texture score.
//
// The pyramid of a pair's current frame is kept and reused as the previous
// pyramid of the next pair, so each frame is downsampled once per run.
type Hierarchical struct {
	Builder PyramidBuilder
	Texture TextureScorer
	Ranges  RangeSelector

	mu        sync.Mutex
	lastFrame *Frame
	lastPyr   Pyramid
}

// NewHierarchical returns a hierarchical strategy using the given collaborators.
func NewHierarchical(builder PyramidBuilder, texture TextureScorer, ranges RangeSelector) *Hierarchical {
	return &Hierarchical{Builder: builder, Texture: texture, Ranges: ranges}
}

func (h *Hierarchical) Name() string {
	if _, fixed := h.Ranges.(FixedRange); fixed {
		return "hierarchical-fixed"
	}
	return "hierarchical"
}

// PreparePair builds (or reuses) the pyramids of both frames.
func (h *Hierarchical) PreparePair(pair *Pair) error {
	if h.Builder == nil {
		return errors.New("hierarchical search requires a pyramid builder")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.lastFrame == pair.Prev && h.lastFrame != nil {
		pair.PrevPyramid = h.lastPyr
	} else if pair.PrevPyramid, err = h.Builder.Build(pair.Prev); err != nil {
		return fmt.Errorf("failed to build previous pyramid: %w", err)
	}

	if pair.CurrPyramid, err = h.Builder.Build(pair.Curr); err != nil {
		return fmt.Errorf("failed to build current pyramid: %w", err)
	}

	h.lastFrame = pair.Curr
	h.lastPyr = pair.CurrPyramid
	return nil
}

// Search selects the block's range from its texture and runs HierarchicalSearch.
func (h *Hierarchical) Search(pair *Pair, anchor image.Point, p Params) Result {
	var score float64
	if h.Texture != nil {
		score = h.Texture.Score(pair.Curr, anchor, p.BlockSize)
	}
	r := h.Ranges.SelectRange(score)
	return HierarchicalSearch(pair.PrevPyramid, pair.CurrPyramid, anchor, r, p)
}
