package me

import "image"

// ExhaustiveSearch scans every displacement center+(dx, dy) with dx, dy in
// [-SearchRange, SearchRange], rows (dy) outermost, both ascending.
//
// The first minimum wins ties. As soon as a candidate's SAD is strictly below
// p.EarlyExit the scan stops and the current best is returned. Every visited
// candidate is counted, including those outside the frame. If no candidate is
// inside the frame the result is center.
func ExhaustiveSearch(prev, curr *Frame, anchor image.Point, center Vector, p Params) Result {
	bm := newBlockMatcher(prev, curr, anchor, p)
	best := noMatch
	best.v = center
	points := 0

	r := max(p.SearchRange, 0)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			points++
			v := center.Add(Vector{DX: dx, DY: dy})
			cost, ok := bm.cost(v)
			if !ok {
				continue
			}
			if cost < best.cost {
				best = match{v: v, cost: cost}
			}
			if cost < p.EarlyExit {
				return best.result(points)
			}
		}
	}
	return best.result(points)
}

// StepSearch is the coarse-to-fine search: one 3x3 grid {-s,0,s}^2 per step
// in p.Steps, centred on the cumulative best vector.
//
// The grid center is only counted (and evaluated) on the first pass; later
// centers coincide with the previous pass result. The cumulative best moves
// only when a pass finds a strictly lower SAD. Non-positive steps are skipped.
func StepSearch(prev, curr *Frame, anchor image.Point, p Params) Result {
	bm := newBlockMatcher(prev, curr, anchor, p)
	best := noMatch
	points := 0
	first := true

	for _, s := range p.Steps {
		if s <= 0 {
			continue
		}
		center := best.v
		for _, dx := range [3]int{-s, 0, s} {
			for _, dy := range [3]int{-s, 0, s} {
				if dx == 0 && dy == 0 && !first {
					continue
				}
				points++
				v := center.Add(Vector{DX: dx, DY: dy})
				cost, ok := bm.cost(v)
				if ok && cost < best.cost {
					best = match{v: v, cost: cost}
				}
			}
		}
		first = false
	}
	return best.result(points)
}

var (
	largeDiamond = []Vector{{0, 0}, {0, 2}, {0, -2}, {2, 0}, {-2, 0}}
	// largeDiamondRing is largeDiamond without its center.
	largeDiamondRing = largeDiamond[1:]
	smallDiamond     = []Vector{{0, 0}, {0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

// checkPattern evaluates center+offset for every offset and returns the
// updated best, the number of points counted and whether best improved.
// Candidates with a component beyond limit are counted but not evaluated;
// a negative limit disables that check.
func checkPattern(bm blockMatcher, center Vector, pattern []Vector, best match, limit int) (match, int, bool) {
	improved := false
	for _, off := range pattern {
		v := center.Add(off)
		if limit >= 0 && (abs(v.DX) > limit || abs(v.DY) > limit) {
			continue
		}
		cost, ok := bm.cost(v)
		if ok && cost < best.cost {
			best = match{v: v, cost: cost}
			improved = true
		}
	}
	return best, len(pattern), improved
}

// DiamondSearch runs the large diamond around the origin, repeats the four
// outer large-diamond points around each new best while that keeps improving
// and the best stays within p.SearchRange, then refines once with the small
// diamond. The returned vector never exceeds SearchRange+2 on either axis.
// The ring can leave the range at SearchRange+2 when the range is even; the
// small-diamond points one step further out are then counted but skipped.
func DiamondSearch(prev, curr *Frame, anchor image.Point, p Params) Result {
	bm := newBlockMatcher(prev, curr, anchor, p)
	r := max(p.SearchRange, 0)

	best, points, improved := checkPattern(bm, Vector{}, largeDiamond, noMatch, -1)

	for improved && abs(best.v.DX) <= r && abs(best.v.DY) <= r {
		var n int
		best, n, improved = checkPattern(bm, best.v, largeDiamondRing, best, -1)
		points += n
	}

	best, n, _ := checkPattern(bm, best.v, smallDiamond, best, r+2)
	points += n
	return best.result(points)
}

// HierarchicalSearch runs ExhaustiveSearch coarse to fine over the pyramid
// levels. Level k searches at anchor/2^k with BlockSize/2^k and
// searchRange/2^k, centred on twice the vector found one level up.
// Points are summed over all levels.
func HierarchicalSearch(prevPyr, currPyr Pyramid, anchor image.Point, searchRange int, p Params) Result {
	var v Vector
	total := Result{}
	for level := PyramidLevels - 1; level >= 0; level-- {
		scale := 1 << level
		lp := p
		lp.BlockSize = p.BlockSize / scale
		lp.SearchRange = searchRange / scale
		at := image.Pt(anchor.X/scale, anchor.Y/scale)

		res := ExhaustiveSearch(prevPyr[level], currPyr[level], at, v.Scale(2), lp)
		total.Points += res.Points
		total.Vector = res.Vector
		total.Cost = res.Cost
		v = res.Vector
	}
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
