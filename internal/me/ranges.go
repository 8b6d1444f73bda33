package me

// RangeSelector maps a block texture score to a search range.
type RangeSelector interface {
	SelectRange(score float64) int
}

// TieredRange picks Low below LowCut, Mid below HighCut and High otherwise.
// Cut points are half-open: a score equal to LowCut maps to Mid.
type TieredRange struct {
	LowCut  float64 `json:"low_cut"`
	HighCut float64 `json:"high_cut"`
	Low     int     `json:"low"`
	Mid     int     `json:"mid"`
	High    int     `json:"high"`
}

// DefaultTieredRange returns the 5/20 cut points with ranges 4, 8 and 16.
func DefaultTieredRange() TieredRange {
	return TieredRange{LowCut: 5, HighCut: 20, Low: 4, Mid: 8, High: 16}
}

func (t TieredRange) SelectRange(score float64) int {
	switch {
	case score < t.LowCut:
		return t.Low
	case score < t.HighCut:
		return t.Mid
	default:
		return t.High
	}
}

// FixedRange ignores the texture score.
type FixedRange int

func (f FixedRange) SelectRange(float64) int { return int(f) }

// SelectSearchRange applies the default tiers to score.
func SelectSearchRange(score float64) int {
	return DefaultTieredRange().SelectRange(score)
}
