package me

import (
	"encoding/json"
	"image"
	"testing"
)

func TestTieredRange_SelectRange(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{0, 4},
		{4.999, 4},
		{5, 8},
		{19.999, 8},
		{20, 16},
		{1000, 16},
	}

	for _, tt := range tests {
		if got := SelectSearchRange(tt.score); got != tt.want {
			t.Errorf("SelectSearchRange(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestFixedRange_IgnoresScore(t *testing.T) {
	r := FixedRange(12)
	for _, score := range []float64{0, 5, 500} {
		if got := r.SelectRange(score); got != 12 {
			t.Errorf("FixedRange(12).SelectRange(%v) = %d", score, got)
		}
	}
}

func TestStrategies_Names(t *testing.T) {
	strategies := map[string]Strategy{
		"exhaustive":         Exhaustive{},
		"step":               Step{},
		"diamond":            Diamond{},
		"hierarchical":       NewHierarchical(&decimator{}, constantTexture(0), DefaultTieredRange()),
		"hierarchical-fixed": NewHierarchical(&decimator{}, nil, FixedRange(8)),
	}
	for want, s := range strategies {
		if s.Name() != want {
			t.Errorf("expected name %q, got %q", want, s.Name())
		}
	}
}

func TestHierarchical_ReusesPyramid(t *testing.T) {
	builder := &decimator{}
	h := NewHierarchical(builder, constantTexture(25), DefaultTieredRange())

	frames := []*Frame{
		randomFrame(64, 64, 1),
		randomFrame(64, 64, 2),
		randomFrame(64, 64, 3),
	}

	for i := 1; i < len(frames); i++ {
		pair := &Pair{Index: i - 1, Prev: frames[i-1], Curr: frames[i]}
		if err := h.PreparePair(pair); err != nil {
			t.Fatalf("PreparePair failed: %v", err)
		}
		if pair.PrevPyramid[0] != frames[i-1] || pair.CurrPyramid[0] != frames[i] {
			t.Errorf("pair %d: pyramid level 0 must be the input frame", i)
		}
	}

	// 2 builds for the first pair, 1 for the second.
	if builder.builds != 3 {
		t.Errorf("expected 3 pyramid builds, got %d", builder.builds)
	}
}

func TestHierarchical_RequiresBuilder(t *testing.T) {
	h := NewHierarchical(nil, nil, FixedRange(4))
	pair := &Pair{Prev: randomFrame(8, 8, 1), Curr: randomFrame(8, 8, 2)}
	if err := h.PreparePair(pair); err == nil {
		t.Error("expected error without a pyramid builder")
	}
}

func TestHierarchical_SearchUsesTextureRange(t *testing.T) {
	prev := randomFrame(128, 128, 21)
	curr := shiftedFrame(prev, 8, 8)
	p := DefaultParams()
	p.EarlyExit = 0

	search := func(score float64) Result {
		h := NewHierarchical(&decimator{}, constantTexture(score), DefaultTieredRange())
		pair := &Pair{Prev: prev, Curr: curr}
		if err := h.PreparePair(pair); err != nil {
			t.Fatalf("PreparePair failed: %v", err)
		}
		return h.Search(pair, image.Pt(48, 48), p)
	}

	low := search(1)   // range 4: 3^2 + 5^2 + 9^2
	high := search(50) // range 16: 9^2 + 17^2 + 33^2
	if low.Points != 9+25+81 {
		t.Errorf("low texture: expected %d points, got %d", 9+25+81, low.Points)
	}
	if high.Points != 81+289+1089 {
		t.Errorf("high texture: expected %d points, got %d", 81+289+1089, high.Points)
	}
	if high.Vector != (Vector{8, 8}) {
		t.Errorf("high texture: expected (8,8), got %v", high.Vector)
	}
}

func TestMotionField_Dimensions(t *testing.T) {
	tests := []struct {
		w, h, bs   int
		rows, cols int
	}{
		{176, 144, 16, 9, 11},
		{100, 50, 16, 4, 7},
		{0, 0, 16, 0, 0},
	}
	for _, tt := range tests {
		f := NewMotionField(tt.w, tt.h, tt.bs)
		if f.Rows != tt.rows || f.Cols != tt.cols {
			t.Errorf("%dx%d/%d: expected %dx%d grid, got %dx%d", tt.w, tt.h, tt.bs, tt.rows, tt.cols, f.Rows, f.Cols)
		}
		if f.Len() != tt.rows*tt.cols {
			t.Errorf("expected %d vectors, got %d", tt.rows*tt.cols, f.Len())
		}
	}
}

func TestMotionField_JSONKeys(t *testing.T) {
	data, err := json.Marshal(NewMotionField(32, 32, 16))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"rows", "cols", "block_size", "vectors"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if len(fields) != 4 {
		t.Errorf("expected 4 keys, got %s", data)
	}
}

func TestNewFrame_Validates(t *testing.T) {
	if _, err := NewFrame(4, 4, make([]uint8, 15)); err == nil {
		t.Error("expected error for short pixel buffer")
	}
	if _, err := NewFrame(-1, 4, nil); err == nil {
		t.Error("expected error for negative width")
	}
	if _, err := NewFrame(4, 4, make([]uint8, 16)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFrameFromImage_RoundTrip(t *testing.T) {
	f := randomFrame(12, 7, 3)
	back := FrameFromImage(f.Gray())
	for i := range f.Pix {
		if f.Pix[i] != back.Pix[i] {
			t.Fatalf("pixel %d differs: %d vs %d", i, f.Pix[i], back.Pix[i])
		}
	}
}
