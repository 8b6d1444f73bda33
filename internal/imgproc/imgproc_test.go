package imgproc

import (
	"image"
	"math"
	"testing"

	"github.com/cwbudde/motionbench/internal/me"
)

func frameFunc(w, h int, fn func(x, y int) uint8) *me.Frame {
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = fn(x, y)
		}
	}
	return &me.Frame{Width: w, Height: h, Pix: pix}
}

func TestPyramidBuilder_LevelSizes(t *testing.T) {
	sizes := []struct {
		w, h           int
		w1, h1, w2, h2 int
	}{
		{176, 144, 88, 72, 44, 36},
		{33, 17, 17, 9, 9, 5},
		{1, 1, 1, 1, 1, 1},
	}

	for _, name := range KernelNames() {
		b, err := NewPyramidBuilder(name)
		if err != nil {
			t.Fatalf("NewPyramidBuilder(%q) failed: %v", name, err)
		}
		for _, sz := range sizes {
			f := frameFunc(sz.w, sz.h, func(x, y int) uint8 { return uint8(x + y) })
			pyr, err := b.Build(f)
			if err != nil {
				t.Fatalf("%s: Build failed: %v", name, err)
			}
			if pyr[0] != f {
				t.Errorf("%s: level 0 must be the input frame", name)
			}
			if pyr[1].Width != sz.w1 || pyr[1].Height != sz.h1 {
				t.Errorf("%s: level 1 expected %dx%d, got %dx%d", name, sz.w1, sz.h1, pyr[1].Width, pyr[1].Height)
			}
			if pyr[2].Width != sz.w2 || pyr[2].Height != sz.h2 {
				t.Errorf("%s: level 2 expected %dx%d, got %dx%d", name, sz.w2, sz.h2, pyr[2].Width, pyr[2].Height)
			}
		}
	}
}

func TestPyramidBuilder_FlatStaysFlat(t *testing.T) {
	f := frameFunc(64, 48, func(x, y int) uint8 { return 120 })
	for _, name := range KernelNames() {
		b, _ := NewPyramidBuilder(name)
		pyr, _ := b.Build(f)
		for level := 1; level < me.PyramidLevels; level++ {
			for i, v := range pyr[level].Pix {
				if v < 119 || v > 121 {
					t.Fatalf("%s level %d pixel %d: expected ~120, got %d", name, level, i, v)
				}
			}
		}
	}
}

func TestNewPyramidBuilder_UnknownKernel(t *testing.T) {
	if _, err := NewPyramidBuilder("lanczos9"); err == nil {
		t.Error("expected error for unknown kernel")
	}
}

func TestSobelTexture_Flat(t *testing.T) {
	f := frameFunc(32, 32, func(x, y int) uint8 { return 77 })
	if got := (SobelTexture{}).Score(f, image.Pt(8, 8), 16); got != 0 {
		t.Errorf("flat block should score 0, got %f", got)
	}
}

func TestSobelTexture_HorizontalRamp(t *testing.T) {
	// f = 2x: interior |gx| = 2*(1+2+1)*... = 16, gy = 0.
	f := frameFunc(32, 32, func(x, y int) uint8 { return uint8(2 * x) })
	got := (SobelTexture{}).Score(f, image.Pt(0, 0), 16)

	// Reflect-101 zeroes gx on the first and last columns: 14 of 16 columns score 16.
	want := 16.0 * 14 / 16
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestSobelTexture_RangeTiers(t *testing.T) {
	flat := frameFunc(32, 32, func(x, y int) uint8 { return 10 })
	busy := frameFunc(32, 32, func(x, y int) uint8 {
		if (x/2)%2 == 0 {
			return 255
		}
		return 0
	})

	if r := me.SelectSearchRange((SobelTexture{}).Score(flat, image.Pt(0, 0), 16)); r != 4 {
		t.Errorf("flat block should select range 4, got %d", r)
	}
	if r := me.SelectSearchRange((SobelTexture{}).Score(busy, image.Pt(0, 0), 16)); r != 16 {
		t.Errorf("striped block should select range 16, got %d", r)
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 4, 1},
		{0, 4, 0},
		{3, 4, 3},
		{4, 4, 2},
		{-1, 1, 0},
		{5, 2, 1},
	}
	for _, tt := range tests {
		if got := reflect101(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}
