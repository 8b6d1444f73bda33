package me

import (
	"image"
	"math/rand"
)

// randomFrame creates a deterministic noise frame. Noise makes every
// displacement except the true one expensive, so searches find exact matches.
func randomFrame(width, height int, seed int64) *Frame {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]uint8, width*height)
	for i := range pix {
		pix[i] = uint8(rng.Intn(256))
	}
	return &Frame{Width: width, Height: height, Pix: pix}
}

// shiftedFrame returns curr with curr(x, y) = prev(x+dx, y+dy), clamping at
// the borders.
func shiftedFrame(prev *Frame, dx, dy int) *Frame {
	pix := make([]uint8, len(prev.Pix))
	for y := 0; y < prev.Height; y++ {
		for x := 0; x < prev.Width; x++ {
			sx := clampInt(x+dx, 0, prev.Width-1)
			sy := clampInt(y+dy, 0, prev.Height-1)
			pix[y*prev.Width+x] = prev.At(sx, sy)
		}
	}
	return &Frame{Width: prev.Width, Height: prev.Height, Pix: pix}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// decimator builds pyramids by keeping every second sample.
type decimator struct {
	builds int
}

func (d *decimator) Build(f *Frame) (Pyramid, error) {
	d.builds++
	l1 := decimate(f)
	return Pyramid{f, l1, decimate(l1)}, nil
}

func decimate(f *Frame) *Frame {
	w, h := (f.Width+1)/2, (f.Height+1)/2
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = f.At(2*x, 2*y)
		}
	}
	return &Frame{Width: w, Height: h, Pix: pix}
}

// constantTexture returns the same score for every block.
type constantTexture float64

func (c constantTexture) Score(*Frame, image.Point, int) float64 { return float64(c) }
