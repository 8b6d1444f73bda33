// Package recon reconstructs predicted frames from motion fields and scores them.
package recon

import (
	"math"

	"github.com/cwbudde/motionbench/internal/me"
)

// PSNRSaturation is returned by PSNR for identical frames instead of +Inf.
const PSNRSaturation = 100.0

// Compensate builds the predicted frame for field from prev.
//
// Each block is copied from (x+dx, y+dy) of prev when that block lies fully
// inside prev (0 <= n and n+size <= dim); otherwise the co-located block is
// copied. Edge blocks are clipped to the frame. Every pixel is written.
func Compensate(prev *me.Frame, field *me.MotionField, blockSize int) *me.Frame {
	w, h := prev.Width, prev.Height
	out := make([]uint8, len(prev.Pix))

	for row := 0; row < field.Rows; row++ {
		y := row * blockSize
		for col := 0; col < field.Cols; col++ {
			x := col * blockSize
			bw, bh := prev.BlockDims(x, y, blockSize)
			if bw <= 0 || bh <= 0 {
				continue
			}

			v := field.At(row, col)
			sx, sy := x+v.DX, y+v.DY
			if !me.BoundsInclusive.Contains(w, h, sx, sy, bw, bh) {
				sx, sy = x, y
			}

			for j := 0; j < bh; j++ {
				dst := (y+j)*w + x
				src := (sy+j)*w + sx
				copy(out[dst:dst+bw], prev.Pix[src:src+bw])
			}
		}
	}

	return &me.Frame{Width: w, Height: h, Pix: out}
}

// MSE computes the mean squared error between two frames of equal size.
func MSE(a, b *me.Frame) float64 {
	if !a.SameSize(b) {
		panic("frame dimensions must match")
	}
	if len(a.Pix) == 0 {
		return 0
	}

	var sum uint64
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		sum += uint64(d * d)
	}
	return float64(sum) / float64(len(a.Pix))
}

// PSNR returns 10*log10(255^2/MSE) in dB, or PSNRSaturation when the frames
// are identical.
func PSNR(original, reconstructed *me.Frame) float64 {
	mse := MSE(original, reconstructed)
	if mse == 0 {
		return PSNRSaturation
	}
	return 10 * math.Log10(255*255/mse)
}
