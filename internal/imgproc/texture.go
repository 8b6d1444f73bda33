package imgproc

import (
	"image"

	"github.com/cwbudde/motionbench/internal/me"
)

// SobelTexture scores a block by the mean of |gx| + |gy| over its pixels,
// using 3x3 Sobel operators. The block is treated as a standalone image with
// reflect-101 borders, so neighbouring blocks never influence the score.
type SobelTexture struct{}

// Score implements me.TextureScorer.
func (SobelTexture) Score(f *me.Frame, anchor image.Point, blockSize int) float64 {
	bw, bh := f.BlockDims(anchor.X, anchor.Y, blockSize)
	if bw <= 0 || bh <= 0 {
		return 0
	}

	at := func(x, y int) int {
		return int(f.At(anchor.X+reflect101(x, bw), anchor.Y+reflect101(y, bh)))
	}

	var sum int
	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			sum += absInt(gx) + absInt(gy)
		}
	}
	return float64(sum) / float64(bw*bh)
}

// reflect101 mirrors i into [0, n) without repeating the edge sample.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
