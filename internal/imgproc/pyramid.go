// Package imgproc provides the image operations motion search depends on but
// does not own: pyramid downsampling and texture scoring.
package imgproc

import (
	"fmt"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"github.com/cwbudde/motionbench/internal/me"
)

// gaussianSigma matches the 5-tap [1 4 6 4 1]/16 binomial filter.
const gaussianSigma = 1.0

// Gaussian is a Gaussian low-pass kernel for 2x reduction.
var Gaussian = &draw.Kernel{
	Support: 2,
	At: func(t float64) float64 {
		return math.Exp(-t * t / (2 * gaussianSigma * gaussianSigma))
	},
}

var kernels = map[string]draw.Interpolator{
	"nearest":    draw.NearestNeighbor,
	"bilinear":   draw.ApproxBiLinear,
	"catmullrom": draw.CatmullRom,
	"gaussian":   Gaussian,
}

// KernelNames lists the accepted pyramid kernel names.
func KernelNames() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PyramidBuilder halves a frame twice with a golang.org/x/image/draw
// interpolator. Level sizes are ((w+1)/2, (h+1)/2) of the level above.
type PyramidBuilder struct {
	Kernel draw.Interpolator
}

// NewPyramidBuilder returns a builder for the named kernel.
func NewPyramidBuilder(kernel string) (*PyramidBuilder, error) {
	k, ok := kernels[kernel]
	if !ok {
		return nil, fmt.Errorf("unknown pyramid kernel %q (valid: %v)", kernel, KernelNames())
	}
	return &PyramidBuilder{Kernel: k}, nil
}

// Build returns {f, f/2, f/4}. Level 0 is f itself.
func (b *PyramidBuilder) Build(f *me.Frame) (me.Pyramid, error) {
	if f == nil {
		return me.Pyramid{}, fmt.Errorf("cannot build pyramid of nil frame")
	}
	kernel := b.Kernel
	if kernel == nil {
		kernel = Gaussian
	}

	var pyr me.Pyramid
	pyr[0] = f
	for level := 1; level < me.PyramidLevels; level++ {
		pyr[level] = Downsample(pyr[level-1], kernel)
	}
	return pyr, nil
}

// Downsample halves f with the given interpolator.
func Downsample(f *me.Frame, kernel draw.Interpolator) *me.Frame {
	w, h := (f.Width+1)/2, (f.Height+1)/2
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w > 0 && h > 0 {
		kernel.Scale(dst, dst.Bounds(), f.Gray(), f.Bounds(), draw.Src, nil)
	}
	return me.FrameFromGray(dst)
}
