package me

import (
	"image"
	"log/slog"

	"golang.org/x/sys/cpu"
)

// SAD (Sum of Absolute Differences) block cost.
//
// Two pure-Go kernels exist with bit-identical results. Neither uses SIMD
// instructions:
//   - sadUnrolled: 8 samples per iteration with fewer bounds checks
//   - sadScalar:   one sample per iteration, the portable reference
//
// AVX2 or ASIMD support is only taken as a sign of a recent out-of-order
// core, which retires the unrolled loop's independent adds in parallel.
// BenchmarkSAD compares the two kernels on the current host.

// SADBackend indicates which kernel is active for SAD
type SADBackend int

const (
	SADBackendScalar SADBackend = iota
	SADBackendUnrolled
)

func (b SADBackend) String() string {
	switch b {
	case SADBackendUnrolled:
		return "unrolled"
	case SADBackendScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// ActiveSADBackend reports which kernel was selected for SAD
var ActiveSADBackend SADBackend

// fastSAD is the function pointer for runtime-dispatched SAD computation
var fastSAD func(a, b []uint8, strideA, strideB, width, height int) int

func init() {
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		ActiveSADBackend = SADBackendUnrolled
		fastSAD = sadUnrolled
	} else {
		ActiveSADBackend = SADBackendScalar
		fastSAD = sadScalar
	}
	slog.Debug("SAD kernel initialized", "backend", ActiveSADBackend.String())
}

// BlockSAD computes the SAD of two width x height blocks. a and b start at
// the blocks' top-left samples and advance by their own strides per row.
func BlockSAD(a, b []uint8, strideA, strideB, width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return fastSAD(a, b, strideA, strideB, width, height)
}

// SAD compares the bw x bh block of curr at at with the block of prev at cand.
// Both blocks must lie inside their frames; callers check this with a
// BoundaryPolicy first.
func SAD(curr, prev *Frame, at, cand image.Point, bw, bh int) int {
	if !curr.SameSize(prev) {
		panic("SAD: frame dimensions must match")
	}
	return BlockSAD(
		curr.Pix[at.Y*curr.Width+at.X:], prev.Pix[cand.Y*prev.Width+cand.X:],
		curr.Width, prev.Width, bw, bh,
	)
}

func sadScalar(a, b []uint8, strideA, strideB, width, height int) int {
	total := 0
	for y := 0; y < height; y++ {
		ra := a[y*strideA : y*strideA+width]
		rb := b[y*strideB : y*strideB+width]
		for x := range ra {
			total += absDiff(ra[x], rb[x])
		}
	}
	return total
}

func sadUnrolled(a, b []uint8, strideA, strideB, width, height int) int {
	total := 0
	for y := 0; y < height; y++ {
		ra := a[y*strideA : y*strideA+width]
		rb := b[y*strideB : y*strideB+width]
		x := 0
		for ; x+8 <= width; x += 8 {
			total += absDiff(ra[x], rb[x]) +
				absDiff(ra[x+1], rb[x+1]) +
				absDiff(ra[x+2], rb[x+2]) +
				absDiff(ra[x+3], rb[x+3]) +
				absDiff(ra[x+4], rb[x+4]) +
				absDiff(ra[x+5], rb[x+5]) +
				absDiff(ra[x+6], rb[x+6]) +
				absDiff(ra[x+7], rb[x+7])
		}
		for ; x < width; x++ {
			total += absDiff(ra[x], rb[x])
		}
	}
	return total
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
