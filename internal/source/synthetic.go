package source

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/cwbudde/motionbench/internal/me"
)

// SyntheticSpec describes a camera panning across a smoothed noise texture.
// Frame k shows the texture at offset k*(DX, DY), so every block that stays
// inside the frame matches the previous frame at motion vector (DX, DY).
type SyntheticSpec struct {
	Width, Height int
	DX, DY        int
	Frames        int
	Seed          int64
}

// ParseSynthetic parses "WxH:dx,dy:N[:seed]".
func ParseSynthetic(desc string) (SyntheticSpec, error) {
	parts := strings.Split(desc, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return SyntheticSpec{}, fmt.Errorf("invalid synthetic source %q, want WxH:dx,dy:N[:seed]", desc)
	}

	pan := SyntheticSpec{Seed: 1}
	if _, err := fmt.Sscanf(parts[0], "%dx%d", &pan.Width, &pan.Height); err != nil {
		return SyntheticSpec{}, fmt.Errorf("invalid synthetic size %q: %w", parts[0], err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d,%d", &pan.DX, &pan.DY); err != nil {
		return SyntheticSpec{}, fmt.Errorf("invalid synthetic motion %q: %w", parts[1], err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return SyntheticSpec{}, fmt.Errorf("invalid synthetic frame count %q: %w", parts[2], err)
	}
	pan.Frames = n
	if len(parts) == 4 {
		seed, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return SyntheticSpec{}, fmt.Errorf("invalid synthetic seed %q: %w", parts[3], err)
		}
		pan.Seed = seed
	}

	if pan.Width <= 0 || pan.Height <= 0 || pan.Frames < 0 {
		return SyntheticSpec{}, fmt.Errorf("invalid synthetic source %q", desc)
	}
	return pan, nil
}

// Synthetic parses desc and generates the frames.
func Synthetic(desc string) ([]*me.Frame, error) {
	pan, err := ParseSynthetic(desc)
	if err != nil {
		return nil, err
	}
	return pan.Generate(), nil
}

// Generate renders the panning sequence.
func (s SyntheticSpec) Generate() []*me.Frame {
	if s.Frames == 0 {
		return nil
	}
	span := s.Frames - 1
	cw := s.Width + span*abs(s.DX)
	ch := s.Height + span*abs(s.DY)
	canvas := smoothNoise(cw, ch, s.Seed)

	ox, oy := 0, 0
	if s.DX < 0 {
		ox = span * -s.DX
	}
	if s.DY < 0 {
		oy = span * -s.DY
	}

	frames := make([]*me.Frame, s.Frames)
	for k := range frames {
		x0, y0 := ox+k*s.DX, oy+k*s.DY
		pix := make([]uint8, s.Width*s.Height)
		for y := 0; y < s.Height; y++ {
			src := (y0+y)*cw + x0
			copy(pix[y*s.Width:(y+1)*s.Width], canvas[src:src+s.Width])
		}
		frames[k] = &me.Frame{Width: s.Width, Height: s.Height, Pix: pix}
	}
	return frames
}

// smoothNoise returns uniform noise blurred with a 3x3 box, which gives
// gradient-following searches something to descend.
func smoothNoise(w, h int, seed int64) []uint8 {
	rng := rand.New(rand.NewSource(seed))
	noise := make([]int, w*h)
	for i := range noise {
		noise[i] = rng.Intn(256)
	}

	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0, 0
			for j := max(y-1, 0); j <= min(y+1, h-1); j++ {
				for i := max(x-1, 0); i <= min(x+1, w-1); i++ {
					sum += noise[j*w+i]
					n++
				}
			}
			out[y*w+x] = uint8(sum / n)
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
