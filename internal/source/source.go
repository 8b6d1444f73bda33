// Package source loads grayscale frame sequences for benchmarking.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cwbudde/motionbench/internal/me"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("source not found")
	// ErrEmpty is returned when the input yields no frames.
	ErrEmpty = errors.New("source has no frames")
)

// SyntheticPrefix selects the synthetic panning source.
const SyntheticPrefix = "synthetic:"

// Options controls how frames are loaded.
type Options struct {
	MaxFrames   int // 0 loads every frame
	Concurrency int // decode workers for image directories; <= 0 means 4
}

// Open loads frames from path. path is a .y4m file, a directory of images,
// or a "synthetic:WxH:dx,dy:N[:seed]" descriptor.
func Open(ctx context.Context, path string, opts Options) ([]*me.Frame, error) {
	var (
		frames []*me.Frame
		err    error
	)

	switch {
	case strings.HasPrefix(path, SyntheticPrefix):
		frames, err = Synthetic(strings.TrimPrefix(path, SyntheticPrefix))
	default:
		info, statErr := os.Stat(path)
		if statErr != nil {
			if errors.Is(statErr, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
		}
		if info.IsDir() {
			frames, err = LoadDir(ctx, path, opts)
		} else {
			frames, err = LoadY4MFile(path, opts.MaxFrames)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.MaxFrames > 0 && len(frames) > opts.MaxFrames {
		frames = frames[:opts.MaxFrames]
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	slog.Debug("Loaded frames", "source", path, "frames", len(frames),
		"width", frames[0].Width, "height", frames[0].Height)
	return frames, nil
}

func checkSizes(frames []*me.Frame) error {
	for i := 1; i < len(frames); i++ {
		if !frames[i].SameSize(frames[0]) {
			return fmt.Errorf("frame %d is %dx%d, expected %dx%d", i,
				frames[i].Width, frames[i].Height, frames[0].Width, frames[0].Height)
		}
	}
	return nil
}
