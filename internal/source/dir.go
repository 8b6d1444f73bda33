package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/motionbench/internal/me"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ListImages returns the image files in dir sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir decodes every image in dir, in name order, into grayscale frames.
// All images must share one size.
func LoadDir(ctx context.Context, dir string, opts Options) ([]*me.Frame, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	if opts.MaxFrames > 0 && len(paths) > opts.MaxFrames {
		paths = paths[:opts.MaxFrames]
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	frames := make([]*me.Frame, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := decodeFile(path)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkSizes(frames); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return frames, nil
}

func decodeFile(path string) (*me.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return me.FrameFromImage(img), nil
}
