package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func y4mStream(w, h, n int, colorspace string, chroma int) []byte {
	var buf bytes.Buffer
	header := fmt.Sprintf("YUV4MPEG2 W%d H%d F25:1 Ip A1:1", w, h)
	if colorspace != "" {
		header += " C" + colorspace
	}
	buf.WriteString(header + "\n")
	for k := 0; k < n; k++ {
		buf.WriteString("FRAME\n")
		for i := 0; i < w*h; i++ {
			buf.WriteByte(byte(k*10 + i%7))
		}
		buf.Write(make([]byte, chroma))
	}
	return buf.Bytes()
}

func TestReadY4M_Colorspaces(t *testing.T) {
	tests := []struct {
		name       string
		colorspace string
		chroma     int
	}{
		{"default 420", "", 2 * 3 * 2},
		{"420", "420", 2 * 3 * 2},
		{"420jpeg", "420jpeg", 2 * 3 * 2},
		{"420mpeg2", "420mpeg2", 2 * 3 * 2},
		{"420paldv", "420paldv", 2 * 3 * 2},
		{"422", "422", 2 * 3 * 4},
		{"444", "444", 2 * 6 * 4},
		{"mono", "mono", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := ReadY4M(bytes.NewReader(y4mStream(6, 4, 3, tt.colorspace, tt.chroma)), 0)
			if err != nil {
				t.Fatalf("ReadY4M failed: %v", err)
			}
			if len(frames) != 3 {
				t.Fatalf("expected 3 frames, got %d", len(frames))
			}
			for k, f := range frames {
				if f.Width != 6 || f.Height != 4 {
					t.Errorf("frame %d: expected 6x4, got %dx%d", k, f.Width, f.Height)
				}
				if f.Pix[0] != byte(k*10) || f.Pix[8] != byte(k*10+1) {
					t.Errorf("frame %d: luma mismatch", k)
				}
			}
		})
	}
}

func TestLoadY4MFile_EightBit420(t *testing.T) {
	for _, colorspace := range []string{"", "420jpeg", "420mpeg2"} {
		t.Run("C"+colorspace, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "clip.y4m")
			if err := os.WriteFile(path, y4mStream(4, 2, 1, colorspace, 2*2*1), 0644); err != nil {
				t.Fatal(err)
			}
			frames, err := LoadY4MFile(path, 0)
			if err != nil {
				t.Fatalf("LoadY4MFile failed: %v", err)
			}
			if len(frames) != 1 || frames[0].Width != 4 || frames[0].Height != 2 {
				t.Errorf("unexpected frames: %d", len(frames))
			}
		})
	}
}

func TestReadY4M_MaxFrames(t *testing.T) {
	frames, err := ReadY4M(bytes.NewReader(y4mStream(4, 4, 5, "mono", 0)), 2)
	if err != nil {
		t.Fatalf("ReadY4M failed: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(frames))
	}
}

func TestReadY4M_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not y4m", []byte("P5 4 4 255\n")},
		{"missing size", []byte("YUV4MPEG2 W4\n")},
		{"high bit depth", []byte("YUV4MPEG2 W4 H4 C420p10\n")},
		{"high bit depth 12", []byte("YUV4MPEG2 W4 H4 C420p12\n")},
		{"high bit depth 444", []byte("YUV4MPEG2 W4 H4 C444p10\n")},
		{"truncated frame", append([]byte("YUV4MPEG2 W4 H4 Cmono\nFRAME\n"), 1, 2, 3)},
		{"bad marker", []byte("YUV4MPEG2 W4 H4 Cmono\nFRAMX\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadY4M(bytes.NewReader(tt.data), 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSynthetic(t *testing.T) {
	pan, err := ParseSynthetic("64x48:3,-2:5:9")
	if err != nil {
		t.Fatalf("ParseSynthetic failed: %v", err)
	}
	want := SyntheticSpec{Width: 64, Height: 48, DX: 3, DY: -2, Frames: 5, Seed: 9}
	if pan != want {
		t.Errorf("expected %+v, got %+v", want, pan)
	}

	pan, err = ParseSynthetic("16x16:0,0:2")
	if err != nil {
		t.Fatalf("ParseSynthetic failed: %v", err)
	}
	if pan.Seed != 1 {
		t.Errorf("expected default seed 1, got %d", pan.Seed)
	}

	for _, bad := range []string{"", "16x16", "16:0,0:2", "16x16:0:2", "0x16:0,0:2", "16x16:0,0:x"} {
		if _, err := ParseSynthetic(bad); err == nil {
			t.Errorf("ParseSynthetic(%q): expected error", bad)
		}
	}
}

func TestSynthetic_Pans(t *testing.T) {
	pan := SyntheticSpec{Width: 32, Height: 24, DX: 3, DY: -2, Frames: 4, Seed: 5}
	frames := pan.Generate()
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}

	// curr(x, y) == prev(x+dx, y+dy) wherever both are inside the frame.
	for k := 1; k < len(frames); k++ {
		prev, curr := frames[k-1], frames[k]
		for y := 2; y < pan.Height; y++ {
			for x := 0; x < pan.Width-3; x++ {
				if curr.At(x, y) != prev.At(x+pan.DX, y+pan.DY) {
					t.Fatalf("frame %d pixel (%d,%d) does not follow the pan", k, x, y)
				}
			}
		}
	}
}

func TestOpen_Sources(t *testing.T) {
	ctx := context.Background()

	t.Run("synthetic", func(t *testing.T) {
		frames, err := Open(ctx, "synthetic:32x32:1,1:6", Options{MaxFrames: 4})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if len(frames) != 4 {
			t.Errorf("expected 4 frames, got %d", len(frames))
		}
	})

	t.Run("y4m", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clip.y4m")
		if err := os.WriteFile(path, y4mStream(8, 8, 3, "", 2*4*4), 0644); err != nil {
			t.Fatal(err)
		}
		frames, err := Open(ctx, path, Options{})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if len(frames) != 3 {
			t.Errorf("expected 3 frames, got %d", len(frames))
		}
	})

	t.Run("image directory", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < 3; i++ {
			img := image.NewGray(image.Rect(0, 0, 10, 6))
			img.Pix[0] = uint8(i * 40)
			name := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
			if i == 1 {
				name = filepath.Join(dir, fmt.Sprintf("frame_%03d.bmp", i))
			}
			writeImage(t, name, img)
		}
		if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
			t.Fatal(err)
		}

		frames, err := Open(ctx, dir, Options{Concurrency: 2})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if len(frames) != 3 {
			t.Fatalf("expected 3 frames, got %d", len(frames))
		}
		for i, f := range frames {
			if f.At(0, 0) != uint8(i*40) {
				t.Errorf("frame %d out of order: first pixel %d", i, f.At(0, 0))
			}
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := Open(ctx, filepath.Join(t.TempDir(), "missing.y4m"), Options{})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := Open(ctx, t.TempDir(), Options{})
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("expected ErrEmpty, got %v", err)
		}
	})

	t.Run("empty y4m", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.y4m")
		if err := os.WriteFile(path, []byte("YUV4MPEG2 W8 H8\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(ctx, path, Options{})
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("expected ErrEmpty, got %v", err)
		}
	})
}

func TestLoadDir_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), image.NewGray(image.Rect(0, 0, 8, 8)))
	writeImage(t, filepath.Join(dir, "b.png"), image.NewGray(image.Rect(0, 0, 8, 9)))

	if _, err := LoadDir(context.Background(), dir, Options{}); err == nil {
		t.Error("expected error for mixed frame sizes")
	}
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if filepath.Ext(path) == ".bmp" {
		err = bmp.Encode(f, img)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatal(err)
	}
}
