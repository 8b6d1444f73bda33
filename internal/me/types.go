package me

import (
	"fmt"
	"image"
)

// Frame is an immutable grayscale frame stored row-major with stride == Width.
// Frames are created by sources and pyramid builders and never mutated afterwards.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame wraps pix as a width x height frame.
func NewFrame(width, height int, pix []uint8) (*Frame, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("pixel buffer length %d does not match %dx%d", len(pix), width, height)
	}
	return &Frame{Width: width, Height: height, Pix: pix}, nil
}

// FrameFromGray copies the luma samples of img into a new Frame.
func FrameFromGray(img *image.Gray) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:(y+1)*w], img.Pix[row:row+w])
	}
	return &Frame{Width: w, Height: h, Pix: pix}
}

// FrameFromImage converts any image to a grayscale Frame using the
// standard luma weights of color.GrayModel.
func FrameFromImage(img image.Image) *Frame {
	if g, ok := img.(*image.Gray); ok {
		return FrameFromGray(g)
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return FrameFromGray(gray)
}

// Gray returns an image.Gray view sharing the frame's pixels.
// Callers must not write to it.
func (f *Frame) Gray() *image.Gray {
	return &image.Gray{
		Pix:    f.Pix,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// At returns the sample at (x, y).
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// SameSize reports whether f and o have identical dimensions.
func (f *Frame) SameSize(o *Frame) bool {
	return f.Width == o.Width && f.Height == o.Height
}

// BlockDims returns the size of the block anchored at (x, y), clipped to the frame.
func (f *Frame) BlockDims(x, y, blockSize int) (int, int) {
	return min(blockSize, f.Width-x), min(blockSize, f.Height-y)
}

// Vector is an integer motion vector: the block at (x, y) in the current
// frame is predicted from (x+DX, y+DY) in the previous frame.
type Vector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{DX: v.DX + o.DX, DY: v.DY + o.DY}
}

// Scale returns v multiplied by k.
func (v Vector) Scale(k int) Vector {
	return Vector{DX: v.DX * k, DY: v.DY * k}
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d,%d)", v.DX, v.DY)
}

// Pyramid holds three resolutions of one frame; level 0 is full resolution
// and every next level is about half the linear size of the previous one.
type Pyramid [3]*Frame

// PyramidLevels is the number of levels hierarchical search descends.
const PyramidLevels = len(Pyramid{})

// PyramidBuilder builds a Pyramid whose level 0 is the input frame.
type PyramidBuilder interface {
	Build(f *Frame) (Pyramid, error)
}

// TextureScorer scores how textured the block at anchor is. Scores are non-negative.
type TextureScorer interface {
	Score(f *Frame, anchor image.Point, blockSize int) float64
}

// MotionField is the grid of per-block vectors for one frame pair.
type MotionField struct {
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	BlockSize int      `json:"block_size"`
	Vectors   []Vector `json:"vectors"`
}

// NewMotionField allocates a zero field covering a width x height frame.
func NewMotionField(width, height, blockSize int) *MotionField {
	rows := ceilDiv(height, blockSize)
	cols := ceilDiv(width, blockSize)
	return &MotionField{
		Rows:      rows,
		Cols:      cols,
		BlockSize: blockSize,
		Vectors:   make([]Vector, rows*cols),
	}
}

// At returns the vector of grid cell (row, col).
func (m *MotionField) At(row, col int) Vector {
	return m.Vectors[row*m.Cols+col]
}

// Set stores the vector of grid cell (row, col).
func (m *MotionField) Set(row, col int, v Vector) {
	m.Vectors[row*m.Cols+col] = v
}

// Len returns the number of blocks in the field.
func (m *MotionField) Len() int {
	return m.Rows * m.Cols
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
