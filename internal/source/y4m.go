package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/cwbudde/motionbench/internal/me"
)

const (
	y4mMagic      = "YUV4MPEG2"
	y4mFrameTag   = "FRAME"
	y4mMaxHeader  = 4096
	y4mDefaultFmt = "420jpeg"
)

// highBitDepth matches the sample-depth suffix of colorspaces such as 420p10.
var highBitDepth = regexp.MustCompile(`p\d+$`)

// Y4MHeader holds the stream parameters the reader needs.
type Y4MHeader struct {
	Width      int
	Height     int
	Colorspace string
}

// chromaSize returns the number of chroma bytes following each luma plane.
func (h Y4MHeader) chromaSize() (int, error) {
	cw, ch := (h.Width+1)/2, (h.Height+1)/2
	switch {
	case strings.HasPrefix(h.Colorspace, "420"):
		if highBitDepth.MatchString(h.Colorspace) {
			return 0, fmt.Errorf("unsupported y4m colorspace C%s", h.Colorspace)
		}
		return 2 * cw * ch, nil
	case h.Colorspace == "422":
		return 2 * cw * h.Height, nil
	case h.Colorspace == "444":
		return 2 * h.Width * h.Height, nil
	case h.Colorspace == "mono":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported y4m colorspace C%s", h.Colorspace)
	}
}

// LoadY4MFile reads the luma planes of a YUV4MPEG2 file.
func LoadY4MFile(path string, maxFrames int) ([]*me.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	frames, err := ReadY4M(f, maxFrames)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return frames, nil
}

// ReadY4M decodes up to maxFrames luma planes (all when maxFrames <= 0).
// Chroma planes are skipped.
func ReadY4M(r io.Reader, maxFrames int) ([]*me.Frame, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	line, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read y4m header: %w", err)
	}
	hdr, err := ParseY4MHeader(line)
	if err != nil {
		return nil, err
	}
	chroma, err := hdr.chromaSize()
	if err != nil {
		return nil, err
	}

	lumaSize := hdr.Width * hdr.Height
	var frames []*me.Frame
	for maxFrames <= 0 || len(frames) < maxFrames {
		tag, err := readLine(br)
		if err == io.EOF && len(tag) == 0 {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		if !bytes.HasPrefix(tag, []byte(y4mFrameTag)) {
			return nil, fmt.Errorf("frame %d: expected %s marker, got %q", len(frames), y4mFrameTag, truncate(tag))
		}

		pix := make([]uint8, lumaSize)
		if _, err := io.ReadFull(br, pix); err != nil {
			return nil, fmt.Errorf("frame %d: truncated luma plane: %w", len(frames), err)
		}
		if _, err := br.Discard(chroma); err != nil {
			return nil, fmt.Errorf("frame %d: truncated chroma planes: %w", len(frames), err)
		}
		frames = append(frames, &me.Frame{Width: hdr.Width, Height: hdr.Height, Pix: pix})
	}
	return frames, nil
}

// ParseY4MHeader parses a stream header line without its trailing newline.
func ParseY4MHeader(line []byte) (Y4MHeader, error) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 || fields[0] != y4mMagic {
		return Y4MHeader{}, fmt.Errorf("not a YUV4MPEG2 stream")
	}

	hdr := Y4MHeader{Colorspace: y4mDefaultFmt}
	for _, field := range fields[1:] {
		key, val := field[0], field[1:]
		switch key {
		case 'W', 'H':
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return Y4MHeader{}, fmt.Errorf("invalid y4m %c parameter %q", key, val)
			}
			if key == 'W' {
				hdr.Width = n
			} else {
				hdr.Height = n
			}
		case 'C':
			hdr.Colorspace = val
		}
	}
	if hdr.Width == 0 || hdr.Height == 0 {
		return Y4MHeader{}, fmt.Errorf("y4m header missing frame size")
	}
	return hdr, nil
}

func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return line, io.ErrUnexpectedEOF
			}
			return line, err
		}
		if b == '\n' {
			return line, nil
		}
		if len(line) >= y4mMaxHeader {
			return nil, fmt.Errorf("header line exceeds %d bytes", y4mMaxHeader)
		}
		line = append(line, b)
	}
}

func truncate(b []byte) string {
	if len(b) > 16 {
		return string(b[:16]) + "..."
	}
	return string(b)
}
