package dither

import (
	"encoding/binary"
	"errors"
	"image"
	"slices"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/image/draw"
)

// ErrUnsupportedImageFormat is returned when an image or buffer cannot be
// read as a single-channel intensity field.
var ErrUnsupportedImageFormat = errors.New("dither: image cannot be read as a single-channel intensity field")

// maxFieldSide caps the width and height of a Field. Images without a
// practical bound, such as *image.Uniform, are rejected by it.
const maxFieldSide = 1 << 15

// Field is an immutable grayscale intensity buffer. White (255) samples mark
// dense areas, black (0) samples mark empty ones. A Field is safe to share
// between goroutines: none of its methods modify it.
type Field struct {
	name          string
	width, height int
	pix           []uint8
	sum           uint64
}

// NewField creates a Field of the dimensions passed from row-major samples.
// The samples are copied, so pix may be reused by the caller afterwards.
func NewField(name string, width, height int, pix []uint8) (*Field, error) {
	if width <= 0 || height <= 0 || width > maxFieldSide || height > maxFieldSide || len(pix) != width*height {
		return nil, ErrUnsupportedImageFormat
	}
	return newField(name, width, height, slices.Clone(pix)), nil
}

// Uniform returns a Field of the dimensions passed with every sample set to
// value. It panics if width or height is not positive.
func Uniform(name string, width, height int, value uint8) *Field {
	if width <= 0 || height <= 0 {
		panic("dither: uniform field must have a positive size")
	}
	pix := make([]uint8, width*height)
	for i := range pix {
		pix[i] = value
	}
	return newField(name, width, height, pix)
}

// FromImage converts img to a Field using its luminance. Images that are
// already *image.Gray are copied directly, any other colour model is drawn
// onto a gray buffer first.
func FromImage(name string, img image.Image) (*Field, error) {
	if img == nil {
		return nil, ErrUnsupportedImageFormat
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || w > maxFieldSide || h > maxFieldSide {
		return nil, ErrUnsupportedImageFormat
	}
	pix := make([]uint8, w*h)
	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(pix[y*w:(y+1)*w], row[:w])
		}
		return newField(name, w, h, pix), nil
	}
	dst := &image.Gray{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return newField(name, w, h, pix), nil
}

func newField(name string, width, height int, pix []uint8) *Field {
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(height))

	d := xxhash.New()
	_, _ = d.Write(dims[:])
	_, _ = d.Write(pix)
	return &Field{name: name, width: width, height: height, pix: pix, sum: d.Sum64()}
}

// Name returns the name of the source the Field was created from.
func (f *Field) Name() string { return f.name }

// Width returns the amount of samples per row.
func (f *Field) Width() int { return f.width }

// Height returns the amount of rows.
func (f *Field) Height() int { return f.height }

// At returns the intensity at x, y. It panics if the position is out of range.
func (f *Field) At(x, y int) uint8 {
	return f.pix[y*f.width+x]
}

// Sum64 returns an xxhash digest of the dimensions and samples of the Field.
// Two fields with equal digests hold the same samples.
func (f *Field) Sum64() uint64 { return f.sum }

// Clone returns a deep copy of the Field.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	c := *f
	c.pix = slices.Clone(f.pix)
	return &c
}

// valid checks that the Field can be sampled as a single channel buffer.
func (f *Field) valid() bool {
	return f != nil && f.width > 0 && f.height > 0 && len(f.pix) == f.width*f.height
}
