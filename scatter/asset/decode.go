package asset

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df-mc/foliage/scatter/dither"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyData is returned when an image file holds no data.
var ErrEmptyData = errors.New("asset: empty image data")

// extensions holds the file extensions of the image formats that can be
// decoded.
var extensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".bmp": {}, ".tif": {}, ".tiff": {}, ".webp": {},
}

// Supported reports if the file name passed has the extension of a format
// that Decode understands.
func Supported(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Decode decodes a PNG, JPEG, BMP, TIFF or WebP image from r and converts it
// to a density field using its luminance.
func Decode(name string, r io.Reader) (*dither.Field, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		return nil, ErrEmptyData
	}
	img, format, err := image.Decode(br)
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decode: %w", dither.ErrUnsupportedImageFormat)
	} else if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	f, err := dither.FromImage(name, img)
	if err != nil {
		return nil, fmt.Errorf("convert %v image: %w", format, err)
	}
	return f, nil
}

func decodeFile(path string) (*dither.Field, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Decode(filepath.Base(path), file)
}
