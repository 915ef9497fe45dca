package dither

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSampleWhiteFieldAcceptsEveryCell(t *testing.T) {
	white := Uniform("white", 1, 1, 255)
	cases := []struct {
		density float64
		extent  Extent
		want    int
	}{
		{1, Extent{1, 1}, 1},
		{1, Extent{10, 5}, 50},
		{2, Extent{1, 1}, 4},
		{2, Extent{10, 5}, 200},
		{5, Extent{1, 1}, 25},
		{0.1, Extent{10, 10}, 1},
		{1, Extent{10, 1}, 10},
		{1, Extent{10, 10}, 100},
	}
	for _, c := range cases {
		positions, err := Sample(white, c.density, c.extent)
		if err != nil {
			t.Fatalf("density %v extent %v: unexpected error: %v", c.density, c.extent, err)
		}
		if len(positions) != c.want {
			t.Fatalf("density %v extent %v: expected %d positions, got %d", c.density, c.extent, c.want, len(positions))
		}
	}
}

func TestSampleBlackFieldAcceptsNothing(t *testing.T) {
	black := Uniform("black", 1, 1, 0)
	for _, density := range []float64{2, 20} {
		for _, extent := range []Extent{{1, 1}, {10, 5}} {
			positions, err := Sample(black, density, extent)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(positions) != 0 {
				t.Fatalf("density %v extent %v: expected no positions on a black field, got %d", density, extent, len(positions))
			}
		}
	}
}

func TestSampleZeroDensityIsEmpty(t *testing.T) {
	positions, err := Sample(Uniform("white", 1, 1, 255), 0, Extent{1, 1})
	if err != nil {
		t.Fatalf("zero density must not fail: %v", err)
	}
	if positions == nil || len(positions) != 0 {
		t.Fatalf("expected an empty, non-nil buffer, got %v", positions)
	}
}

func TestSampleRejectsNegativeDensity(t *testing.T) {
	_, err := Sample(Uniform("white", 1, 1, 255), -1, Extent{1, 1})
	var tooSmall DensityTooSmallError
	if !errors.As(err, &tooSmall) {
		t.Fatalf("expected DensityTooSmallError, got %v", err)
	}
	if tooSmall.Density != -1 {
		t.Fatalf("expected rejected density -1, got %v", tooSmall.Density)
	}
}

func TestSampleRejectsDegenerateArea(t *testing.T) {
	white := Uniform("white", 1, 1, 255)
	for _, extent := range []Extent{{0, 10}, {10, 0}, {0, 0}, {100, 0}, {-10, 0}, {0, -10}} {
		_, err := Sample(white, 1, extent)
		var tooSmall AreaTooSmallError
		if !errors.As(err, &tooSmall) {
			t.Fatalf("extent %v: expected AreaTooSmallError, got %v", extent, err)
		}
		if tooSmall.Area != 0 {
			t.Fatalf("extent %v: expected area 0, got %v", extent, tooSmall.Area)
		}
	}
	if _, err := Sample(white, 1, Extent{-10, 5}); !errors.As(err, new(AreaTooSmallError)) {
		t.Fatalf("expected negative area to be rejected, got %v", err)
	}
}

func TestSampleMirrorsNegativeExtent(t *testing.T) {
	white := Uniform("white", 1, 1, 255)
	positions, err := Sample(white, 1, Extent{-10, -10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 100 {
		t.Fatalf("expected 100 positions, got %d", len(positions))
	}
	for _, p := range positions {
		if p.X() > 0 || p.Y() > 0 {
			t.Fatalf("expected positions mirrored into negative space, got %v", p)
		}
	}
}

func TestSampleIsDeterministic(t *testing.T) {
	pix := make([]uint8, 16*16)
	for i := range pix {
		pix[i] = uint8(i * 7)
	}
	f, err := NewField("gradient", 16, 16, pix)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	a, err := Sample(f, 3, Extent{12, 7})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	b, err := Sample(f.Clone(), 3, Extent{12, 7})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !slices.Equal(a, b) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestSampleOrderAndThresholds(t *testing.T) {
	// A mid gray of 128 passes exactly the thresholds below 32, which is half
	// of every 8x8 tile.
	positions, err := Sample(Uniform("gray", 4, 4, 128), 1, Extent{8, 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 32 {
		t.Fatalf("expected 32 positions, got %d", len(positions))
	}
	// Row 0 of the matrix is {0, 32, 8, 40, 2, 34, 10, 42}: columns 0, 2, 4
	// and 6 pass.
	want := []mgl64.Vec2{{0, 0}, {0, 2}, {0, 4}, {0, 6}}
	if !slices.Equal(positions[:4], Positions(want)) {
		t.Fatalf("expected first row %v, got %v", want, positions[:4])
	}
}

func TestSampleRejectsInvalidField(t *testing.T) {
	if _, err := Sample(nil, 1, Extent{1, 1}); !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Fatalf("expected ErrUnsupportedImageFormat for nil field, got %v", err)
	}
	if _, err := Sample(&Field{}, 1, Extent{1, 1}); !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Fatalf("expected ErrUnsupportedImageFormat for empty field, got %v", err)
	}
}

func TestBayerMatrixIsPermutation(t *testing.T) {
	var seen [64]bool
	for _, row := range bayer {
		for _, v := range row {
			if v >= 64 || seen[v] {
				t.Fatalf("threshold %d appears twice or is out of range", v)
			}
			seen[v] = true
		}
	}
}

func TestFromImageConvertsColour(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 3, 4, 5))
	img.Set(2, 3, color.White)
	img.Set(3, 4, color.RGBA{A: 255})
	f, err := FromImage("rgba", img)
	if err != nil {
		t.Fatalf("from image: %v", err)
	}
	if f.Width() != 2 || f.Height() != 2 {
		t.Fatalf("expected a 2x2 field, got %dx%d", f.Width(), f.Height())
	}
	if f.At(0, 0) != 255 || f.At(1, 1) != 0 {
		t.Fatalf("unexpected intensities %d and %d", f.At(0, 0), f.At(1, 1))
	}
}

func TestFromImageCopiesGraySubImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(2, 2, color.Gray{Y: 200})
	sub := gray.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)
	f, err := FromImage("sub", sub)
	if err != nil {
		t.Fatalf("from image: %v", err)
	}
	if f.At(1, 1) != 200 {
		t.Fatalf("expected 200 at 1,1, got %d", f.At(1, 1))
	}
	gray.SetGray(2, 2, color.Gray{Y: 10})
	if f.At(1, 1) != 200 {
		t.Fatalf("field must not alias the source image")
	}
}

func TestFromImageRejectsUnboundedImages(t *testing.T) {
	if _, err := FromImage("uniform", image.NewUniform(color.White)); !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Fatalf("expected ErrUnsupportedImageFormat, got %v", err)
	}
	if _, err := FromImage("empty", image.NewGray(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Fatalf("expected ErrUnsupportedImageFormat, got %v", err)
	}
	if _, err := NewField("short", 2, 2, []uint8{1, 2, 3}); !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Fatalf("expected ErrUnsupportedImageFormat, got %v", err)
	}
}

func TestFieldSumTracksSamples(t *testing.T) {
	a := Uniform("a", 2, 2, 10)
	b := Uniform("b", 2, 2, 10)
	c := Uniform("c", 2, 2, 11)
	d := Uniform("d", 4, 1, 10)
	if a.Sum64() != b.Sum64() {
		t.Fatalf("equal samples must have equal sums")
	}
	if a.Sum64() == c.Sum64() || a.Sum64() == d.Sum64() {
		t.Fatalf("different samples or dimensions must have different sums")
	}
}
