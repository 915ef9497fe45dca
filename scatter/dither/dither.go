// Package dither turns grayscale density fields into deterministic sets of
// 2D instance positions using ordered (Bayer) dithering.
package dither

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MinArea is the smallest extent area that may be sampled.
const MinArea = 1e-4

// maxPrealloc bounds the capacity reserved up front for a sampling sweep.
const maxPrealloc = 1 << 16

// bayer is the 8x8 ordered dither matrix. Neighbouring thresholds are as far
// apart as possible, which spreads accepted samples evenly instead of
// clustering them.
var bayer = [8][8]uint8{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// Positions is an ordered list of 2D positions produced by Sample. X holds
// the position along the extent's width and Y the position along its depth.
// Positions are shared by reference and must not be modified.
type Positions []mgl64.Vec2

// Extent is the world-space footprint a Field is stretched across.
type Extent struct {
	Width, Depth float64
}

// Area returns the signed area of the Extent.
func (e Extent) Area() float64 {
	return e.Width * e.Depth
}

// DensityTooSmallError is returned when a negative density is sampled.
type DensityTooSmallError struct {
	Density float64
}

// Error returns the density that was rejected.
func (e DensityTooSmallError) Error() string {
	return fmt.Sprintf("dither: density %v must not be negative", e.Density)
}

// AreaTooSmallError is returned when the area of an Extent is below MinArea.
type AreaTooSmallError struct {
	Area float64
}

// Error returns the area that was rejected.
func (e AreaTooSmallError) Error() string {
	return fmt.Sprintf("dither: extent area %v is smaller than %v", e.Area, MinArea)
}

// CheckInputs validates a density and extent pair without sampling anything.
func CheckInputs(density float64, extent Extent) error {
	if density < 0 || math.IsNaN(density) {
		return DensityTooSmallError{Density: density}
	}
	if area := extent.Area(); !(area >= MinArea) {
		return AreaTooSmallError{Area: area}
	}
	return nil
}

// Sample dithers f across extent. The sampling grid holds
// floor(|density*Width|) by floor(|density*Depth|) cells. A cell is accepted
// if the intensity under it exceeds the cell's Bayer threshold scaled to the
// 0-255 range, so a white field accepts every cell and a black field none.
//
// Positions are emitted row by row in grid order. Sample is a pure function
// of its inputs and never keeps a reference to f.
func Sample(f *Field, density float64, extent Extent) (Positions, error) {
	if err := CheckInputs(density, extent); err != nil {
		return nil, err
	}
	if !f.valid() {
		return nil, ErrUnsupportedImageFormat
	}
	iCount := int(math.Abs(density * extent.Width))
	jCount := int(math.Abs(density * extent.Depth))

	size := maxPrealloc
	if iCount < maxPrealloc && jCount < maxPrealloc && iCount*jCount < maxPrealloc {
		size = iCount * jCount
	}
	positions := make(Positions, 0, size)
	for i := 0; i < iCount; i++ {
		u := float64(i) / float64(iCount)
		x := int(u * float64(f.width))
		thresholds := &bayer[i%8]
		for j := 0; j < jCount; j++ {
			v := float64(j) / float64(jCount)
			y := int(v * float64(f.height))
			if f.pix[y*f.width+x] > thresholds[j%8]*4 {
				positions = append(positions, mgl64.Vec2{u * extent.Width, v * extent.Depth})
			}
		}
	}
	return positions, nil
}
