// Package source describes where the instances of a region come from: an
// explicit list of positions, a density map, or a combination of position,
// elevation and height sources. Contradicting sources are rejected while the
// description is built.
package source

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/df-mc/foliage/scatter/asset"
	"github.com/df-mc/foliage/scatter/dither"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultHeight is the height of instances if no height source is supplied.
const DefaultHeight = 1.0

var (
	// ErrAlreadyDefined is returned when a data source is supplied for a
	// property that another source already defines.
	ErrAlreadyDefined = errors.New("already defined")
	// ErrLengthMismatch is returned when explicit lists of positions and
	// heights have different lengths.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrEmptyInput is returned when an empty list or a zero image handle is
	// supplied.
	ErrEmptyInput = errors.New("empty input")
	// ErrNonPositiveHeight is returned when a height is zero or negative.
	ErrNonPositiveHeight = errors.New("height must be positive")
)

// Error is returned by a Builder when a data source could not be added. Err
// is one of the errors above, or a dither.DensityTooSmallError or
// dither.AreaTooSmallError for invalid density maps.
type Error struct {
	Op         string
	Capability Capability
	Err        error
}

// Error ...
func (e *Error) Error() string {
	return fmt.Sprintf("source: %s: %s: %v", e.Op, e.Capability, e.Err)
}

// Unwrap ...
func (e *Error) Unwrap() error {
	return e.Err
}

// DensityMap places instances by dithering an image across an extent.
// White pixels correspond to dense areas, black pixels to empty ones.
type DensityMap struct {
	// Image is the handle of the grayscale density image.
	Image asset.Handle
	// Density scales the amount of instances placed per unit of the extent.
	// It must not be negative.
	Density float64
	// Extent is the world-space area the image is stretched over.
	Extent dither.Extent
}

// NewDensityMap returns a DensityMap over the extent passed with a density
// of 1.
func NewDensityMap(img asset.Handle, extent dither.Extent) DensityMap {
	return DensityMap{Image: img, Density: 1, Extent: extent}
}

// ElevationMap defines the ground elevation of instances through an image.
// The image is stretched over the bounds of all instances.
type ElevationMap struct {
	Image asset.Handle
	// Height is the elevation that a white pixel maps to.
	Height float64
}

// Instance is a single explicitly placed instance.
type Instance struct {
	Position mgl64.Vec3
	Height   float64
}

// Bounds is an axis aligned box holding every instance of a Config.
type Bounds struct {
	Min, Max mgl64.Vec3
}

// Config is the validated description of the instance sources of a region.
// Slices returned by its methods are shared and must not be modified.
type Config struct {
	caps Capabilities

	horizontal    []mgl64.Vec2
	vertical      []float64
	heights       []float64
	uniformHeight float64
	elevation     ElevationMap
	density       DensityMap
}

// Capabilities returns the set of sources the Config was built from.
func (conf Config) Capabilities() Capabilities { return conf.caps }

// Horizontal returns the explicit ground plane positions, if any. X maps to
// the world X axis and Y to the world Z axis.
func (conf Config) Horizontal() []mgl64.Vec2 { return conf.horizontal }

// Vertical returns the explicit ground elevations, if any.
func (conf Config) Vertical() []float64 { return conf.vertical }

// Heights returns the per-instance heights, if any.
func (conf Config) Heights() []float64 { return conf.heights }

// UniformHeight returns the height shared by all instances and true if it was
// supplied.
func (conf Config) UniformHeight() (float64, bool) {
	return conf.uniformHeight, conf.caps.Has(UniformHeight)
}

// ElevationMap returns the elevation map and true if one was supplied.
func (conf Config) ElevationMap() (ElevationMap, bool) {
	return conf.elevation, conf.caps.Has(Elevation)
}

// DensityMap returns the density map and true if one was supplied.
func (conf Config) DensityMap() (DensityMap, bool) {
	return conf.density, conf.caps.Has(Density)
}

// Height returns the height of the instance at index i.
func (conf Config) Height(i int) float64 {
	switch {
	case conf.caps.Has(Heights):
		return conf.heights[i]
	case conf.caps.Has(UniformHeight):
		return conf.uniformHeight
	}
	return DefaultHeight
}

// maxHeight returns the tallest instance height.
func (conf Config) maxHeight() float64 {
	if conf.caps.Has(Heights) {
		return slices.Max(conf.heights)
	}
	return conf.Height(0)
}

// InstanceCount returns the amount of instances described by the Config. For
// density maps this is the size of the sampling grid, which is an upper bound
// of the amount of instances actually placed.
func (conf Config) InstanceCount() int {
	switch {
	case len(conf.horizontal) > 0:
		return len(conf.horizontal)
	case len(conf.vertical) > 0:
		return len(conf.vertical)
	case len(conf.heights) > 0:
		return len(conf.heights)
	case conf.caps.Has(Density):
		d := conf.density
		return int(math.Abs(d.Density*d.Extent.Width)) * int(math.Abs(d.Density*d.Extent.Depth))
	}
	return 0
}

// Bounds returns the smallest box containing all instances including their
// height. Density maps span their full extent, elevation maps span from zero
// up to their height.
func (conf Config) Bounds() Bounds {
	if !conf.caps.DefinesPlacement() {
		return Bounds{}
	}
	inf := math.Inf(1)
	lo, hi := mgl64.Vec3{inf, inf, inf}, mgl64.Vec3{-inf, -inf, -inf}
	include := func(p mgl64.Vec3) {
		for i := range 3 {
			lo[i], hi[i] = min(lo[i], p[i]), max(hi[i], p[i])
		}
	}
	height := conf.maxHeight()

	if conf.caps.Has(Density) {
		ext := conf.density.Extent
		floor, ceil := 0.0, height
		switch {
		case conf.caps.Has(Elevation):
			ceil = conf.elevation.Height + height
		case len(conf.vertical) > 0:
			floor, ceil = slices.Min(conf.vertical), slices.Max(conf.vertical)+height
		}
		include(mgl64.Vec3{0, floor, 0})
		include(mgl64.Vec3{ext.Width, ceil, ext.Depth})
		return Bounds{Min: lo, Max: hi}
	}
	for i, xz := range conf.horizontal {
		var y float64
		if len(conf.vertical) > 0 {
			y = conf.vertical[i]
		}
		top := y + conf.Height(i)
		if conf.caps.Has(Elevation) {
			top = conf.elevation.Height + conf.Height(i)
		}
		include(mgl64.Vec3{xz.X(), y, xz.Y()})
		include(mgl64.Vec3{xz.X(), top, xz.Y()})
	}
	return Bounds{Min: lo, Max: hi}
}

// Builder assembles a Config one data source at a time. The first error
// aborts construction: later calls have no effect and Build returns the
// error.
type Builder struct {
	conf Config
	err  error
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// FromInstances returns a Builder with the positions and heights of the
// instances passed.
func FromInstances(instances []Instance) *Builder {
	b := New()
	if len(instances) == 0 {
		return b.fail("FromInstances", Horizontal, ErrEmptyInput)
	}
	positions := make([]mgl64.Vec3, len(instances))
	heights := make([]float64, len(instances))
	for i, inst := range instances {
		positions[i], heights[i] = inst.Position, inst.Height
	}
	return b.WithPositions(positions).WithHeights(heights)
}

// WithPositions defines the full world positions of all instances. It is
// equivalent to calling WithHorizontal and WithVertical.
func (b *Builder) WithPositions(positions []mgl64.Vec3) *Builder {
	if len(positions) == 0 {
		return b.fail("WithPositions", Horizontal, ErrEmptyInput)
	}
	horizontal := make([]mgl64.Vec2, len(positions))
	vertical := make([]float64, len(positions))
	for i, p := range positions {
		horizontal[i], vertical[i] = mgl64.Vec2{p.X(), p.Z()}, p.Y()
	}
	return b.WithHorizontal(horizontal).WithVertical(vertical)
}

// WithHorizontal defines the ground plane positions of all instances. It
// cannot be combined with a density map. Supplying only horizontal positions
// leaves room for an elevation map.
func (b *Builder) WithHorizontal(positions []mgl64.Vec2) *Builder {
	return b.add("WithHorizontal", Horizontal, len(positions) == 0, func(c *Config) {
		c.horizontal = slices.Clone(positions)
	})
}

// WithVertical defines the ground elevation of all instances. It cannot be
// combined with an elevation map.
func (b *Builder) WithVertical(elevations []float64) *Builder {
	return b.add("WithVertical", Vertical, len(elevations) == 0, func(c *Config) {
		c.vertical = slices.Clone(elevations)
	})
}

// WithHeights defines the height of each instance. It cannot be combined with
// a uniform height.
func (b *Builder) WithHeights(heights []float64) *Builder {
	if slices.ContainsFunc(heights, func(h float64) bool { return !(h > 0) }) {
		return b.fail("WithHeights", Heights, ErrNonPositiveHeight)
	}
	return b.add("WithHeights", Heights, len(heights) == 0, func(c *Config) {
		c.heights = slices.Clone(heights)
	})
}

// WithUniformHeight gives every instance the same height. It cannot be
// combined with per-instance heights.
func (b *Builder) WithUniformHeight(height float64) *Builder {
	if !(height > 0) {
		return b.fail("WithUniformHeight", UniformHeight, ErrNonPositiveHeight)
	}
	return b.add("WithUniformHeight", UniformHeight, false, func(c *Config) {
		c.uniformHeight = height
	})
}

// WithElevationMap loads the ground elevation of instances from an image. It
// cannot be combined with explicit vertical positions.
func (b *Builder) WithElevationMap(m ElevationMap) *Builder {
	if !(m.Height > 0) && !m.Image.IsZero() {
		return b.fail("WithElevationMap", Elevation, ErrNonPositiveHeight)
	}
	return b.add("WithElevationMap", Elevation, m.Image.IsZero(), func(c *Config) {
		c.elevation = m
	})
}

// WithDensityMap places instances by dithering a density image. It cannot be
// combined with explicit horizontal positions. Negative densities and extents
// below dither.MinArea are rejected.
func (b *Builder) WithDensityMap(m DensityMap) *Builder {
	if !m.Image.IsZero() {
		if err := dither.CheckInputs(m.Density, m.Extent); err != nil {
			return b.fail("WithDensityMap", Density, err)
		}
	}
	return b.add("WithDensityMap", Density, m.Image.IsZero(), func(c *Config) {
		c.density = m
	})
}

// Err returns the first error encountered by the Builder, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the Config assembled so far or the first error encountered.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if err := b.conf.validate(); err != nil {
		return Config{}, &Error{Op: "Build", Capability: Heights, Err: err}
	}
	return b.conf, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() Config {
	conf, err := b.Build()
	if err != nil {
		panic(err)
	}
	return conf
}

// add sets a capability after checking for empty input and for conflicts
// with capabilities already set. The Config is validated again afterwards.
func (b *Builder) add(op string, capability Capability, empty bool, set func(c *Config)) *Builder {
	if b.err != nil {
		return b
	}
	if empty {
		return b.fail(op, capability, ErrEmptyInput)
	}
	if b.conf.caps.defines(capability.group()) {
		return b.fail(op, capability, ErrAlreadyDefined)
	}
	set(&b.conf)
	b.conf.caps = b.conf.caps.with(capability)
	if err := b.conf.validate(); err != nil {
		return b.fail(op, capability, err)
	}
	return b
}

func (b *Builder) fail(op string, capability Capability, err error) *Builder {
	if b.err == nil {
		b.err = &Error{Op: op, Capability: capability, Err: err}
	}
	return b
}

// validate checks that all explicit lists describe the same instances.
func (conf Config) validate() error {
	n := -1
	for _, l := range []int{len(conf.horizontal), len(conf.vertical), len(conf.heights)} {
		if l == 0 {
			continue
		}
		if n != -1 && l != n {
			return ErrLengthMismatch
		}
		n = l
	}
	return nil
}
