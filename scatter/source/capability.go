package source

import "strings"

// Capability is a data source that may be supplied to a Builder.
type Capability uint8

const (
	// Horizontal is an explicit list of positions on the ground plane.
	Horizontal Capability = iota
	// Vertical is an explicit list of ground elevations, one per instance.
	Vertical
	// Heights is an explicit list of instance heights.
	Heights
	// UniformHeight is a single height shared by every instance.
	UniformHeight
	// Elevation is an image that defines the ground elevation.
	Elevation
	// Density is an image that defines where instances are placed.
	Density

	capabilityCount
)

// String ...
func (c Capability) String() string {
	switch c {
	case Horizontal:
		return "horizontal positions"
	case Vertical:
		return "vertical positions"
	case Heights:
		return "per-instance heights"
	case UniformHeight:
		return "uniform height"
	case Elevation:
		return "elevation map"
	case Density:
		return "density map"
	}
	return "unknown"
}

// group is a set of capabilities that each define the same property of the
// instances. At most one capability of a group can be supplied.
type group uint8

const (
	groupPlacement group = iota
	groupGround
	groupHeight
)

func (c Capability) group() group {
	switch c {
	case Horizontal, Density:
		return groupPlacement
	case Vertical, Elevation:
		return groupGround
	}
	return groupHeight
}

// Capabilities is the set of data sources a Config was built from.
type Capabilities struct {
	set [capabilityCount]bool
}

// Has reports if c holds the capability passed.
func (c Capabilities) Has(capability Capability) bool {
	return capability < capabilityCount && c.set[capability]
}

// DefinesPlacement reports if the horizontal placement of instances is
// defined, either explicitly or through a density map.
func (c Capabilities) DefinesPlacement() bool {
	return c.defines(groupPlacement)
}

// DefinesGround reports if the ground elevation of instances is defined,
// either explicitly or through an elevation map.
func (c Capabilities) DefinesGround() bool {
	return c.defines(groupGround)
}

// DefinesHeight reports if instance heights are defined, either per instance
// or uniformly.
func (c Capabilities) DefinesHeight() bool {
	return c.defines(groupHeight)
}

// Empty reports if no capability is set.
func (c Capabilities) Empty() bool {
	return c == Capabilities{}
}

func (c Capabilities) defines(g group) bool {
	for capability, ok := range c.set {
		if ok && Capability(capability).group() == g {
			return true
		}
	}
	return false
}

func (c Capabilities) with(capability Capability) Capabilities {
	c.set[capability] = true
	return c
}

// String lists the capabilities in c, separated by commas.
func (c Capabilities) String() string {
	names := make([]string, 0, capabilityCount)
	for capability, ok := range c.set {
		if ok {
			names = append(names, Capability(capability).String())
		}
	}
	return strings.Join(names, ", ")
}
