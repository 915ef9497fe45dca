package scatter

import "fmt"

// RegionID identifies a region of instances. Regions usually correspond to
// chunks of the host world, but the generator attaches no meaning to the
// coordinates other than ordering.
type RegionID struct {
	X, Z int32
}

// Morton returns the deterministic order value for the region.
func (id RegionID) Morton() uint64 {
	return morton2(toUnsigned(id.X), toUnsigned(id.Z))
}

// String ...
func (id RegionID) String() string {
	return fmt.Sprintf("(%d, %d)", id.X, id.Z)
}

func toUnsigned(v int32) uint32 {
	return uint32(v) ^ (1 << 31)
}

func splitBy1(x uint32) uint64 {
	x64 := uint64(x)
	x64 = (x64 | x64<<16) & 0x0000FFFF0000FFFF
	x64 = (x64 | x64<<8) & 0x00FF00FF00FF00FF
	x64 = (x64 | x64<<4) & 0x0F0F0F0F0F0F0F0F
	x64 = (x64 | x64<<2) & 0x3333333333333333
	x64 = (x64 | x64<<1) & 0x5555555555555555
	return x64
}

func morton2(x, z uint32) uint64 {
	return splitBy1(x) | splitBy1(z)<<1
}
