package scatter

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/foliage/scatter/dither"
	"github.com/df-mc/foliage/scatter/source"
)

// Fingerprint returns a hash of the inputs of a computation. Equal
// fingerprints mean Sample produces the same positions.
func Fingerprint(f *dither.Field, density float64, extent dither.Extent) uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], f.Sum64())
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(density))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(extent.Width))
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(extent.Depth))
	return xxhash.Sum64(buf[:])
}

// placementSum hashes the parts of a source.Config that affect the positions
// of its instances. Updates that leave the sum unchanged are ignored.
func placementSum(conf source.Config) uint64 {
	d := xxhash.New()
	var buf [16]byte
	if dm, ok := conf.DensityMap(); ok {
		_, _ = d.Write([]byte{1})
		_, _ = d.Write(dm.Image[:])
		binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(dm.Density))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(dm.Extent.Width))
		_, _ = d.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(dm.Extent.Depth))
		_, _ = d.Write(buf[:8])
	}
	if h := conf.Horizontal(); len(h) > 0 {
		_, _ = d.Write([]byte{2})
		for _, p := range h {
			binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(p.X()))
			binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Y()))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}
