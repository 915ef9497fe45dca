package scatter

import (
	"io"

	"github.com/df-mc/foliage/scatter/dither"
)

// Record is a set of computed positions together with the fingerprint of the
// inputs they were computed from.
type Record struct {
	Fingerprint uint64
	Positions   dither.Positions
}

// Provider represents a persistent store for computed positions. When the
// fingerprint of a changed region matches the stored Record, the Generator
// restores the positions instead of computing them again.
type Provider interface {
	io.Closer
	// LoadPositions loads the Record of a region. ErrNotFound is returned if
	// no Record is stored.
	LoadPositions(id RegionID) (Record, error)
	// SavePositions stores the Record of a region, replacing any Record stored
	// before.
	SavePositions(id RegionID, rec Record) error
	// DeletePositions removes the Record of a region, if any.
	DeletePositions(id RegionID) error
}

// Compile time check to make sure NopProvider implements Provider.
var _ Provider = NopProvider{}

// NopProvider implements a Provider that stores nothing. It is the default
// Provider of a Generator.
type NopProvider struct{}

func (NopProvider) LoadPositions(RegionID) (Record, error) { return Record{}, ErrNotFound }
func (NopProvider) SavePositions(RegionID, Record) error   { return nil }
func (NopProvider) DeletePositions(RegionID) error         { return nil }
func (NopProvider) Close() error                           { return nil }
