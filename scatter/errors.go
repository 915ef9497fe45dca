package scatter

import (
	"errors"
	"fmt"

	"github.com/df-mc/foliage/scatter/asset"
)

var (
	// ErrAssetNotResolved is returned by an AssetSource when the density image
	// of a region is not loaded yet. Such regions are retried on every pass.
	ErrAssetNotResolved = asset.ErrNotResolved
	// ErrRegionVanished is used when a computation finishes for a region that
	// was removed in the meantime. The result is discarded.
	ErrRegionVanished = errors.New("scatter: region vanished")
	// ErrUnknownRegion is returned when operating on a region that was never
	// registered.
	ErrUnknownRegion = errors.New("scatter: unknown region")
	// ErrRegionExists is returned by Register for regions already registered.
	ErrRegionExists = errors.New("scatter: region already registered")
	// ErrClosed is returned for computations that could not run because the
	// Generator was closed.
	ErrClosed = errors.New("scatter: generator closed")
	// ErrNotFound is returned by a Provider that holds no positions for a
	// region.
	ErrNotFound = errors.New("scatter: positions not found")
)

// SchedulingError is passed to Handler.HandleError when the computation of a
// region failed because of the scheduling machinery rather than its inputs,
// for example when the computation panicked.
type SchedulingError struct {
	Region RegionID
	Err    error
}

// Error ...
func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scatter: region %v: %v", e.Region, e.Err)
}

// Unwrap ...
func (e *SchedulingError) Unwrap() error {
	return e.Err
}
