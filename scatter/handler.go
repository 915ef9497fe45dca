package scatter

import "github.com/df-mc/foliage/scatter/dither"

// Handler handles the completion events of a Generator. All methods are
// called on the goroutine that calls Generator.Tick, so implementations must
// not block for long.
type Handler interface {
	// HandleStartComputation is called when the positions of a region start
	// being computed in the background.
	HandleStartComputation(id RegionID)
	// HandleFinishedComputation is called when new positions are installed for
	// a region, either after a computation, after restoring them from a
	// Provider or after registering explicit positions. The positions are
	// shared with the cache and must not be modified.
	HandleFinishedComputation(id RegionID, positions dither.Positions)
	// HandleError is called when the computation of a region failed. The
	// region keeps the positions it had before, if any.
	HandleError(id RegionID, err error)
}

// Compile time check to make sure NopHandler implements Handler.
var _ Handler = NopHandler{}

// NopHandler implements the Handler interface but does not execute any code
// when an event is called. The default handler of a Generator is NopHandler.
// Users may embed NopHandler to avoid having to implement each method.
type NopHandler struct{}

func (NopHandler) HandleStartComputation(RegionID)                     {}
func (NopHandler) HandleFinishedComputation(RegionID, dither.Positions) {}
func (NopHandler) HandleError(RegionID, error)                         {}
