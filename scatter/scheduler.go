// Package scatter computes the positions of instances, such as grass blades,
// for regions of a world. Regions driven by a density image are dithered on a
// pool of background workers; the results are cached per region and reported
// through a Handler.
//
// A Generator is owned by a single coordinating goroutine: either the one
// calling Tick, or the one started by Run. Workers never touch the
// Generator's state.
package scatter

import (
	"context"
	"errors"

	"github.com/df-mc/foliage/scatter/dither"
	"github.com/df-mc/foliage/scatter/source"
)

// region is the state the Generator keeps for a registered region.
type region struct {
	conf source.Config
	sum  uint64
	// gen changes every time the inputs of the region change, and is never
	// reused by another region. Results computed for an older generation are
	// discarded.
	gen uint64
	// pending is the computation in flight for the region, if any. A region
	// has at most one computation in flight.
	pending *Task
}

// densityDriven reports if the positions of the region are computed from a
// density image.
func (r *region) densityDriven() bool {
	_, ok := r.conf.DensityMap()
	return ok
}

// inflight is a Task together with the region generation it was started for.
type inflight struct {
	id   RegionID
	gen  uint64
	task *Task
}

// Generator computes, caches and reports the positions of regions.
type Generator struct {
	conf Config
	pool *workerPool

	regions map[RegionID]*region
	changed map[RegionID]struct{}
	// running holds the regions with a computation in flight. Unlike
	// region.pending it outlives Remove, so that a region registered again
	// does not get a second computation before the first finishes.
	running map[RegionID]struct{}
	tasks   []inflight
	gen     uint64
	retry   retryQueue
	cache   *Cache

	queue  chan transaction
	closed bool
}

// Register adds a region with the instance sources passed. Regions with
// explicit horizontal positions are installed immediately, regions with a
// density map are computed on the next pass. ErrRegionExists is returned if
// the region is already registered.
func (g *Generator) Register(id RegionID, conf source.Config) error {
	if g.closed {
		return ErrClosed
	}
	if _, ok := g.regions[id]; ok {
		return ErrRegionExists
	}
	r := &region{}
	g.regions[id] = r
	g.setConfig(id, r, conf)
	return nil
}

// Update replaces the instance sources of a region. It returns false if the
// placement of the region is unaffected by the update, in which case nothing
// is recomputed.
func (g *Generator) Update(id RegionID, conf source.Config) (bool, error) {
	if g.closed {
		return false, ErrClosed
	}
	r, ok := g.regions[id]
	if !ok {
		return false, ErrUnknownRegion
	}
	if placementSum(conf) == r.sum {
		r.conf = conf
		return false, nil
	}
	g.setConfig(id, r, conf)
	return true, nil
}

// MarkChanged marks a region for recomputation, for example after its
// density image was replaced in the asset store.
func (g *Generator) MarkChanged(id RegionID) error {
	if g.closed {
		return ErrClosed
	}
	r, ok := g.regions[id]
	if !ok {
		return ErrUnknownRegion
	}
	g.setConfig(id, r, r.conf)
	return nil
}

// Remove removes a region together with its positions. Computations still
// running for the region are discarded once they finish. Remove returns false
// if the region was not registered or the Generator is closed.
func (g *Generator) Remove(id RegionID) bool {
	if g.closed {
		return false
	}
	if _, ok := g.regions[id]; !ok {
		return false
	}
	delete(g.regions, id)
	delete(g.changed, id)
	g.cache.remove(id)
	g.conf.Metrics.forget(id)
	if err := g.conf.Provider.DeletePositions(id); err != nil {
		g.conf.Log.Warn("delete positions: "+err.Error(), "regionX", id.X, "regionZ", id.Z)
	}
	return true
}

// Positions returns the positions installed for a region and true if the
// region has any. The slice is shared and must not be modified.
func (g *Generator) Positions(id RegionID) (dither.Positions, bool) {
	return g.cache.Positions(id)
}

// Cache returns the Cache holding the positions of all regions.
func (g *Generator) Cache() *Cache {
	return g.cache
}

// Metrics returns the Metrics of the Generator.
func (g *Generator) Metrics() *Metrics {
	return g.conf.Metrics
}

// Pending returns the amount of computations in flight.
func (g *Generator) Pending() int {
	return len(g.tasks)
}

// Retrying returns the amount of regions waiting for their density image.
func (g *Generator) Retrying() int {
	return g.retry.len()
}

// Tick runs a single pass of the Generator: finished computations are
// installed, regions waiting for their image are retried and changed regions
// are submitted in Morton order. Tick never waits for a worker.
func (g *Generator) Tick(ctx context.Context) error {
	if g.closed {
		return ErrClosed
	}
	g.collect()
	g.retryPass()
	return g.schedule(ctx)
}

// Close stops the workers and closes the Provider. Queued computations are
// discarded.
func (g *Generator) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.pool.close()
	g.tasks, g.retry.entries = nil, nil
	clear(g.running)
	return g.conf.Provider.Close()
}

// setConfig stores the configuration of a region and schedules whatever its
// placement requires.
func (g *Generator) setConfig(id RegionID, r *region, conf source.Config) {
	r.conf, r.sum = conf, placementSum(conf)
	g.gen++
	r.gen = g.gen

	switch {
	case r.densityDriven():
		g.changed[id] = struct{}{}
	case len(conf.Horizontal()) > 0:
		delete(g.changed, id)
		g.install(id, dither.Positions(conf.Horizontal()))
		g.conf.Handler.HandleFinishedComputation(id, dither.Positions(conf.Horizontal()))
	default:
		delete(g.changed, id)
		g.cache.remove(id)
		g.conf.Metrics.setInstances(id, 0)
	}
}

// collect installs the results of all finished computations.
func (g *Generator) collect() {
	remaining := g.tasks[:0]
	for _, t := range g.tasks {
		res, ok := t.task.Poll()
		if !ok {
			remaining = append(remaining, t)
			continue
		}
		delete(g.running, t.id)
		g.apply(t, res)
	}
	clear(g.tasks[len(remaining):])
	g.tasks = remaining
}

func (g *Generator) apply(t inflight, res Result) {
	r, ok := g.regions[t.id]
	if !ok || r.pending != t.task {
		g.conf.Metrics.incVanished()
		g.conf.Log.Debug("discard positions: "+ErrRegionVanished.Error(), "regionX", t.id.X, "regionZ", t.id.Z)
		return
	}
	r.pending = nil
	if t.gen != r.gen {
		// The region changed while computing and is still marked changed.
		return
	}
	if res.Err != nil {
		g.conf.Metrics.incFailures(t.id)
		g.conf.Handler.HandleError(t.id, res.Err)
		return
	}
	g.install(t.id, res.Positions)
	if err := g.conf.Provider.SavePositions(t.id, Record{Fingerprint: res.Fingerprint, Positions: res.Positions}); err != nil {
		g.conf.Log.Warn("save positions: "+err.Error(), "regionX", t.id.X, "regionZ", t.id.Z)
	}
	g.conf.Handler.HandleFinishedComputation(t.id, res.Positions)
}

// retryPass attempts every region in the retry queue once.
func (g *Generator) retryPass() {
	for _, e := range g.retry.take() {
		r, ok := g.regions[e.id]
		if !ok || r.gen != e.gen {
			continue
		}
		if _, busy := g.running[e.id]; busy {
			g.retry.push(e)
			continue
		}
		g.start(e.id, r)
	}
}

// schedule starts the computation of all changed regions that have no
// computation in flight.
func (g *Generator) schedule(ctx context.Context) error {
	if len(g.changed) == 0 {
		return nil
	}
	ids := make([]RegionID, 0, len(g.changed))
	for id := range g.changed {
		ids = append(ids, id)
	}
	sortMorton(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, busy := g.running[id]; busy {
			continue
		}
		delete(g.changed, id)
		g.start(id, g.regions[id])
	}
	return nil
}

// start submits the computation of a region, restores its positions from the
// Provider, or queues it for a retry if its density image is not loaded. If
// the image failed to load, the error is reported and the region is not
// retried.
func (g *Generator) start(id RegionID, r *region) {
	dm, ok := r.conf.DensityMap()
	if !ok {
		return
	}
	field, err := g.conf.Assets.Field(dm.Image)
	if errors.Is(err, ErrAssetNotResolved) {
		g.conf.Metrics.incRetries(id)
		g.retry.push(retryEntry{id: id, gen: r.gen, conf: r.conf})
		return
	} else if err != nil {
		g.conf.Metrics.incFailures(id)
		g.conf.Log.Debug("resolve density image: "+err.Error(), "regionX", id.X, "regionZ", id.Z)
		g.conf.Handler.HandleError(id, err)
		return
	}
	fingerprint := Fingerprint(field, dm.Density, dm.Extent)
	if g.restore(id, fingerprint) {
		return
	}

	task := newTask()
	r.pending = task
	g.running[id] = struct{}{}
	g.tasks = append(g.tasks, inflight{id: id, gen: r.gen, task: task})
	g.conf.Metrics.incComputations(id)
	g.conf.Handler.HandleStartComputation(id)
	g.pool.submit(job{
		id:          id,
		field:       field,
		density:     dm.Density,
		extent:      dm.Extent,
		fingerprint: fingerprint,
		task:        task,
	})
}

// restore installs the positions stored by the Provider if they were computed
// from the same inputs.
func (g *Generator) restore(id RegionID, fingerprint uint64) bool {
	rec, err := g.conf.Provider.LoadPositions(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.conf.Log.Warn("load positions: "+err.Error(), "regionX", id.X, "regionZ", id.Z)
		}
		return false
	}
	if rec.Fingerprint != fingerprint {
		return false
	}
	g.conf.Metrics.incRestores()
	g.conf.Log.Debug("restored positions", "regionX", id.X, "regionZ", id.Z, "count", len(rec.Positions))
	g.install(id, rec.Positions)
	g.conf.Handler.HandleFinishedComputation(id, rec.Positions)
	return true
}

func (g *Generator) install(id RegionID, positions dither.Positions) {
	g.cache.install(id, positions)
	g.conf.Metrics.setInstances(id, len(positions))
}
