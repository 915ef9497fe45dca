package scatter

import (
	"sync"

	"github.com/brentp/intintmap"
)

// Metrics tracks per-region counters for diagnostics. A nil *Metrics is valid
// and discards everything.
type Metrics struct {
	mu sync.Mutex

	computations *intintmap.Map
	retries      *intintmap.Map
	failures     *intintmap.Map
	instances    *intintmap.Map

	total    int64
	vanished uint64
	restores uint64
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		computations: intintmap.New(64, 0.6),
		retries:      intintmap.New(64, 0.6),
		failures:     intintmap.New(64, 0.6),
		instances:    intintmap.New(64, 0.6),
	}
}

func metricsKey(id RegionID) int64 {
	return int64(id.Morton())
}

// Computations returns how often the positions of a region were computed.
func (m *Metrics) Computations(id RegionID) int64 {
	return m.get(func(m *Metrics) *intintmap.Map { return m.computations }, id)
}

// Retries returns how often a region waited for its density image.
func (m *Metrics) Retries(id RegionID) int64 {
	return m.get(func(m *Metrics) *intintmap.Map { return m.retries }, id)
}

// Failures returns how often the computation of a region failed.
func (m *Metrics) Failures(id RegionID) int64 {
	return m.get(func(m *Metrics) *intintmap.Map { return m.failures }, id)
}

// RegionInstances returns the amount of positions installed for a region.
func (m *Metrics) RegionInstances(id RegionID) int64 {
	return m.get(func(m *Metrics) *intintmap.Map { return m.instances }, id)
}

// Instances returns the amount of positions installed across all regions.
func (m *Metrics) Instances() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Vanished returns how many results were discarded because their region was
// removed while computing.
func (m *Metrics) Vanished() uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vanished
}

// Restores returns how many times positions were restored from a Provider.
func (m *Metrics) Restores() uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restores
}

func (m *Metrics) get(table func(m *Metrics) *intintmap.Map, id RegionID) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, _ := table(m).Get(metricsKey(id))
	return v
}

func (m *Metrics) inc(table func(m *Metrics) *intintmap.Map, id RegionID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, key := table(m), metricsKey(id)
	v, _ := t.Get(key)
	t.Put(key, v+1)
}

func (m *Metrics) incComputations(id RegionID) {
	m.inc(func(m *Metrics) *intintmap.Map { return m.computations }, id)
}

func (m *Metrics) incRetries(id RegionID) {
	m.inc(func(m *Metrics) *intintmap.Map { return m.retries }, id)
}

func (m *Metrics) incFailures(id RegionID) {
	m.inc(func(m *Metrics) *intintmap.Map { return m.failures }, id)
}

func (m *Metrics) incVanished() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.vanished++
	m.mu.Unlock()
}

func (m *Metrics) incRestores() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.restores++
	m.mu.Unlock()
}

// setInstances stores the amount of positions installed for a region.
func (m *Metrics) setInstances(id RegionID, n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricsKey(id)
	old, _ := m.instances.Get(key)
	m.total += int64(n) - old
	m.instances.Put(key, int64(n))
}

// forget removes all counters of a region.
func (m *Metrics) forget(id RegionID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricsKey(id)
	old, _ := m.instances.Get(key)
	m.total -= old
	m.instances.Del(key)
	m.computations.Del(key)
	m.retries.Del(key)
	m.failures.Del(key)
}
