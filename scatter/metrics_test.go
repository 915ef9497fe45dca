package scatter

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	a, b := RegionID{X: 0, Z: 0}, RegionID{X: -3, Z: 8}

	m.incComputations(a)
	m.incComputations(a)
	m.incRetries(b)
	m.incFailures(b)
	m.setInstances(a, 10)
	m.setInstances(b, 5)
	m.setInstances(a, 4)
	m.incVanished()
	m.incRestores()

	if m.Computations(a) != 2 || m.Computations(b) != 0 {
		t.Fatalf("unexpected computations %d and %d", m.Computations(a), m.Computations(b))
	}
	if m.Retries(b) != 1 || m.Failures(b) != 1 {
		t.Fatalf("unexpected retries %d or failures %d", m.Retries(b), m.Failures(b))
	}
	if m.Instances() != 9 || m.RegionInstances(a) != 4 {
		t.Fatalf("expected 9 instances in total and 4 for a, got %d and %d", m.Instances(), m.RegionInstances(a))
	}
	if m.Vanished() != 1 || m.Restores() != 1 {
		t.Fatalf("unexpected vanished %d or restores %d", m.Vanished(), m.Restores())
	}

	m.forget(b)
	if m.Instances() != 4 || m.Retries(b) != 0 {
		t.Fatalf("expected counters of b to be removed")
	}
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics
	m.incComputations(RegionID{})
	m.setInstances(RegionID{}, 3)
	m.forget(RegionID{})
	if m.Instances() != 0 || m.Computations(RegionID{}) != 0 || m.Vanished() != 0 {
		t.Fatalf("expected nil metrics to report zero")
	}
}

func TestRegionMorton(t *testing.T) {
	if (RegionID{X: 0, Z: 0}).Morton() >= (RegionID{X: 1, Z: 0}).Morton() {
		t.Fatalf("expected x to be the low interleaved bit")
	}
	if (RegionID{X: -1, Z: 0}).Morton() >= (RegionID{X: 0, Z: 0}).Morton() {
		t.Fatalf("expected negative coordinates to sort first")
	}
	if (RegionID{X: 1, Z: -2}).String() != "(1, -2)" {
		t.Fatalf("unexpected string %q", RegionID{X: 1, Z: -2}.String())
	}
}

func TestCacheRegions(t *testing.T) {
	c := newCache()
	c.install(RegionID{X: 0, Z: 1}, make([]mgl64.Vec2, 2))
	c.install(RegionID{X: 1, Z: 0}, make([]mgl64.Vec2, 3))
	ids := c.Regions()
	if len(ids) != 2 || ids[0] != (RegionID{X: 1, Z: 0}) {
		t.Fatalf("expected regions in Morton order, got %v", ids)
	}
	if c.Instances() != 5 {
		t.Fatalf("expected 5 instances, got %d", c.Instances())
	}
	c.remove(RegionID{X: 1, Z: 0})
	if _, ok := c.Positions(RegionID{X: 1, Z: 0}); ok || c.Len() != 1 {
		t.Fatalf("expected region to be removed")
	}
}
