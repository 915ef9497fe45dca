package scatter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/foliage/scatter/asset"
	"github.com/df-mc/foliage/scatter/dither"
	"github.com/df-mc/foliage/scatter/source"
)

// memAssets is an AssetSource whose images can be added while the Generator
// is running.
type memAssets struct {
	mu     sync.Mutex
	fields map[asset.Handle]*dither.Field
}

func newMemAssets() *memAssets {
	return &memAssets{fields: make(map[asset.Handle]*dither.Field)}
}

func (a *memAssets) Field(h asset.Handle) (*dither.Field, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.fields[h]
	if !ok {
		return nil, ErrAssetNotResolved
	}
	return f, nil
}

func (a *memAssets) set(h asset.Handle, f *dither.Field) {
	a.mu.Lock()
	a.fields[h] = f
	a.mu.Unlock()
}

// memProvider is a Provider keeping records in memory.
type memProvider struct {
	mu      sync.Mutex
	records map[RegionID]Record
	saves   int
	deletes int
}

func newMemProvider() *memProvider {
	return &memProvider{records: make(map[RegionID]Record)}
}

func (p *memProvider) LoadPositions(id RegionID) (Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (p *memProvider) SavePositions(id RegionID, rec Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[id] = rec
	p.saves++
	return nil
}

func (p *memProvider) DeletePositions(id RegionID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.records, id)
	p.deletes++
	return nil
}

func (p *memProvider) Close() error { return nil }

// gate is a sampleFunc that blocks until released.
type gate struct {
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{release: make(chan struct{})}
}

func (g *gate) sample(f *dither.Field, density float64, extent dither.Extent) (dither.Positions, error) {
	<-g.release
	return dither.Sample(f, density, extent)
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}

func newTestGenerator(t *testing.T, conf Config) (*Generator, *EventBuffer) {
	t.Helper()
	events := &EventBuffer{}
	if conf.Handler == nil {
		conf.Handler = events
	}
	if conf.Workers == 0 {
		conf.Workers = 2
	}
	g := conf.New()
	t.Cleanup(func() { _ = g.Close() })
	return g, events
}

func densityConfig(t *testing.T, img asset.Handle, density float64, w, d float64) source.Config {
	t.Helper()
	conf, err := source.New().WithDensityMap(source.DensityMap{
		Image:   img,
		Density: density,
		Extent:  dither.Extent{Width: w, Depth: d},
	}).Build()
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	return conf
}

// settle waits for every computation in flight and ticks until the Generator
// has nothing left to do.
func settle(t *testing.T, g *Generator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 100; i++ {
		for _, inf := range g.tasks {
			if _, err := inf.task.Wait(ctx); err != nil {
				t.Fatalf("wait for computation: %v", err)
			}
		}
		if err := g.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
		if len(g.tasks) == 0 && len(g.changed) == 0 {
			return
		}
	}
	t.Fatalf("generator did not settle")
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
