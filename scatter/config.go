package scatter

import (
	"log/slog"
	"runtime"

	"github.com/df-mc/foliage/scatter/asset"
	"github.com/df-mc/foliage/scatter/dither"
)

// AssetSource resolves the density images of regions. Field returns an error
// wrapping ErrAssetNotResolved for images that are not loaded yet, in which
// case the region is retried on the next pass. Any other error is reported to
// the Handler and the region is left alone until it changes again.
// *asset.Store implements AssetSource.
type AssetSource interface {
	Field(h asset.Handle) (*dither.Field, error)
}

// Config holds the settings of a Generator. The zero value is usable apart
// from Assets, which must be set.
type Config struct {
	// Log is the Logger used to log errors and warnings. If nil, Log is set
	// to slog.Default().
	Log *slog.Logger
	// Workers is the amount of goroutines computing positions. If 0 or lower,
	// the CPU count is used.
	Workers int
	// QueueSize is the amount of computations that may wait for a worker
	// before submitting falls back to asynchronous enqueueing. If 0 or lower,
	// four times the amount of workers is used.
	QueueSize int
	// Assets resolves density images.
	Assets AssetSource
	// Provider stores computed positions. If nil, NopProvider is used and
	// nothing is stored.
	Provider Provider
	// Handler handles completion events. If nil, NopHandler is used.
	Handler Handler
	// Metrics collects per-region counters. If nil, a new Metrics is created.
	Metrics *Metrics

	sample sampleFunc
}

// New creates a Generator using the settings of the Config. New panics if
// Assets is nil.
func (conf Config) New() *Generator {
	if conf.Assets == nil {
		panic("scatter: generator requires asset source")
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Workers <= 0 {
		conf.Workers = runtime.NumCPU()
	}
	if conf.QueueSize <= 0 {
		conf.QueueSize = conf.Workers * 4
	}
	if conf.Provider == nil {
		conf.Provider = NopProvider{}
	}
	if conf.Handler == nil {
		conf.Handler = NopHandler{}
	}
	if conf.Metrics == nil {
		conf.Metrics = NewMetrics()
	}
	if conf.sample == nil {
		conf.sample = dither.Sample
	}
	return &Generator{
		conf:    conf,
		pool:    newWorkerPool(conf.Log, conf.Workers, conf.QueueSize, conf.sample),
		regions: make(map[RegionID]*region),
		changed: make(map[RegionID]struct{}),
		running: make(map[RegionID]struct{}),
		cache:   newCache(),
		queue:   make(chan transaction),
	}
}
