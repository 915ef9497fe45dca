// Package foliage wires the scatter generator to its asset store, its
// position database and a TOML user configuration.
package foliage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/df-mc/foliage/scatter"
	"github.com/df-mc/foliage/scatter/asset"
	"github.com/df-mc/foliage/scatter/posdb"
	"github.com/pelletier/go-toml"
)

// Config contains options for creating a scatter.Generator together with the
// stores it reads from and writes to.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// Workers controls the number of goroutines computing positions. If set to
	// 0 or lower, the worker count is derived from the host's available CPUs.
	Workers int
	// QueueSize limits how many computations may wait for a worker. If set to
	// 0 or lower, a queue size proportional to the worker count is chosen.
	// Increase it alongside Workers if the logs report queue saturation.
	QueueSize int
	// TickInterval is the interval between passes of the Generator when it is
	// run through Run. If 0, scatter.DefaultTickInterval is used.
	TickInterval time.Duration
	// Assets is the store that density images are resolved from. If nil, an
	// empty store is created.
	Assets *asset.Store
	// Images holds the handles of the images preloaded into Assets, keyed by
	// file name.
	Images map[string]asset.Handle
	// Provider is the scatter.Provider used to store computed positions. If
	// nil, positions are not stored and are computed every time.
	Provider scatter.Provider
	// Handler handles completion events of the Generator. If nil,
	// scatter.NopHandler is used.
	Handler scatter.Handler
	// Metrics collects per-region counters. If nil, a new registry is used.
	Metrics *scatter.Metrics
}

// New creates a scatter.Generator using the fields of conf.
func (conf Config) New() *scatter.Generator {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Assets == nil {
		conf.Assets = asset.NewStore(conf.Log)
	}
	return scatter.Config{
		Log:       conf.Log,
		Workers:   conf.Workers,
		QueueSize: conf.QueueSize,
		Assets:    conf.Assets,
		Provider:  conf.Provider,
		Handler:   conf.Handler,
		Metrics:   conf.Metrics,
	}.New()
}

// Run creates a Generator and runs it until ctx is done. Once the Generator
// is created, ready is called on the goroutine running it, so that regions
// may be registered before the first pass. The Generator is closed when Run
// returns.
func (conf Config) Run(ctx context.Context, ready func(g *scatter.Generator) error) error {
	g := conf.New()
	defer func() {
		if err := g.Close(); err != nil {
			conf.logger().Error("close generator: " + err.Error())
		}
	}()
	if ready != nil {
		if err := ready(g); err != nil {
			return err
		}
	}
	err := g.Run(ctx, conf.TickInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (conf Config) logger() *slog.Logger {
	if conf.Log == nil {
		return slog.Default()
	}
	return conf.Log
}

// UserConfig is the user configuration of the generator. It holds settings
// that may be serialised to TOML and can be converted to a Config by calling
// UserConfig.Config().
type UserConfig struct {
	Generator struct {
		// Workers is the number of goroutines computing positions. 0 uses the
		// CPU count.
		Workers int
		// QueueSize is the amount of computations that may wait for a worker.
		// 0 chooses a size proportional to Workers.
		QueueSize int
		// TicksPerSecond is the amount of passes per second.
		TicksPerSecond int
	}
	Assets struct {
		// Folder is the folder that density images are loaded from.
		Folder string
		// Preload specifies if all images in Folder are loaded on startup.
		Preload bool
		// PreloadWorkers limits the amount of images decoded at the same time
		// while preloading. 0 uses the CPU count.
		PreloadWorkers int
	}
	Store struct {
		// SaveData controls whether computed positions are saved and restored.
		// If true, the LevelDB position database is used.
		SaveData bool
		// Folder is the folder that the position database resides in.
		Folder string
	}
}

// Config converts a UserConfig to a Config. An error is returned if loading
// images or opening the position database failed.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	conf := Config{
		Log:       log,
		Workers:   uc.Generator.Workers,
		QueueSize: uc.Generator.QueueSize,
		Assets:    asset.NewStore(log),
	}
	if uc.Generator.TicksPerSecond > 0 {
		conf.TickInterval = time.Second / time.Duration(uc.Generator.TicksPerSecond)
	}
	if uc.Assets.Preload {
		if err := os.MkdirAll(uc.Assets.Folder, 0777); err != nil {
			return conf, fmt.Errorf("create asset folder: %w", err)
		}
		images, err := conf.Assets.LoadDir(context.Background(), uc.Assets.Folder, uc.Assets.PreloadWorkers)
		if err != nil {
			return conf, fmt.Errorf("preload assets: %w", err)
		}
		conf.Images = images
		log.Debug("Preloaded density images.", "count", len(images), "folder", uc.Assets.Folder)
	}
	if uc.Store.SaveData {
		db, err := posdb.Config{Log: log}.Open(uc.Store.Folder)
		if err != nil {
			return conf, fmt.Errorf("create position provider: %w", err)
		}
		conf.Provider = db
	}
	return conf, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Generator.TicksPerSecond = 20
	c.Assets.Folder = "assets"
	c.Assets.Preload = true
	c.Store.SaveData = true
	c.Store.Folder = "positions"
	return c
}

// LoadUserConfig reads the UserConfig stored in the TOML file at path. Values
// missing from the file keep their defaults. If the file does not exist, it
// is created with DefaultConfig.
func LoadUserConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		encoded, err := toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0644); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		return c, nil
	} else if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
