package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/df-mc/foliage"
	"github.com/df-mc/foliage/scatter"
	"github.com/df-mc/foliage/scatter/dither"
	"github.com/df-mc/foliage/scatter/source"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path of the TOML configuration file")
		imagePath  = flag.String("image", "", "path of the density image")
		density    = flag.Float64("density", 1, "instances per unit of the extent along each axis")
		width      = flag.Float64("width", 16, "width of the extent")
		depth      = flag.Float64("depth", 16, "depth of the extent")
		height     = flag.Float64("height", 0, "uniform height of the instances, 0 for the default")
		dump       = flag.Bool("dump", false, "print every position")
		timeout    = flag.Duration("timeout", 30*time.Second, "maximum time to wait for the positions")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if *imagePath == "" {
		log.Error("no density image passed, use -image")
		os.Exit(2)
	}

	uc, err := foliage.LoadUserConfig(*configPath)
	if err != nil {
		log.Error("load config: " + err.Error())
		os.Exit(1)
	}
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("create config: " + err.Error())
		os.Exit(1)
	}
	results := make(chan scatter.Event, 1)
	conf.Handler = resultHandler{results: results}

	img := conf.Assets.LoadAsync(*imagePath)
	builder := source.New().WithDensityMap(source.DensityMap{
		Image:   img,
		Density: *density,
		Extent:  dither.Extent{Width: *width, Depth: *depth},
	})
	if *height > 0 {
		builder.WithUniformHeight(*height)
	}
	regionConf, err := builder.Build()
	if err != nil {
		log.Error("build region: " + err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	var (
		region  = scatter.RegionID{}
		metrics *scatter.Metrics
		running = make(chan error, 1)
	)
	go func() {
		running <- conf.Run(ctx, func(g *scatter.Generator) error {
			metrics = g.Metrics()
			return g.Register(region, regionConf)
		})
	}()

	var ev scatter.Event
	select {
	case ev = <-results:
	case err := <-running:
		if err == nil {
			err = ctx.Err()
		}
		log.Error("run generator: " + err.Error())
		os.Exit(1)
	}
	cancel()
	if err := <-running; err != nil {
		log.Error("run generator: " + err.Error())
	}
	if ev.Kind == scatter.EventError {
		log.Error("compute positions: "+ev.Err.Error(), "image", *imagePath)
		os.Exit(1)
	}

	p := message.NewPrinter(language.English)
	bounds := regionConf.Bounds()
	p.Printf("%d instances placed over %.2f x %.2f (grid of %d cells)\n", len(ev.Positions), *width, *depth, regionConf.InstanceCount())
	p.Printf("bounds: min %v, max %v, restored: %v\n", bounds.Min, bounds.Max, metrics.Restores() > 0)
	if *dump {
		for _, pos := range ev.Positions {
			fmt.Printf("%g %g\n", pos.X(), pos.Y())
		}
	}
}

// resultHandler passes the first finished or failed computation on to a
// channel.
type resultHandler struct {
	scatter.NopHandler
	results chan<- scatter.Event
}

func (h resultHandler) HandleFinishedComputation(id scatter.RegionID, positions dither.Positions) {
	h.send(scatter.Event{Kind: scatter.EventFinished, Region: id, Positions: positions})
}

func (h resultHandler) HandleError(id scatter.RegionID, err error) {
	h.send(scatter.Event{Kind: scatter.EventError, Region: id, Err: err})
}

func (h resultHandler) send(ev scatter.Event) {
	select {
	case h.results <- ev:
	default:
	}
}
