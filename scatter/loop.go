package scatter

import (
	"context"
	"time"
)

// DefaultTickInterval is the interval between passes used by Run if no
// interval is passed.
const DefaultTickInterval = time.Second / 20

// transaction is a function queued through Exec.
type transaction struct {
	f func(g *Generator)
	c chan struct{}
}

// Exec runs f on the goroutine running Run and returns a channel that is
// closed once f returns. Exec must only be used while Run is running; it
// blocks until Run picks up f.
func (g *Generator) Exec(f func(g *Generator)) <-chan struct{} {
	c := make(chan struct{})
	g.queue <- transaction{f: f, c: c}
	return c
}

// Run ticks the Generator every interval and runs functions queued through
// Exec in between, until ctx is done or the Generator is closed. The
// goroutine calling Run becomes the owner of the Generator.
func (g *Generator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	tc := time.NewTicker(interval)
	defer tc.Stop()
	for {
		select {
		case <-tc.C:
			if err := g.Tick(ctx); err != nil {
				return err
			}
		case tx := <-g.queue:
			tx.f(g)
			close(tx.c)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
