package scatter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df-mc/foliage/scatter/dither"
)

// Result is the outcome of the computation of a region.
type Result struct {
	Region      RegionID
	Positions   dither.Positions
	Fingerprint uint64
	Err         error
}

// Task is a computation submitted to the worker pool. It resolves exactly
// once.
type Task struct {
	done chan struct{}
	once sync.Once
	res  Result
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Done returns a channel that is closed once the Task is resolved.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Poll returns the Result of the Task and true if it is resolved. Poll never
// blocks.
func (t *Task) Poll() (Result, bool) {
	select {
	case <-t.done:
		return t.res, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the Task is resolved or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (t *Task) resolve(res Result) {
	t.once.Do(func() {
		t.res = res
		close(t.done)
	})
}

// sampleFunc computes positions. It is dither.Sample outside of tests.
type sampleFunc func(f *dither.Field, density float64, extent dither.Extent) (dither.Positions, error)

// job holds the immutable inputs of a computation.
type job struct {
	id          RegionID
	field       *dither.Field
	density     float64
	extent      dither.Extent
	fingerprint uint64
	task        *Task
}

// workerPool runs computations on a fixed amount of goroutines. Workers only
// see the inputs of a job and hand results back through its Task.
type workerPool struct {
	log     *slog.Logger
	sample  sampleFunc
	workers int

	queue     chan job
	closing   chan struct{}
	closed    atomic.Bool
	running   sync.WaitGroup
	enqueuing sync.WaitGroup

	// saturation counts how often jobs had to be enqueued asynchronously
	// because the queue was full. lastSaturationLog rate-limits the warning.
	saturation        atomic.Uint64
	lastSaturationLog atomic.Uint64
}

func newWorkerPool(log *slog.Logger, workers, queueSize int, sample sampleFunc) *workerPool {
	p := &workerPool{
		log:     log,
		sample:  sample,
		workers: workers,
		queue:   make(chan job, queueSize),
		closing: make(chan struct{}),
	}
	p.running.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// submit hands a job to the workers without blocking. If the pool is closed,
// the Task resolves with ErrClosed.
func (p *workerPool) submit(j job) {
	if p.closed.Load() {
		j.task.resolve(Result{Region: j.id, Err: ErrClosed})
		return
	}
	select {
	case p.queue <- j:
	default:
		p.enqueuing.Add(1)
		go p.enqueue(j)
		p.handleBackpressure()
	}
}

// enqueue waits for room in the queue.
func (p *workerPool) enqueue(j job) {
	defer p.enqueuing.Done()
	select {
	case <-p.closing:
		j.task.resolve(Result{Region: j.id, Err: ErrClosed})
	case p.queue <- j:
	}
}

func (p *workerPool) worker() {
	defer p.running.Done()
	for {
		select {
		case j := <-p.queue:
			p.run(j)
		case <-p.closing:
			p.drain()
			return
		}
	}
}

// run computes a job. The Task is always resolved, also if the computation
// panics.
func (p *workerPool) run(j job) {
	res := Result{Region: j.id, Fingerprint: j.fingerprint}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("compute positions: panic", "error", fmt.Sprint(r), "regionX", j.id.X, "regionZ", j.id.Z)
			res.Positions = nil
			res.Err = &SchedulingError{Region: j.id, Err: fmt.Errorf("panic: %v", r)}
		}
		j.task.resolve(res)
	}()
	res.Positions, res.Err = p.sample(j.field, j.density, j.extent)
}

// drain resolves all queued jobs with ErrClosed.
func (p *workerPool) drain() {
	for {
		select {
		case j := <-p.queue:
			j.task.resolve(Result{Region: j.id, Err: ErrClosed})
		default:
			return
		}
	}
}

// close stops the workers. Computations already running finish normally,
// queued jobs resolve with ErrClosed.
func (p *workerPool) close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.closing)
	p.enqueuing.Wait()
	p.running.Wait()
	p.drain()
}

func (p *workerPool) handleBackpressure() {
	count := p.saturation.Add(1)
	now := uint64(time.Now().UnixNano())
	last := p.lastSaturationLog.Load()

	if last != 0 && time.Duration(now-last) < time.Minute {
		return
	}
	if !p.lastSaturationLog.CompareAndSwap(last, now) {
		return
	}
	p.log.Warn(
		"scatter worker queue saturated: computation backlog detected.",
		"queued_tasks", count,
		"queue_size", cap(p.queue),
		"workers", p.workers,
	)
}
