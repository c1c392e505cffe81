package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/chenjianlong/filetask/pkg/store"
	"github.com/chenjianlong/filetask/pkg/task"
)

var ErrStopped = errors.New("worker pool is stopped")

// Runner executes one task. Its ctx carries the task deadline; the returned
// Result becomes the task's terminal result.
type Runner func(ctx context.Context, t *task.Task) task.Result

type Options struct {
	MaxConcurrency int
	// QueueLimit rejects Submit with CapacityExceeded once this many tasks are
	// waiting. Zero means unbounded.
	QueueLimit int
	Timeout    time.Duration
	Store      *store.Store
	Metrics    *Metrics
	Logger     *slog.Logger
}

type WorkerPool struct {
	opts Options
	run  Runner

	mu       sync.Mutex
	queue    []*task.Task
	active   int
	peak     int
	closed   bool
	signal   chan struct{}
	draining chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options, run Runner) *WorkerPool {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		opts:     opts,
		run:      run,
		signal:   make(chan struct{}, 1),
		draining: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < opts.MaxConcurrency; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *WorkerPool) Store() *store.Store {
	return p.opts.Store
}

// Submit enqueues t and registers it with the store. It never blocks.
func (p *WorkerPool) Submit(t *task.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrStopped
	}
	if p.opts.QueueLimit > 0 && len(p.queue) >= p.opts.QueueLimit {
		return task.Errorf(task.CapacityExceeded, "queue limit %d reached", p.opts.QueueLimit)
	}

	p.opts.Store.Register(t.ID)
	p.queue = append(p.queue, t)
	p.signalLocked()
	p.opts.Logger.Debug("task queued", "task", t.ID, "kind", t.Kind, "path", t.Path, "queued", len(p.queue))
	return nil
}

// Cancel requests cancellation of t. A task that has not been picked up yet
// gets its Cancelled result published right away.
func (p *WorkerPool) Cancel(t *task.Task) {
	if t.Cancel() {
		p.publish(t, task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled")))
	}
}

// Active returns the number of tasks running right now.
func (p *WorkerPool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Peak returns the highest Active value seen so far.
func (p *WorkerPool) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

func (p *WorkerPool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Stop cancels every queued task, interrupts running ones and waits for the
// workers to exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.cancel()
		p.wg.Wait()
		return
	}
	p.closed = true
	dropped := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, t := range dropped {
		p.Cancel(t)
	}
	p.cancel()
	p.wg.Wait()
}

// StopWait runs every queued task to completion, then stops the workers.
func (p *WorkerPool) StopWait() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.draining)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		t, ok := p.next()
		if !ok {
			return
		}
		p.execute(t)
	}
}

func (p *WorkerPool) next() (*task.Task, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			t := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			if len(p.queue) > 0 {
				p.signalLocked()
			}
			p.mu.Unlock()
			return t, true
		}
		p.mu.Unlock()

		select {
		case <-p.ctx.Done():
			return nil, false
		case <-p.draining:
			p.mu.Lock()
			empty := len(p.queue) == 0
			p.mu.Unlock()
			if empty {
				return nil, false
			}
		case <-p.signal:
		}
	}
}

func (p *WorkerPool) execute(t *task.Task) {
	if !t.Start() {
		p.opts.Logger.Debug("skipping task cancelled before pickup", "task", t.ID)
		return
	}
	p.acquire()
	defer p.release()

	started := time.Now()
	ctx, cancel := context.WithTimeout(p.ctx, p.opts.Timeout)
	defer cancel()

	done := make(chan task.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.opts.Logger.Error("task panicked", "task", t.ID, "panic", r, "stack", string(debug.Stack()))
				done <- task.Failure(t.ID, task.Errorf(task.Internal, "internal error: %v", r))
			}
		}()
		done <- p.run(ctx, t)
	}()

	var res task.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res = task.Failure(t.ID, task.Errorf(task.Timeout, "timed out after %s", p.opts.Timeout))
		} else {
			res = task.Failure(t.ID, task.Errorf(task.Cancelled, "cancelled"))
		}
	}

	if !t.Finish(res) {
		p.opts.Logger.Error("task left running state unexpectedly", "task", t.ID, "status", t.Status())
		return
	}
	p.opts.Metrics.observe(t, t.Status(), time.Since(started))
	p.publish(t, res)
}

func (p *WorkerPool) publish(t *task.Task, res task.Result) {
	if err := p.opts.Store.Put(t.ID, res); err != nil {
		p.opts.Logger.Error("failed to store result", "task", t.ID, "error", err)
		return
	}
	attrs := []any{"task", t.ID, "kind", t.Kind, "status", res.Status(), "attempts", t.Attempts()}
	if res.Err != nil {
		attrs = append(attrs, "error", fmt.Sprintf("%s: %s", res.Err.Kind, res.Err.Error()))
	}
	p.opts.Logger.Debug("task finished", attrs...)
}

func (p *WorkerPool) acquire() {
	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	n := p.active
	p.mu.Unlock()
	p.opts.Metrics.setActive(n)
}

func (p *WorkerPool) release() {
	p.mu.Lock()
	if p.active > 0 {
		p.active--
	}
	n := p.active
	p.mu.Unlock()
	p.opts.Metrics.setActive(n)
}

func (p *WorkerPool) signalLocked() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}
