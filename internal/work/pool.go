// Package work provides the bounded worker pool the enrichment
// fan-out runs on. Concurrency is fixed at start; submissions beyond
// it queue rather than spawn.
package work

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hotradar/hotradar/internal/logging"
)

// Task is one unit of work.
type Task struct {
	Description string
	Fn          func(ctx context.Context) error
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Submitted   int64
	Completed   int64
	Failed      int64
	MaxInFlight int64
}

// Pool runs tasks on a fixed set of workers.
type Pool struct {
	workers  int
	workChan chan Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	submitted   atomic.Int64
	completed   atomic.Int64
	failed      atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// NewPool creates a pool. If workers <= 0, uses runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers:  workers,
		workChan: make(chan Task, 256),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	logging.Debug("Work pool starting", "workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit queues a task. Blocks when the queue is full.
func (p *Pool) Submit(t Task) {
	p.submitted.Add(1)
	select {
	case p.workChan <- t:
	case <-p.ctx.Done():
		p.failed.Add(1)
	}
}

// Drain closes the queue and waits for in-flight and queued tasks to
// finish. The pool cannot be reused afterwards.
func (p *Pool) Drain() {
	close(p.workChan)
	p.wg.Wait()
	p.cancel()
	s := p.Stats()
	logging.Debug("Work pool drained",
		"submitted", s.Submitted, "completed", s.Completed, "failed", s.Failed)
}

// Stats returns a snapshot of the counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted:   p.submitted.Load(),
		Completed:   p.completed.Load(),
		Failed:      p.failed.Load(),
		MaxInFlight: p.maxInFlight.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.workChan {
		if p.ctx.Err() != nil {
			p.failed.Add(1)
			continue
		}
		p.run(t)
	}
}

func (p *Pool) run(t Task) {
	n := p.inFlight.Add(1)
	for {
		max := p.maxInFlight.Load()
		if n <= max || p.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}
	defer p.inFlight.Add(-1)

	if err := t.Fn(p.ctx); err != nil {
		p.failed.Add(1)
		logging.Warn("Task failed", "task", t.Description, "err", err)
		return
	}
	p.completed.Add(1)
}
