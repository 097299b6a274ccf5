package work

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(3)
	p.Start(context.Background())

	var ran atomic.Int64
	for i := 0; i < 20; i++ {
		p.Submit(Task{Description: "count", Fn: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
	}
	p.Drain()

	if got := ran.Load(); got != 20 {
		t.Errorf("ran = %d, want 20", got)
	}
	s := p.Stats()
	if s.Completed != 20 || s.Failed != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPoolConcurrencyNeverExceedsWorkers(t *testing.T) {
	const workers = 3
	p := NewPool(workers)
	p.Start(context.Background())

	var inFlight, peak atomic.Int64
	for i := 0; i < 50; i++ {
		p.Submit(Task{Description: "slow", Fn: func(ctx context.Context) error {
			n := inFlight.Add(1)
			for {
				m := peak.Load()
				if n <= m || peak.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		}})
	}
	p.Drain()

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want <= %d", got, workers)
	}
	if got := p.Stats().MaxInFlight; got > workers {
		t.Errorf("pool-reported max in flight = %d, want <= %d", got, workers)
	}
	if p.Stats().Completed != 50 {
		t.Errorf("completed = %d, want 50", p.Stats().Completed)
	}
}

func TestPoolCountsFailures(t *testing.T) {
	p := NewPool(2)
	p.Start(context.Background())

	for i := 0; i < 5; i++ {
		i := i
		p.Submit(Task{Description: "mixed", Fn: func(ctx context.Context) error {
			if i%2 == 0 {
				return errors.New("boom")
			}
			return nil
		}})
	}
	p.Drain()

	s := p.Stats()
	if s.Failed != 3 || s.Completed != 2 {
		t.Errorf("stats = %+v, want 3 failed / 2 completed", s)
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(1)
	p.Start(ctx)

	started := make(chan struct{})
	p.Submit(Task{Description: "blocker", Fn: func(c context.Context) error {
		close(started)
		<-c.Done()
		return c.Err()
	}})
	<-started
	cancel()
	p.Drain()

	if got := p.Stats().Failed; got != 1 {
		t.Errorf("failed = %d, want 1 (cancelled task)", got)
	}
}
