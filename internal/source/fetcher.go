// Package source pulls ranked trend lists from upstream platforms.
//
// Fetching runs through an ordered list of strategies: the trend list
// API first, then the remote RPC bridge, then any configured RSS feed.
// A strategy gets a few retried attempts before the fetcher moves on;
// only when every strategy is exhausted does a source count as
// unavailable.
package source

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/model"
)

// ErrSourceUnavailable reports that every strategy failed for a source.
var ErrSourceUnavailable = errors.New("source unavailable")

// Strategy fetches the current ranked list for one source platform.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, sourceID string, limit int) ([]model.RawItem, error)
}

// Fetcher tries strategies in order with retries and paces calls
// against the upstream APIs.
type Fetcher struct {
	strategies []Strategy
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
	limiter    *rate.Limiter
}

// New builds a Fetcher from config. Strategies are tried in the order
// given.
func New(cfg config.FetchConfig, strategies ...Strategy) *Fetcher {
	limit := rate.Inf
	if spacing := cfg.Spacing(); spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Fetcher{
		strategies: strategies,
		maxRetries: cfg.MaxRetries,
		waitMin:    time.Duration(cfg.RetryWaitMinSecs) * time.Second,
		waitMax:    time.Duration(cfg.RetryWaitMaxSecs) * time.Second,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Fetch returns the ranked list for one source. Each strategy gets
// maxRetries+1 attempts with a jittered wait between them; a strategy
// that answers with an empty list yields to the next one without
// retrying. When every strategy fails the error wraps
// ErrSourceUnavailable; when the best answer anywhere was an empty
// list, Fetch returns that empty list without error.
func (f *Fetcher) Fetch(ctx context.Context, sourceID string, limit int) ([]model.RawItem, error) {
	var lastErr error
	sawEmpty := false
	for _, s := range f.strategies {
		for attempt := 0; attempt <= f.maxRetries; attempt++ {
			if attempt > 0 {
				if err := f.sleepJitter(ctx); err != nil {
					return nil, err
				}
			}

			items, err := s.Fetch(ctx, sourceID, limit)
			if err == nil {
				if len(items) > 0 {
					logging.Debug("Fetched source", "source", sourceID, "strategy", s.Name(), "items", len(items))
					return items, nil
				}
				sawEmpty = true
				logging.Warn("Fetch returned no items, trying next strategy", "source", sourceID, "strategy", s.Name())
				break
			}
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn("Fetch attempt failed", "source", sourceID, "strategy", s.Name(), "attempt", attempt, "err", err)
		}
	}
	if sawEmpty {
		return nil, nil
	}
	return nil, fmt.Errorf("%s: %w: %w", sourceID, ErrSourceUnavailable, lastErr)
}

// BatchResult carries per-source outcomes of a multi-source fetch.
// One failing source never aborts the batch.
type BatchResult struct {
	Items  map[string][]model.RawItem
	Errors map[string]error
}

// Total returns the number of items fetched across all sources.
func (b BatchResult) Total() int {
	n := 0
	for _, items := range b.Items {
		n += len(items)
	}
	return n
}

// Pace blocks until the next upstream call is allowed under the
// configured spacing. Callers driving Fetch themselves use this to get
// the same pacing FetchAll applies.
func (f *Fetcher) Pace(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

// FetchAll fetches every source concurrently, pacing calls so the
// upstream API sees at most one request per configured spacing
// interval.
func (f *Fetcher) FetchAll(ctx context.Context, sourceIDs []string, limit int) BatchResult {
	res := BatchResult{
		Items:  make(map[string][]model.RawItem, len(sourceIDs)),
		Errors: make(map[string]error),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for _, id := range sourceIDs {
		g.Go(func() error {
			if err := f.limiter.Wait(ctx); err != nil {
				mu.Lock()
				res.Errors[id] = err
				mu.Unlock()
				return nil
			}

			items, err := f.Fetch(ctx, id, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[id] = err
			} else {
				res.Items[id] = items
			}
			return nil
		})
	}

	g.Wait()
	return res
}

func (f *Fetcher) sleepJitter(ctx context.Context) error {
	wait := f.waitMin
	if span := f.waitMax - f.waitMin; span > 0 {
		wait += rand.N(span)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
