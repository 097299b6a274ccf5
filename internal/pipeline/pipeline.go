// Package pipeline orchestrates one full run: fetch the trend lists,
// pre-filter, enrich each surviving item, score it against the target,
// and persist. Item-level failures degrade or skip that item; the run
// itself fails only when every source is unavailable.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hotradar/hotradar/internal/analyze"
	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/events"
	"github.com/hotradar/hotradar/internal/extract"
	"github.com/hotradar/hotradar/internal/job"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/model"
	"github.com/hotradar/hotradar/internal/prefilter"
	"github.com/hotradar/hotradar/internal/relevance"
	"github.com/hotradar/hotradar/internal/source"
	"github.com/hotradar/hotradar/internal/store"
	"github.com/hotradar/hotradar/internal/work"
)

// Params selects what a run does.
type Params struct {
	TargetID string   `json:"target_id"`
	Sources  []string `json:"sources,omitempty"` // empty means all configured
	Limit    int      `json:"limit,omitempty"`   // per-source item cap
	Filter   []string `json:"filter,omitempty"`  // keyword filter terms
}

// Outcome summarizes a finished run.
type Outcome struct {
	SourcesOK     int    `json:"sources_ok"`
	SourcesFailed int    `json:"sources_failed"`
	Fetched       int    `json:"fetched"`
	Filtered      int    `json:"filtered"`
	Enriched      int    `json:"enriched"`
	Soft          int    `json:"soft_failures"`
	Hard          int    `json:"hard_failures"`
	Created       int    `json:"created"`
	Message       string `json:"message"`
}

// Pipeline wires the stages together. Safe for one run at a time per
// instance state; stages themselves are concurrency-safe.
type Pipeline struct {
	cfg      config.Config
	fetcher  *source.Fetcher
	extract  *extract.Stage
	analyze  *analyze.Stage
	engine   *relevance.Engine
	hotspots *store.Store
	events   *events.Log
}

// SetEvents attaches an event log for run activity. A nil log is valid
// and leaves emission as a no-op.
func (p *Pipeline) SetEvents(l *events.Log) {
	p.events = l
}

// New assembles a pipeline from its stages.
func New(cfg config.Config, fetcher *source.Fetcher, ex *extract.Stage, an *analyze.Stage, engine *relevance.Engine, hotspots *store.Store) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		extract:  ex,
		analyze:  an,
		engine:   engine,
		hotspots: hotspots,
	}
}

// Run executes one full pass, reporting progress on j as it goes. An
// empty target ID runs acquisition and enrichment only: items persist
// unscored at zero so a later targeted run can pick them up.
func (p *Pipeline) Run(ctx context.Context, j *job.Job, params Params) (Outcome, error) {
	var target model.TargetProfile
	if params.TargetID != "" {
		var ok bool
		target, ok = p.cfg.Target(params.TargetID)
		if !ok {
			err := fmt.Errorf("unknown target %q", params.TargetID)
			j.Fail(err)
			return Outcome{}, err
		}
	}

	sources := params.Sources
	if len(sources) == 0 {
		sources = p.cfg.Sources
	}

	j.Start()
	logging.Info("Pipeline run starting", "job", j.ID(), "target", target.ID, "sources", len(sources))
	p.events.Info(events.KindRunStart, events.Event{RunID: j.ID(), Target: target.ID, Count: len(sources)})

	items, out := p.fetchPhase(ctx, j, sources, params.Limit)
	if out.SourcesOK == 0 {
		err := fmt.Errorf("all %d sources unavailable", len(sources))
		j.Fail(err)
		p.events.Error(events.KindRunError, err, events.Event{RunID: j.ID(), Target: target.ID})
		return out, err
	}

	kept := prefilter.Apply(items, p.cfg.ExclusionsFor(target.ID), prefilter.Compile(params.Filter))
	out.Filtered = len(items) - len(kept)

	p.enrichPhase(ctx, j, kept, target, &out)

	out.Message = fmt.Sprintf("fetched %d items from %d/%d sources, enriched %d/%d, %d degraded, %d failed",
		out.Fetched, out.SourcesOK, len(sources), out.Enriched+out.Soft, len(kept), out.Soft, out.Hard)
	j.Succeed(out.Message)
	logging.Info("Pipeline run finished", "job", j.ID(), "message", out.Message)
	p.events.Info(events.KindRunComplete, events.Event{
		RunID: j.ID(), Target: target.ID, Count: out.Created, Msg: out.Message})
	return out, nil
}

// fetchPhase pulls every source concurrently under the fetcher's
// pacing, advancing job progress per source so readers see movement
// during slow upstreams.
func (p *Pipeline) fetchPhase(ctx context.Context, j *job.Job, sources []string, limit int) ([]model.RawItem, Outcome) {
	var out Outcome
	j.SetPhase("fetch", len(sources))

	var mu sync.Mutex
	var items []model.RawItem
	g, gctx := errgroup.WithContext(ctx)

	for _, id := range sources {
		g.Go(func() error {
			defer j.Advance(1)

			if err := p.fetcher.Pace(gctx); err != nil {
				mu.Lock()
				out.SourcesFailed++
				mu.Unlock()
				return nil
			}

			start := time.Now()
			fetched, err := p.fetcher.Fetch(gctx, id, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.SourcesFailed++
				logging.Warn("Source failed", "source", id, "err", err)
				p.events.Error(events.KindFetchError, err, events.Event{RunID: j.ID(), Source: id})
				return nil
			}
			out.SourcesOK++
			items = append(items, fetched...)
			p.events.Info(events.KindFetchSource, events.Event{
				RunID: j.ID(), Source: id, Count: len(fetched), Dur: time.Since(start)})
			return nil
		})
	}
	g.Wait()

	out.Fetched = len(items)
	j.SetMessage(fmt.Sprintf("fetched %d items from %d sources", out.Fetched, out.SourcesOK))
	return items, out
}

// enrichPhase fans items out over the bounded pool. Each item runs
// extract, analyze, score, and upsert in sequence; outcomes aggregate
// without ever aborting the batch.
func (p *Pipeline) enrichPhase(ctx context.Context, j *job.Job, items []model.RawItem, target model.TargetProfile, out *Outcome) {
	j.SetPhase("enrich", len(items))
	if len(items) == 0 {
		return
	}

	var enriched, soft, hard, created atomic.Int64

	pool := work.NewPool(p.cfg.Enrich.Concurrency)
	pool.Start(ctx)
	for _, item := range items {
		pool.Submit(work.Task{
			Description: item.URL,
			Fn: func(taskCtx context.Context) error {
				defer j.Advance(1)

				h := model.FromRaw(item)
				h.TargetID = target.ID

				structure, partial := p.extract.Run(taskCtx, item)
				h.Structure = structure
				h.EnrichmentPartial = partial

				analysis, err := p.analyze.Run(taskCtx, item, structure)
				if err != nil {
					// Model unreachable. The item still persists with
					// whatever structure we got; scoring sees no
					// commercial signal.
					hard.Add(1)
					h.EnrichmentPartial = true
					p.events.Error(events.KindEnrichError, err, events.Event{RunID: j.ID(), URL: h.URL})
				} else {
					h.Analysis = analysis
					if partial {
						soft.Add(1)
						p.events.Warn(events.KindEnrichDegraded, events.Event{RunID: j.ID(), URL: h.URL})
					} else {
						enriched.Add(1)
						p.events.Info(events.KindEnrichItem, events.Event{RunID: j.ID(), URL: h.URL})
					}
				}

				var score float64
				if target.ID != "" {
					res := p.engine.Score(taskCtx, h, target)
					score = res.Score
					h.MatchScore = score
					logging.Debug("Scored hotspot",
						"url", h.URL, "score", score, "vetoed", res.Vetoed, "basis", res.Explanation)
					if res.Vetoed {
						p.events.Info(events.KindScoreVeto, events.Event{
							RunID: j.ID(), URL: h.URL, Target: target.ID, Msg: res.Explanation})
					}
				}

				isNew, err := p.hotspots.Upsert(h)
				if err != nil {
					p.events.Error(events.KindStoreError, err, events.Event{RunID: j.ID(), URL: h.URL})
					return fmt.Errorf("persist %s: %w", h.URL, err)
				}
				if isNew {
					created.Add(1)
					p.events.Info(events.KindStoreCreated, events.Event{
						RunID: j.ID(), URL: h.URL, Target: target.ID, Score: score})
				}
				return nil
			},
		})
	}
	pool.Drain()

	out.Enriched = int(enriched.Load())
	out.Soft = int(soft.Load())
	out.Hard = int(hard.Load())
	out.Created = int(created.Load())
}
