// Package app assembles the application from config: store, LLM
// providers, pipeline stages, job registry, and API server. Both the
// service and the CLI build through here so wiring stays in one place.
package app

import (
	"fmt"

	"github.com/hotradar/hotradar/internal/analyze"
	"github.com/hotradar/hotradar/internal/api"
	"github.com/hotradar/hotradar/internal/brain"
	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/events"
	"github.com/hotradar/hotradar/internal/extract"
	"github.com/hotradar/hotradar/internal/job"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/pipeline"
	"github.com/hotradar/hotradar/internal/relevance"
	"github.com/hotradar/hotradar/internal/source"
	"github.com/hotradar/hotradar/internal/store"
)

// App holds the assembled components.
type App struct {
	Config   config.Config
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Jobs     *job.Registry
	Server   *api.Server
	Events   *events.Log
}

// Build assembles everything from config.
func Build(cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := buildProvider(cfg.LLM)
	if provider == nil || !provider.Available() {
		logging.Warn("No LLM provider available, analysis and semantic judging will degrade",
			"provider", cfg.LLM.Provider)
	}

	fetcher := source.New(cfg.Fetch,
		source.NewTrendAPI(cfg.Fetch.TrendAPIBaseURL, cfg.Fetch.Timeout()),
		source.NewRemoteAPI(cfg.Fetch.RemoteEndpoint, cfg.Fetch.RemoteAPIKey, cfg.Fetch.Timeout()),
		source.NewRSS(cfg.Fetch.RSSFeeds, cfg.Fetch.Timeout()),
	)

	analyzer := extract.NewMediaAnalyzer(
		cfg.Enrich.MediaAnalyzerEndpoint, cfg.Enrich.MediaAnalyzerAPIKey, cfg.Enrich.MediaTimeout())
	web := extract.NewWebExtractor(cfg.Enrich.WebTimeout())

	var extractProvider brain.Provider
	var judge relevance.Judge
	if provider != nil && provider.Available() {
		extractProvider = provider
		judge = relevance.NewLLMJudge(provider, cfg.LLM.MaxRetries)
	}

	p := pipeline.New(
		cfg,
		fetcher,
		extract.NewStage(analyzer, web, extractProvider, cfg.LLM.MaxRetries),
		analyze.NewStage(provider, cfg.LLM.MaxRetries),
		relevance.NewEngine(cfg.Scoring, judge),
		st,
	)

	evlog, err := events.Open(cfg.EventLog, events.DefaultRingSize)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open event log: %w", err)
	}
	p.SetEvents(evlog)

	jobs := job.NewRegistry()
	srv := api.NewServer(cfg, p, jobs, st)
	srv.SetEvents(evlog)

	return &App{
		Config:   cfg,
		Store:    st,
		Pipeline: p,
		Jobs:     jobs,
		Server:   srv,
		Events:   evlog,
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	a.Events.Close()
	return a.Store.Close()
}

// buildProvider assembles the provider manager: the configured primary
// first, with an optional local ollama fallback behind it.
func buildProvider(cfg config.LLMConfig) brain.Provider {
	pm := brain.NewProviderManager()
	switch cfg.Provider {
	case "ollama":
		pm.AddProvider(brain.NewHTTPProvider(brain.OllamaConfig(cfg.Endpoint, cfg.Model, cfg.Timeout())))
	default:
		pm.AddProvider(brain.NewHTTPProvider(brain.OpenAICompatibleConfig(
			cfg.Provider, cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout())))
	}
	if cfg.FallbackOllama != "" && cfg.Provider != "ollama" {
		model := cfg.FallbackModel
		if model == "" {
			model = cfg.Model
		}
		pm.AddProvider(brain.NewHTTPProvider(brain.OllamaConfig(cfg.FallbackOllama, model, cfg.Timeout())))
	}
	pm.SetPreferred(cfg.Provider)
	return pm
}
