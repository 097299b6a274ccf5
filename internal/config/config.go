// Package config loads the hotradar configuration from YAML with
// environment overrides. All tunables live here; nothing in the
// pipeline reads package-level mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hotradar/hotradar/internal/model"
)

const (
	configPathEnv   = "HOTRADAR_CONFIG"
	dbPathEnv       = "HOTRADAR_DB"
	llmAPIKeyEnv    = "HOTRADAR_LLM_API_KEY"
	deepseekKeyEnv  = "DEEPSEEK_API_KEY"
	openaiKeyEnv    = "OPENAI_API_KEY"
	remoteAPIKeyEnv = "HOTRADAR_REMOTE_API_KEY"
)

// Config is the full application configuration.
type Config struct {
	DB       DBConfig       `yaml:"db"`
	API      APIConfig      `yaml:"api"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Enrich   EnrichConfig   `yaml:"enrich"`
	LLM      LLMConfig      `yaml:"llm"`
	Scoring  ScoringConfig  `yaml:"scoring"`

	// EventLog is the JSONL file run events append to. Empty keeps
	// events in memory only.
	EventLog string `yaml:"event_log"`

	// Sources lists the trend-list providers to pull from.
	Sources []string `yaml:"sources"`

	// Targets are the sales contexts hotspots get scored against.
	Targets []model.TargetProfile `yaml:"targets"`

	// Exclusions maps a target ID to keywords that hard-skip items
	// before scoring. A cheap pre-filter, never hardcoded in logic.
	Exclusions map[string][]string `yaml:"exclusions"`
}

// DBConfig describes the SQLite database location.
type DBConfig struct {
	Path string `yaml:"path"`
}

// APIConfig describes the HTTP trigger/progress surface.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// ScheduleConfig controls the recurring pipeline run.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"` // standard 5-field cron expression
}

// FetchConfig tunes the source fetcher and its fallback behavior.
type FetchConfig struct {
	TrendAPIBaseURL string `yaml:"trendApiBaseUrl"`
	RemoteEndpoint  string `yaml:"remoteEndpoint"` // secondary strategy
	RemoteAPIKey    string `yaml:"remoteApiKey"`

	// RSSFeeds maps a source ID to a feed URL used as a last resort
	// when both API strategies fail.
	RSSFeeds map[string]string `yaml:"rssFeeds"`

	TimeoutSeconds   int `yaml:"timeoutSeconds"`
	MaxRetries       int `yaml:"maxRetries"`
	RetryWaitMinSecs int `yaml:"retryWaitMinSeconds"`
	RetryWaitMaxSecs int `yaml:"retryWaitMaxSeconds"`

	// SpacingMillis is the minimum interval between calls against the
	// upstream list API during a multi-source batch.
	SpacingMillis int `yaml:"spacingMillis"`
}

// Timeout returns the per-call fetch timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// Spacing returns the minimum inter-call spacing for batch fetches.
func (f FetchConfig) Spacing() time.Duration {
	return time.Duration(f.SpacingMillis) * time.Millisecond
}

// EnrichConfig tunes the enrichment fan-out.
type EnrichConfig struct {
	// Concurrency bounds how many items are enriched at once.
	Concurrency int `yaml:"concurrency"`

	MediaAnalyzerEndpoint string `yaml:"mediaAnalyzerEndpoint"`
	MediaAnalyzerAPIKey   string `yaml:"mediaAnalyzerApiKey"`
	MediaTimeoutMinutes   int    `yaml:"mediaTimeoutMinutes"`

	WebTimeoutSeconds int `yaml:"webTimeoutSeconds"`
}

// MediaTimeout returns the media analyzer call timeout. Large downloads
// can legitimately take minutes.
func (e EnrichConfig) MediaTimeout() time.Duration {
	return time.Duration(e.MediaTimeoutMinutes) * time.Minute
}

// WebTimeout returns the web extraction timeout.
func (e EnrichConfig) WebTimeout() time.Duration {
	return time.Duration(e.WebTimeoutSeconds) * time.Second
}

// LLMConfig describes the text-completion provider.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "openai" (any compatible API) or "ollama"
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	MaxRetries     int    `yaml:"maxRetries"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`

	// FallbackOllama is a local ollama host calls fall back to when
	// the primary provider is unconfigured or failing. Empty disables
	// the fallback.
	FallbackOllama string `yaml:"fallbackOllama"`
	FallbackModel  string `yaml:"fallbackModel"` // defaults to Model
}

// Timeout returns the per-call LLM timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// ScoringConfig holds every constant the relevance engine uses.
// Constructed once at startup and passed by value; the engine never
// mutates it. The precedence order (veto > cap > blend) is fixed in
// code; only the numbers live here.
type ScoringConfig struct {
	// VetoThreshold: a semantic judgment below this forces score 0.
	VetoThreshold float64 `yaml:"vetoThreshold"`

	// NoCategoryMatchCap caps the blended score when the model's
	// applicable categories share nothing with the target.
	NoCategoryMatchCap float64 `yaml:"noCategoryMatchCap"`

	// NoDirectHitCap caps the score when neither keywords nor category
	// terms appear in the hotspot text.
	NoDirectHitCap float64 `yaml:"noDirectHitCap"`

	// AnchoredFloor lifts strongly commercial, category-matched items
	// to at least this score when a direct hit exists.
	AnchoredFloor float64 `yaml:"anchoredFloor"`

	// Semantic-present blend weights.
	SemanticWeight      float64 `yaml:"semanticWeight"`
	CategoryMatchWeight float64 `yaml:"categoryMatchWeight"`
	CommercialWeight    float64 `yaml:"commercialWeight"`
	DirectWeight        float64 `yaml:"directWeight"`

	// Fallback blends when no semantic judgment is available.
	FallbackDirect   BlendWeights `yaml:"fallbackDirect"`   // direct hit exists
	FallbackIndirect BlendWeights `yaml:"fallbackIndirect"` // no direct hit

	// VisibilityThreshold is the minimum matchScore for a hotspot to
	// surface in downstream reads. Applied at read time only.
	VisibilityThreshold float64 `yaml:"visibilityThreshold"`
}

// BlendWeights is one weight set for the non-semantic fallback blend.
type BlendWeights struct {
	Commercial    float64 `yaml:"commercial"`
	Proxy         float64 `yaml:"proxy"` // keyword/category stand-in for the missing semantic signal
	Direct        float64 `yaml:"direct"`
	CategoryMatch float64 `yaml:"categoryMatch"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		DB:       DBConfig{Path: "hotradar.db"},
		API:      APIConfig{Addr: ":8620"},
		Schedule: ScheduleConfig{Enabled: false, Cron: "0 8 * * *"},
		Fetch: FetchConfig{
			TrendAPIBaseURL:  "https://newsnow.busiyi.world/api/s",
			TimeoutSeconds:   10,
			MaxRetries:       2,
			RetryWaitMinSecs: 3,
			RetryWaitMaxSecs: 5,
			SpacingMillis:    1000,
		},
		Enrich: EnrichConfig{
			Concurrency:         3,
			MediaTimeoutMinutes: 10,
			WebTimeoutSeconds:   30,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Endpoint:       "https://api.deepseek.com/chat/completions",
			Model:          "deepseek-chat",
			MaxRetries:     2,
			TimeoutSeconds: 60,
		},
		Scoring:    DefaultScoring(),
		Sources:    []string{"douyin", "zhihu", "weibo", "bilibili"},
		Exclusions: map[string][]string{},
	}
}

// DefaultScoring returns the baseline scoring constants. The literal
// numbers are starting points, not settled intent; override in YAML.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		VetoThreshold:      0.40,
		NoCategoryMatchCap: 0.40,
		NoDirectHitCap:     0.50,
		AnchoredFloor:      0.30,

		SemanticWeight:      0.60,
		CategoryMatchWeight: 0.25,
		CommercialWeight:    0.10,
		DirectWeight:        0.05,

		FallbackDirect:   BlendWeights{Commercial: 0.50, Proxy: 0.25, Direct: 0.15, CategoryMatch: 0.10},
		FallbackIndirect: BlendWeights{Commercial: 0.30, Proxy: 0.20, Direct: 0.15, CategoryMatch: 0.35},

		VisibilityThreshold: 0.30,
	}
}

// Load reads the YAML config (path from HOTRADAR_CONFIG, or the given
// fallback path) over the defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if env := os.Getenv(configPathEnv); env != "" {
		path = env
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dbPathEnv); v != "" {
		c.DB.Path = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv(deepseekKeyEnv); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv(openaiKeyEnv); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(remoteAPIKeyEnv); v != "" {
		c.Fetch.RemoteAPIKey = v
	}
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no sources configured")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("config: enrich concurrency must be positive, got %d", c.Enrich.Concurrency)
	}
	if c.Scoring.VetoThreshold < 0 || c.Scoring.VetoThreshold > 1 {
		return fmt.Errorf("config: veto threshold out of range: %f", c.Scoring.VetoThreshold)
	}
	if c.Scoring.VisibilityThreshold < 0 || c.Scoring.VisibilityThreshold > 1 {
		return fmt.Errorf("config: visibility threshold out of range: %f", c.Scoring.VisibilityThreshold)
	}
	return nil
}

// Target returns the profile with the given ID, if configured.
func (c Config) Target(id string) (model.TargetProfile, bool) {
	for _, t := range c.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return model.TargetProfile{}, false
}

// ExclusionsFor returns the hard-skip keyword list for a target.
func (c Config) ExclusionsFor(targetID string) []string {
	return c.Exclusions[targetID]
}
