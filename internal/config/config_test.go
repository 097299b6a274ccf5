package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultScoringWeightsSum(t *testing.T) {
	s := DefaultScoring()
	sum := s.SemanticWeight + s.CategoryMatchWeight + s.CommercialWeight + s.DirectWeight
	if sum < 0.99 || sum > 1.01 {
		t.Fatalf("semantic blend weights sum to %f, want 1.0", sum)
	}
	for name, w := range map[string]BlendWeights{
		"fallbackDirect":   s.FallbackDirect,
		"fallbackIndirect": s.FallbackIndirect,
	} {
		sum := w.Commercial + w.Proxy + w.Direct + w.CategoryMatch
		if sum < 0.99 || sum > 1.01 {
			t.Errorf("%s weights sum to %f, want 1.0", name, sum)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Enrich.Concurrency != 3 {
		t.Errorf("default enrich concurrency = %d, want 3", cfg.Enrich.Concurrency)
	}
	if cfg.Scoring.VetoThreshold != 0.40 {
		t.Errorf("default veto threshold = %f, want 0.40", cfg.Scoring.VetoThreshold)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotradar.yaml")
	body := `
db:
  path: /tmp/test.db
enrich:
  concurrency: 5
scoring:
  vetoThreshold: 0.35
  visibilityThreshold: 0.6
sources: [douyin, zhihu]
targets:
  - id: womenswear
    name: Winter Womenswear
    category: womenswear、outerwear
    keywords: [coat, 大衣]
exclusions:
  womenswear: [politics, 事故]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Path != "/tmp/test.db" {
		t.Errorf("db path = %q", cfg.DB.Path)
	}
	if cfg.Enrich.Concurrency != 5 {
		t.Errorf("concurrency = %d, want 5", cfg.Enrich.Concurrency)
	}
	if cfg.Scoring.VetoThreshold != 0.35 {
		t.Errorf("veto = %f, want 0.35", cfg.Scoring.VetoThreshold)
	}
	// Untouched keys keep defaults.
	if cfg.Scoring.NoDirectHitCap != 0.50 {
		t.Errorf("noDirectHitCap = %f, want default 0.50", cfg.Scoring.NoDirectHitCap)
	}
	if len(cfg.Sources) != 2 {
		t.Errorf("sources = %v", cfg.Sources)
	}

	tgt, ok := cfg.Target("womenswear")
	if !ok {
		t.Fatal("target womenswear not found")
	}
	if got := tgt.CategoryTerms(); len(got) != 2 {
		t.Errorf("category terms = %v, want 2 entries", got)
	}
	if got := cfg.ExclusionsFor("womenswear"); len(got) != 2 {
		t.Errorf("exclusions = %v", got)
	}
	if got := cfg.ExclusionsFor("unknown"); got != nil {
		t.Errorf("exclusions for unknown target = %v, want nil", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOTRADAR_DB", "/tmp/env.db")
	t.Setenv("HOTRADAR_LLM_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Path != "/tmp/env.db" {
		t.Errorf("db path = %q, want env override", cfg.DB.Path)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("llm api key = %q, want env override", cfg.LLM.APIKey)
	}
}

func TestValidateRejectsBadConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("enrich:\n  concurrency: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for zero concurrency")
	}
}
