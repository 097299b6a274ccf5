package relevance

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/model"
)

type stubJudge struct {
	score float64
	ok    bool
}

func (s stubJudge) Judge(ctx context.Context, h model.Hotspot, target model.TargetProfile) (float64, bool) {
	return s.score, s.ok
}

var womenswear = model.TargetProfile{
	ID:       "womenswear",
	Name:     "Winter Womenswear Channel",
	Category: "womenswear、outerwear",
	Keywords: []string{"coat", "styling"},
}

var appliances = model.TargetProfile{
	ID:       "appliances",
	Name:     "Home Appliance Channel",
	Category: "home appliances",
	Keywords: []string{"refrigerator", "冰箱"},
}

func coatHotspot() model.Hotspot {
	return model.Hotspot{
		Title: "Winter coat styling tips",
		URL:   "https://example.com/coat",
		Tags:  []string{"#fashion", "#winter"},
		Analysis: model.ContentAnalysis{
			Summary: "Three ways to style winter coats",
			CommercialFit: model.CommercialFit{
				Score:                0.8,
				Rationale:            "outfit content sells apparel directly",
				ApplicableCategories: []string{"womenswear"},
			},
		},
	}
}

func TestScoreRelevantTarget(t *testing.T) {
	e := NewEngine(config.DefaultScoring(), stubJudge{score: 0.9, ok: true})
	res := e.Score(context.Background(), coatHotspot(), womenswear)

	if res.Vetoed {
		t.Fatal("relevant item vetoed")
	}
	if res.Score < 0.6 {
		t.Errorf("score = %f, want >= 0.6 for a direct match", res.Score)
	}
	if res.Components.Keyword != 1.0 {
		t.Errorf("keyword fraction = %f, want 1.0", res.Components.Keyword)
	}
	if res.Components.CategoryMatch != 1.0 {
		t.Errorf("category match = %f, want 1.0", res.Components.CategoryMatch)
	}
}

func TestScoreMismatchedTargetIsCapped(t *testing.T) {
	// High semantic and commercial numbers must not rescue an item
	// with no keyword, category, or applicable-category connection.
	e := NewEngine(config.DefaultScoring(), stubJudge{score: 0.9, ok: true})
	res := e.Score(context.Background(), coatHotspot(), appliances)

	if res.Score > 0.5 {
		t.Errorf("score = %f, want <= 0.5 despite strong semantic signal", res.Score)
	}
	if res.Vetoed {
		t.Error("capped is not vetoed")
	}
}

func TestScoreVeto(t *testing.T) {
	e := NewEngine(config.DefaultScoring(), stubJudge{score: 0.2, ok: true})
	res := e.Score(context.Background(), coatHotspot(), womenswear)

	if !res.Vetoed {
		t.Fatal("expected veto for semantic 0.2")
	}
	if res.Score != 0 {
		t.Errorf("vetoed score = %f, want 0", res.Score)
	}
	// Components stay recorded so the result can still be explained.
	if res.Components.Keyword != 1.0 {
		t.Errorf("components dropped on veto: %+v", res.Components)
	}
}

func TestScoreVetoOutranksEverything(t *testing.T) {
	e := NewEngine(config.DefaultScoring(), stubJudge{score: 0.39, ok: true})
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 200; i++ {
		h := coatHotspot()
		h.Analysis.CommercialFit.Score = rng.Float64()
		res := e.Score(context.Background(), h, womenswear)
		if !res.Vetoed || res.Score != 0 {
			t.Fatalf("iteration %d: veto bypassed, score=%f vetoed=%v fit=%f",
				i, res.Score, res.Vetoed, h.Analysis.CommercialFit.Score)
		}
	}
}

func TestScoreCapInvariant(t *testing.T) {
	// No keyword hit, no category hit, no applicable-category overlap:
	// the score never exceeds 0.5 regardless of the other signals.
	rng := rand.New(rand.NewPCG(3, 5))
	cfg := config.DefaultScoring()

	for i := 0; i < 200; i++ {
		semantic := cfg.VetoThreshold + rng.Float64()*(1-cfg.VetoThreshold)
		e := NewEngine(cfg, stubJudge{score: semantic, ok: true})

		h := model.Hotspot{
			Title: "Unrelated viral clip",
			URL:   "https://example.com/u",
			Analysis: model.ContentAnalysis{
				Summary: "something entirely different",
				CommercialFit: model.CommercialFit{
					Score:                rng.Float64(),
					ApplicableCategories: []string{"pets"},
				},
			},
		}
		res := e.Score(context.Background(), h, appliances)
		if res.Score > 0.5 {
			t.Fatalf("iteration %d: score %f > 0.5 with no anchor (semantic=%f)", i, res.Score, semantic)
		}
	}
}

func TestScoreNoJudgeUsesFallbackBlend(t *testing.T) {
	e := NewEngine(config.DefaultScoring(), nil)
	res := e.Score(context.Background(), coatHotspot(), womenswear)

	// Absent semantic judgment is not a zero judgment: no veto, and
	// the direct signals still carry the item.
	if res.Vetoed {
		t.Fatal("absent judgment must not veto")
	}
	if res.Score <= 0.4 {
		t.Errorf("score = %f, want direct-hit fallback above the mismatch caps", res.Score)
	}
}

func TestScoreJudgeUnavailableSameAsNoJudge(t *testing.T) {
	withNil := NewEngine(config.DefaultScoring(), nil)
	withUnavailable := NewEngine(config.DefaultScoring(), stubJudge{ok: false})

	a := withNil.Score(context.Background(), coatHotspot(), womenswear)
	b := withUnavailable.Score(context.Background(), coatHotspot(), womenswear)
	if a.Score != b.Score || a.Vetoed != b.Vetoed {
		t.Errorf("nil judge %+v differs from unavailable judge %+v", a, b)
	}
}

func TestScoreAnchoredFloor(t *testing.T) {
	cfg := config.DefaultScoring()
	e := NewEngine(cfg, nil)

	h := model.Hotspot{
		Title: "coat haul",
		URL:   "https://example.com/f",
		Analysis: model.ContentAnalysis{
			CommercialFit: model.CommercialFit{
				Score:                0.65,
				ApplicableCategories: []string{"womenswear"},
			},
		},
	}
	// Single keyword hit out of two keeps the raw blend low, but the
	// item is anchored on all three fronts.
	res := e.Score(context.Background(), h, womenswear)
	if res.Score < cfg.AnchoredFloor {
		t.Errorf("score = %f, want >= floor %f", res.Score, cfg.AnchoredFloor)
	}
}

func TestScoreDeterministic(t *testing.T) {
	e := NewEngine(config.DefaultScoring(), stubJudge{score: 0.7, ok: true})
	h := coatHotspot()
	first := e.Score(context.Background(), h, womenswear)
	for i := 0; i < 5; i++ {
		if got := e.Score(context.Background(), h, womenswear); got != first {
			t.Fatalf("non-deterministic score: %+v vs %+v", got, first)
		}
	}
}

func TestCategoryCrossMatch(t *testing.T) {
	tests := []struct {
		name       string
		applicable []string
		target     string
		want       float64
	}{
		{"exact", []string{"女装"}, "女装", 1.0},
		{"applicable contains target", []string{"冬季女装"}, "女装", 1.0},
		{"target contains applicable", []string{"女装"}, "冬季女装", 1.0},
		{"one hit is enough", []string{"女装", "宠物"}, "女装、美妆", 1.0},
		{"disjoint", []string{"宠物"}, "女装", 0.0},
		{"empty applicable", nil, "女装", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := model.TargetProfile{Category: tt.target}
			got := categoryCrossMatch(tt.applicable, target.CategoryTerms())
			if got != tt.want {
				t.Errorf("categoryCrossMatch(%v, %q) = %f, want %f", tt.applicable, tt.target, got, tt.want)
			}
		})
	}
}

func TestAnyMatched(t *testing.T) {
	text := "冬季大衣穿搭技巧"
	tests := []struct {
		terms []string
		want  float64
	}{
		{[]string{"女装", "大衣"}, 1.0},
		{[]string{"大衣"}, 1.0},
		{[]string{"女装", "美妆"}, 0.0},
		{nil, 0.0},
	}
	for _, tt := range tests {
		if got := anyMatched(text, tt.terms); got != tt.want {
			t.Errorf("anyMatched(%v) = %f, want %f", tt.terms, got, tt.want)
		}
	}
}

func TestFractionMatched(t *testing.T) {
	text := "winter coat styling tips for cold days"
	tests := []struct {
		terms []string
		want  float64
	}{
		{[]string{"coat", "styling"}, 1.0},
		{[]string{"coat", "refrigerator"}, 0.5},
		{[]string{"refrigerator"}, 0.0},
		{nil, 0.0},
	}
	for _, tt := range tests {
		if got := fractionMatched(text, tt.terms); got != tt.want {
			t.Errorf("fractionMatched(%v) = %f, want %f", tt.terms, got, tt.want)
		}
	}
}
