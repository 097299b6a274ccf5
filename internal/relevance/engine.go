// Package relevance scores an enriched hotspot against a sales target.
//
// Five signals feed the score: direct keyword hits, category term
// hits, a cross-match between the model's applicable categories and
// the target's categories, the commercial-fit judgment, and an optional
// semantic judgment from an LLM judge. Rules apply in a fixed order:
// veto first, caps second, blend last.
package relevance

import (
	"context"
	"fmt"
	"strings"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/model"
)

// Judge supplies the optional semantic relevance judgment. ok=false
// means no judgment is available, which is not the same as zero.
type Judge interface {
	Judge(ctx context.Context, h model.Hotspot, target model.TargetProfile) (score float64, ok bool)
}

// Engine computes relevance scores. The config is fixed at
// construction; Score never mutates it, so one engine is safe for
// concurrent use.
type Engine struct {
	cfg   config.ScoringConfig
	judge Judge
}

// NewEngine builds an engine. judge may be nil; scoring then always
// uses the fallback blends.
func NewEngine(cfg config.ScoringConfig, judge Judge) *Engine {
	return &Engine{cfg: cfg, judge: judge}
}

// Score rates one hotspot against one target. Pure except for the
// judge call; identical inputs and judgments give identical results.
func (e *Engine) Score(ctx context.Context, h model.Hotspot, target model.TargetProfile) model.RelevanceResult {
	text := matchText(h)

	comp := model.ComponentScores{
		Keyword:       fractionMatched(text, target.Keywords),
		Category:      anyMatched(text, target.CategoryTerms()),
		CommercialFit: h.Analysis.CommercialFit.Score,
		CategoryMatch: categoryCrossMatch(h.Analysis.CommercialFit.ApplicableCategories, target.CategoryTerms()),
	}

	semantic, hasSemantic := 0.0, false
	if e.judge != nil {
		semantic, hasSemantic = e.judge.Judge(ctx, h, target)
	}
	comp.Semantic = semantic

	directHit := comp.Keyword > 0 || comp.Category > 0
	direct := comp.Keyword*0.6 + comp.Category*0.4

	// Veto outranks everything: a confident "not relevant" from the
	// judge zeroes the item no matter how commercial it looks.
	if hasSemantic && semantic < e.cfg.VetoThreshold {
		return model.RelevanceResult{
			Score:       0,
			Components:  comp,
			Vetoed:      true,
			Explanation: fmt.Sprintf("vetoed: semantic judgment %.2f below %.2f", semantic, e.cfg.VetoThreshold),
		}
	}

	var score float64
	var basis string
	if hasSemantic {
		score = semantic*e.cfg.SemanticWeight +
			comp.CategoryMatch*e.cfg.CategoryMatchWeight +
			comp.CommercialFit*e.cfg.CommercialWeight +
			direct*e.cfg.DirectWeight
		basis = "semantic blend"
	} else {
		proxy := (comp.Keyword + comp.Category) / 2
		w := e.cfg.FallbackIndirect
		basis = "fallback blend (no direct hit)"
		if directHit {
			w = e.cfg.FallbackDirect
			basis = "fallback blend (direct hit)"
		}
		score = comp.CommercialFit*w.Commercial +
			proxy*w.Proxy +
			direct*w.Direct +
			comp.CategoryMatch*w.CategoryMatch
	}

	capped := false
	if !directHit && score > e.cfg.NoDirectHitCap {
		score = e.cfg.NoDirectHitCap
		capped = true
	}
	if !directHit && comp.CategoryMatch == 0 && score > e.cfg.NoCategoryMatchCap {
		score = e.cfg.NoCategoryMatchCap
		capped = true
	}

	// Strongly commercial, category-matched items with a direct hit
	// never drop below the floor.
	if directHit && comp.CategoryMatch > 0 && comp.CommercialFit >= 0.6 && score < e.cfg.AnchoredFloor {
		score = e.cfg.AnchoredFloor
	}

	score = clamp01(score)

	expl := basis
	if capped {
		expl += ", capped (no direct keyword or category hit)"
	}
	return model.RelevanceResult{
		Score:       score,
		Components:  comp,
		Explanation: expl,
	}
}

// matchText is the haystack direct signals search in: title, tags,
// transcript and summary, lowercased.
func matchText(h model.Hotspot) string {
	parts := []string{h.Title, strings.Join(h.Tags, " "), strings.Join(h.Structure.Tags, " "), h.Structure.Transcript, h.Analysis.Summary}
	return strings.ToLower(strings.Join(parts, " "))
}

// fractionMatched returns the share of terms appearing in text.
func fractionMatched(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// anyMatched returns 1 when any term appears in text, else 0. One
// category term hitting is as good as all of them.
func anyMatched(text string, terms []string) float64 {
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(text, term) {
			return 1
		}
	}
	return 0
}

// categoryCrossMatch returns 1 when any of the model's applicable
// categories matches a target category term, else 0. Matching is a
// bidirectional substring test so "女装" matches "冬季女装".
func categoryCrossMatch(applicable, targetTerms []string) float64 {
	for _, a := range applicable {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		for _, t := range targetTerms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if strings.Contains(a, t) || strings.Contains(t, a) {
				return 1
			}
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
