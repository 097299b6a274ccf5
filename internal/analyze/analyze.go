// Package analyze produces the editorial read of an extracted item:
// what it says, how it says it, and how transferable the angle is to
// live-selling.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hotradar/hotradar/internal/brain"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/model"
)

// ErrAnalysisFailed reports that the model could not be reached at
// all. Malformed model output never raises this; it degrades instead.
var ErrAnalysisFailed = errors.New("content analysis failed")

// transcriptPromptRunes bounds how much transcript goes into the
// prompt. The opening carries the hook; the rest adds little.
const transcriptPromptRunes = 500

// Stage runs content analysis against a single provider.
type Stage struct {
	provider   brain.Provider
	maxRetries int
}

// NewStage wires the analysis stage.
func NewStage(provider brain.Provider, maxRetries int) *Stage {
	return &Stage{provider: provider, maxRetries: maxRetries}
}

const systemPrompt = `You are an analyst for live-commerce content planning. ` +
	`Given a trending item, respond with one JSON object only, using keys: ` +
	`summary (string), style_descriptor (string), ` +
	`script_skeleton ({hook, body, call_to_action}), ` +
	`commercial_fit ({score between 0 and 1, rationale, applicable_categories array of category names}). ` +
	`applicable_categories must name product categories this content angle could sell. No prose outside the JSON.`

// Run analyzes one item. Malformed or partial model output degrades to
// a minimal analysis rather than failing; only an unreachable provider
// returns ErrAnalysisFailed.
func (s *Stage) Run(ctx context.Context, item model.RawItem, structure model.ContentStructure) (model.ContentAnalysis, error) {
	resp, err := brain.GenerateWithRetry(ctx, s.provider, brain.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildPrompt(item, structure),
	}, s.maxRetries)
	if err != nil {
		return model.ContentAnalysis{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	var analysis model.ContentAnalysis
	if !brain.DecodeLoose(resp.Content, &analysis) || analysis.Empty() {
		logging.Warn("Analysis output unusable, degrading", "url", item.URL)
		return minimalAnalysis(item), nil
	}

	analysis.CommercialFit.Score = clamp01(analysis.CommercialFit.Score)
	if analysis.Summary == "" {
		analysis.Summary = item.Title
	}
	return analysis, nil
}

func buildPrompt(item model.RawItem, structure model.ContentStructure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Platform: %s, rank %d, heat %d\n", item.SourceID, item.Rank, item.HeatScore)
	if len(structure.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(structure.Tags, ", "))
	}
	if structure.DurationSeconds > 0 {
		fmt.Fprintf(&b, "Duration: %.0fs, %d scenes\n", structure.DurationSeconds, len(structure.Scenes))
	}
	if len(structure.VisualDescriptors) > 0 {
		b.WriteString("Visuals:\n")
		for k, v := range structure.VisualDescriptors {
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}
	if structure.Transcript != "" {
		fmt.Fprintf(&b, "Transcript opening:\n%s\n", truncateRunes(structure.Transcript, transcriptPromptRunes))
	}
	return b.String()
}

// minimalAnalysis is the degraded result when the model output is
// unusable: the title stands in for a summary and commercial fit stays
// at zero so scoring treats the item conservatively.
func minimalAnalysis(item model.RawItem) model.ContentAnalysis {
	return model.ContentAnalysis{
		Summary: item.Title,
	}
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

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
