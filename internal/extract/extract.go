// Package extract turns a raw trend item into a structured view of its
// content. Three sources of signal feed the result: the media
// analyzer, the landing page text, and an LLM pass that fills whatever
// gaps remain. The stage never fails an item outright; the worst
// outcome is a partial structure flagged as such.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/hotradar/hotradar/internal/brain"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/model"
)

// WebSupplementMarker separates analyzer transcript text from text
// recovered off the landing page.
const WebSupplementMarker = "[网页补充内容]"

// Analyzer is the media analysis dependency.
type Analyzer interface {
	Analyze(ctx context.Context, contentURL string) (model.ContentStructure, error)
}

// PageExtractor is the landing page text dependency.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) (WebPage, error)
}

// Stage runs structure extraction for one item at a time.
type Stage struct {
	analyzer   Analyzer
	web        PageExtractor
	provider   brain.Provider
	maxRetries int
}

// NewStage wires the extraction stage. Any dependency may be nil; the
// stage degrades to whatever paths remain.
func NewStage(analyzer Analyzer, web PageExtractor, provider brain.Provider, maxRetries int) *Stage {
	return &Stage{
		analyzer:   analyzer,
		web:        web,
		provider:   provider,
		maxRetries: maxRetries,
	}
}

// Run extracts structure for one item. The partial flag reports that
// at least one extraction path failed and the result is degraded.
func (s *Stage) Run(ctx context.Context, item model.RawItem) (model.ContentStructure, bool) {
	var structure model.ContentStructure
	partial := false

	if s.analyzer != nil {
		out, err := s.analyzer.Analyze(ctx, item.URL)
		if err != nil {
			logging.Warn("Media analysis failed", "url", item.URL, "err", err)
			partial = true
		} else {
			structure = out
		}
	} else {
		partial = true
	}

	// The landing page gets read regardless of how media analysis
	// went; supplement decides whether its text adds anything.
	if s.web != nil {
		page, err := s.web.Extract(ctx, item.URL)
		if err != nil {
			logging.Debug("Web supplement failed", "url", item.URL, "err", err)
		} else {
			structure.Transcript = supplement(structure.Transcript, page.Text)
		}
	}

	structure.Tags = MergeTags(structure.Tags, Hashtags(item.Title+" "+structure.Transcript))
	structure.Tags = MergeTags(structure.Tags, item.Tags)

	if s.provider != nil && needsGapFill(structure) {
		filled, ok := s.gapFill(ctx, item, structure)
		if ok {
			structure = mergeStructures(structure, filled)
		} else {
			partial = true
		}
	}

	if structure.Empty() {
		partial = true
	}
	return structure, partial
}

// supplement appends page text to a transcript behind the marker,
// unless the page text is already contained in the transcript.
func supplement(transcript, pageText string) string {
	pageText = strings.TrimSpace(pageText)
	if pageText == "" {
		return transcript
	}
	if transcript == "" {
		return pageText
	}
	if strings.Contains(transcript, pageText) {
		return transcript
	}
	return transcript + "\n" + WebSupplementMarker + "\n" + pageText
}

func needsGapFill(cs model.ContentStructure) bool {
	return len(cs.Scenes) == 0 || len(cs.KeyFrames) == 0 || len(cs.Tags) == 0
}

const gapFillSystemPrompt = `You analyze short-form commerce content. ` +
	`Given the known information about a trending item, infer the missing structural fields. ` +
	`Respond with a single JSON object using keys: scenes (array of {start_time,end_time,description}), ` +
	`key_frames (array of {time,description}), tags (array of strings). ` +
	`Only include fields you can reasonably infer. No prose.`

func (s *Stage) gapFill(ctx context.Context, item model.RawItem, cs model.ContentStructure) (model.ContentStructure, bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Source: %s (rank %d)\n", item.SourceID, item.Rank)
	if cs.Transcript != "" {
		fmt.Fprintf(&b, "Transcript:\n%s\n", truncateRunes(cs.Transcript, 2000))
	}
	if len(cs.Tags) > 0 {
		fmt.Fprintf(&b, "Known tags: %s\n", strings.Join(cs.Tags, ", "))
	}

	resp, err := brain.GenerateWithRetry(ctx, s.provider, brain.Request{
		SystemPrompt: gapFillSystemPrompt,
		UserPrompt:   b.String(),
	}, s.maxRetries)
	if err != nil {
		logging.Warn("Structure gap-fill failed", "url", item.URL, "err", err)
		return model.ContentStructure{}, false
	}

	var filled model.ContentStructure
	if !brain.DecodeLoose(resp.Content, &filled) {
		logging.Warn("Structure gap-fill returned no usable JSON", "url", item.URL)
		return model.ContentStructure{}, false
	}
	return filled, true
}

// mergeStructures overlays inferred fields onto the extracted
// structure. Extracted values always win; inference only fills blanks.
func mergeStructures(base, inferred model.ContentStructure) model.ContentStructure {
	if base.DurationSeconds == 0 {
		base.DurationSeconds = inferred.DurationSeconds
	}
	if len(base.Scenes) == 0 {
		base.Scenes = inferred.Scenes
	}
	if len(base.KeyFrames) == 0 {
		base.KeyFrames = inferred.KeyFrames
	}
	if base.Transcript == "" {
		base.Transcript = inferred.Transcript
	}
	base.Tags = MergeTags(base.Tags, inferred.Tags)
	if len(base.VisualDescriptors) == 0 {
		base.VisualDescriptors = inferred.VisualDescriptors
	}
	if len(base.AudioDescriptors) == 0 {
		base.AudioDescriptors = inferred.AudioDescriptors
	}
	return base
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
