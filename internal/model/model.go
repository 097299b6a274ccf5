// Package model defines the core data types flowing through the hotspot
// pipeline: raw fetched items, enrichment results, target profiles, and
// the persisted Hotspot aggregate.
package model

import (
	"fmt"
	"strings"
	"time"
)

// CategoryDelimiter separates multiple category terms inside
// TargetProfile.Category ("womenswear、beauty").
const CategoryDelimiter = "、"

// RawItem is a single entry from a ranked trending list.
// Immutable once produced by the fetcher.
type RawItem struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"` // unique natural key
	SourceID   string    `json:"source_id"`
	Rank       int       `json:"rank"`
	HeatScore  int       `json:"heat_score"`
	Tags       []string  `json:"tags,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// HeatFromRank derives a heat score from a 1-based list rank when the
// source does not supply one. Rank 1 scores 100, decreasing by one per
// position, floored at zero.
func HeatFromRank(rank int) int {
	h := 100 - (rank - 1)
	if h < 0 {
		return 0
	}
	return h
}

// Scene is one segment of a piece of content.
type Scene struct {
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Description string  `json:"description"`
}

// KeyFrame is a notable moment proposed by the analyzer or the model.
type KeyFrame struct {
	Time        float64 `json:"time"`
	Description string  `json:"description"`
}

// ContentStructure is the normalized structural view of one item,
// produced by the structure-extraction stage.
type ContentStructure struct {
	DurationSeconds   float64           `json:"duration_seconds"`
	Scenes            []Scene           `json:"scenes,omitempty"`
	KeyFrames         []KeyFrame        `json:"key_frames,omitempty"`
	Transcript        string            `json:"transcript,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	VisualDescriptors map[string]string `json:"visual_descriptors,omitempty"`
	AudioDescriptors  map[string]string `json:"audio_descriptors,omitempty"`
}

// Empty reports whether no field of the structure carries information.
func (cs ContentStructure) Empty() bool {
	return cs.DurationSeconds == 0 &&
		len(cs.Scenes) == 0 &&
		len(cs.KeyFrames) == 0 &&
		cs.Transcript == "" &&
		len(cs.Tags) == 0 &&
		len(cs.VisualDescriptors) == 0 &&
		len(cs.AudioDescriptors) == 0
}

// CommercialFit is the model's judgment of how transferable an item's
// content angle is to a sales pitch.
type CommercialFit struct {
	Score                float64  `json:"score"` // [0,1]
	Rationale            string   `json:"rationale"`
	ApplicableCategories []string `json:"applicable_categories,omitempty"`
}

// ScriptSkeleton is the hook/body/call-to-action breakdown of an item.
type ScriptSkeleton struct {
	Hook         string `json:"hook"`
	Body         string `json:"body"`
	CallToAction string `json:"call_to_action"`
}

// ContentAnalysis is the output of the content-analysis stage.
type ContentAnalysis struct {
	Summary         string         `json:"summary"`
	StyleDescriptor string         `json:"style_descriptor"`
	ScriptSkeleton  ScriptSkeleton `json:"script_skeleton"`
	CommercialFit   CommercialFit  `json:"commercial_fit"`
}

// Empty reports whether the analysis carries no information.
func (ca ContentAnalysis) Empty() bool {
	return ca.Summary == "" && ca.StyleDescriptor == "" &&
		ca.CommercialFit.Score == 0 && len(ca.CommercialFit.ApplicableCategories) == 0
}

// TargetProfile is the sales context a hotspot is scored against:
// a channel and/or a specific product. Read-only to the pipeline.
type TargetProfile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"` // possibly multi-valued, CategoryDelimiter-separated
	Keywords []string `json:"keywords,omitempty"`
	Persona  string   `json:"persona,omitempty"`
	Style    string   `json:"style,omitempty"`
}

// CategoryTerms splits the delimiter-separated category field into
// trimmed, non-empty terms.
func (t TargetProfile) CategoryTerms() []string {
	var terms []string
	for _, c := range strings.Split(t.Category, CategoryDelimiter) {
		c = strings.TrimSpace(c)
		if c != "" {
			terms = append(terms, c)
		}
	}
	return terms
}

// Render produces the profile description text embedded in semantic
// judgment prompts.
func (t TargetProfile) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Channel: %s\n", t.Name)
	fmt.Fprintf(&b, "Category: %s\n", t.Category)
	fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(t.Keywords, ", "))
	if t.Persona != "" {
		fmt.Fprintf(&b, "Persona: %s\n", t.Persona)
	}
	if t.Style != "" {
		fmt.Fprintf(&b, "Style: %s\n", t.Style)
	}
	return b.String()
}

// ComponentScores carries the independent signals behind a relevance score.
type ComponentScores struct {
	Keyword       float64 `json:"keyword"`
	Category      float64 `json:"category"`
	Semantic      float64 `json:"semantic"`
	CommercialFit float64 `json:"commercial_fit"`
	CategoryMatch float64 `json:"category_match"`
}

// RelevanceResult is the scoring engine's verdict for one
// (hotspot, target) pair.
type RelevanceResult struct {
	Score       float64         `json:"score"` // [0,1]
	Components  ComponentScores `json:"components"`
	Explanation string          `json:"explanation"`
	Vetoed      bool            `json:"vetoed"`
}

// Hotspot is the persisted aggregate: raw item fields plus enrichment
// and the latest match score. Keyed by URL; updated in place on every
// subsequent fetch of the same URL.
type Hotspot struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	SourceID  string    `json:"source_id"`
	Rank      int       `json:"rank"`
	HeatScore int       `json:"heat_score"`
	Tags      []string  `json:"tags,omitempty"`

	Structure ContentStructure `json:"structure"`
	Analysis  ContentAnalysis  `json:"analysis"`

	// MatchScore is recomputed on every run, never averaged.
	MatchScore float64 `json:"match_score"`
	TargetID   string  `json:"target_id,omitempty"`

	// EnrichmentPartial marks items whose structure or analysis
	// degraded to defaults. Such items stay visible to scoring.
	EnrichmentPartial bool `json:"enrichment_partial,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromRaw builds a Hotspot shell from a fetched item.
func FromRaw(raw RawItem) Hotspot {
	return Hotspot{
		Title:     raw.Title,
		URL:       raw.URL,
		SourceID:  raw.SourceID,
		Rank:      raw.Rank,
		HeatScore: raw.HeatScore,
		Tags:      raw.Tags,
	}
}

// Text returns the searchable text of a hotspot: title plus tags.
// All keyword and category matching operates on this.
func (h Hotspot) Text() string {
	if len(h.Tags) == 0 {
		return h.Title
	}
	return h.Title + " " + strings.Join(h.Tags, " ")
}
