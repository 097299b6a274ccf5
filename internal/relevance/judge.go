package relevance

import (
	"context"
	"fmt"
	"strings"

	"github.com/hotradar/hotradar/internal/brain"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/model"
)

var _ Judge = (*LLMJudge)(nil)

// LLMJudge asks a language model how relevant a hotspot is to a sales
// target. Any failure, transport or parse, yields "no judgment" so the
// engine falls back instead of treating the item as irrelevant.
type LLMJudge struct {
	provider   brain.Provider
	maxRetries int
}

// NewLLMJudge wires the semantic judge.
func NewLLMJudge(provider brain.Provider, maxRetries int) *LLMJudge {
	return &LLMJudge{provider: provider, maxRetries: maxRetries}
}

const judgeSystemPrompt = `You judge whether trending content is relevant to a live-selling channel. ` +
	`Relevance means the content's audience and angle could plausibly be turned into a selling segment for this channel. ` +
	`Respond with one JSON object: {"relevance": <number between 0 and 1>, "reason": "<one sentence>"}. No other text.`

func (j *LLMJudge) Judge(ctx context.Context, h model.Hotspot, target model.TargetProfile) (float64, bool) {
	var b strings.Builder
	b.WriteString("Channel profile:\n")
	b.WriteString(target.Render())
	fmt.Fprintf(&b, "\nTrending item:\nTitle: %s\n", h.Title)
	if h.Analysis.Summary != "" && h.Analysis.Summary != h.Title {
		fmt.Fprintf(&b, "Summary: %s\n", h.Analysis.Summary)
	}
	if len(h.Structure.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(h.Structure.Tags, ", "))
	}

	resp, err := brain.GenerateWithRetry(ctx, j.provider, brain.Request{
		SystemPrompt: judgeSystemPrompt,
		UserPrompt:   b.String(),
		MaxTokens:    256,
	}, j.maxRetries)
	if err != nil {
		logging.Warn("Semantic judge unavailable", "url", h.URL, "err", err)
		return 0, false
	}

	var out struct {
		Relevance float64 `json:"relevance"`
	}
	out.Relevance = -1
	if !brain.DecodeLoose(resp.Content, &out) || out.Relevance < 0 || out.Relevance > 1 {
		logging.Warn("Semantic judge output unusable", "url", h.URL)
		return 0, false
	}
	return out.Relevance, true
}
