package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hotradar/hotradar/internal/model"
)

// MediaAnalyzer calls the remote media analysis service that downloads
// a video or page and returns its structural breakdown. Calls can run
// for minutes on large media, so the client carries its own generous
// timeout.
type MediaAnalyzer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewMediaAnalyzer creates the analyzer client. An empty endpoint
// disables it; Analyze then fails immediately and the caller falls
// through to the other extraction paths.
func NewMediaAnalyzer(endpoint, apiKey string, timeout time.Duration) *MediaAnalyzer {
	return &MediaAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Analyze submits a content URL and returns the extracted structure.
func (m *MediaAnalyzer) Analyze(ctx context.Context, contentURL string) (model.ContentStructure, error) {
	var out model.ContentStructure

	if m.endpoint == "" {
		return out, fmt.Errorf("media analyzer not configured")
	}

	payload, err := json.Marshal(map[string]string{"url": contentURL})
	if err != nil {
		return out, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("analyze %s: %w", contentURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("analyze %s: HTTP %d", contentURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode analysis: %w", err)
	}
	return out, nil
}
