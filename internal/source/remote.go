package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hotradar/hotradar/internal/model"
)

var _ Strategy = (*RemoteAPI)(nil)

// RemoteAPI is the secondary strategy: a generic hosted bridge that
// proxies platform trend lists behind one authenticated RPC endpoint.
type RemoteAPI struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewRemoteAPI creates the fallback RPC client.
func NewRemoteAPI(endpoint, apiKey string, timeout time.Duration) *RemoteAPI {
	return &RemoteAPI{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *RemoteAPI) Name() string { return "remote-api" }

type remoteRequest struct {
	Source string `json:"source"`
	Limit  int    `json:"limit,omitempty"`
}

type remoteResponse struct {
	Items []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Hot   int    `json:"hot"`
		Tags  []string `json:"tags"`
	} `json:"items"`
}

func (r *RemoteAPI) Fetch(ctx context.Context, sourceID string, limit int) ([]model.RawItem, error) {
	if r.endpoint == "" {
		return nil, fmt.Errorf("remote endpoint not configured")
	}

	payload, err := json.Marshal(remoteRequest{Source: sourceID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote fetch %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote fetch %s: HTTP %d", sourceID, resp.StatusCode)
	}

	var body remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", sourceID, err)
	}

	now := time.Now()
	items := make([]model.RawItem, 0, len(body.Items))
	for i, it := range body.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		if it.Title == "" || it.URL == "" {
			continue
		}
		rank := i + 1
		heat := it.Hot
		if heat <= 0 {
			heat = model.HeatFromRank(rank)
		}
		items = append(items, model.RawItem{
			Title:      it.Title,
			URL:        it.URL,
			SourceID:   sourceID,
			Rank:       rank,
			HeatScore:  heat,
			Tags:       it.Tags,
			CapturedAt: now,
		})
	}
	return items, nil
}
