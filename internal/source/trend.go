package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hotradar/hotradar/internal/model"
)

var _ Strategy = (*TrendAPI)(nil)

// TrendAPI is the primary strategy: a newsnow-style aggregator that
// returns the current ranked list for a platform in one GET.
type TrendAPI struct {
	baseURL string
	client  *http.Client
}

// NewTrendAPI creates the primary trend list client.
func NewTrendAPI(baseURL string, timeout time.Duration) *TrendAPI {
	return &TrendAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *TrendAPI) Name() string { return "trend-api" }

type trendResponse struct {
	Status string `json:"status"`
	Items  []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Extra struct {
			Info string `json:"info"`
		} `json:"extra"`
	} `json:"items"`
}

// Fetch returns the ranked list for sourceID. Rank is list position;
// heat is derived from rank since the API exposes no raw counts.
func (t *TrendAPI) Fetch(ctx context.Context, sourceID string, limit int) ([]model.RawItem, error) {
	u := fmt.Sprintf("%s?id=%s&latest", t.baseURL, url.QueryEscape(sourceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "hotradar/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", sourceID, resp.StatusCode)
	}

	var body trendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", sourceID, err)
	}
	if body.Status != "success" && body.Status != "cache" {
		return nil, fmt.Errorf("fetch %s: status %q", sourceID, body.Status)
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
		items = append(items, model.RawItem{
			Title:      it.Title,
			URL:        it.URL,
			SourceID:   sourceID,
			Rank:       rank,
			HeatScore:  model.HeatFromRank(rank),
			CapturedAt: now,
		})
	}
	return items, nil
}
