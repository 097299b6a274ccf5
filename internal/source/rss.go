package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hotradar/hotradar/internal/model"
)

var _ Strategy = (*RSS)(nil)

// RSS is the last-resort strategy for sources that publish a feed.
// Feeds carry no heat ordering beyond item position, so rank follows
// feed order.
type RSS struct {
	feeds  map[string]string // source ID -> feed URL
	client *http.Client
}

// NewRSS creates the feed fallback. Sources without a configured feed
// URL always fail here.
func NewRSS(feeds map[string]string, timeout time.Duration) *RSS {
	return &RSS{
		feeds:  feeds,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Fetch(ctx context.Context, sourceID string, limit int) ([]model.RawItem, error) {
	feedURL, ok := r.feeds[sourceID]
	if !ok {
		return nil, fmt.Errorf("no feed configured for %s", sourceID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "hotradar/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: HTTP %d", sourceID, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", sourceID, err)
	}

	now := time.Now()
	items := make([]model.RawItem, 0, len(feed.Items))
	for i, it := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		if it.Title == "" || it.Link == "" {
			continue
		}
		rank := i + 1
		items = append(items, model.RawItem{
			Title:      it.Title,
			URL:        it.Link,
			SourceID:   sourceID,
			Rank:       rank,
			HeatScore:  model.HeatFromRank(rank),
			Tags:       it.Categories,
			CapturedAt: now,
		})
	}
	return items, nil
}
