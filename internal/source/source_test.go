package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/model"
)

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{
		TimeoutSeconds:   2,
		MaxRetries:       1,
		RetryWaitMinSecs: 0,
		RetryWaitMaxSecs: 0,
		SpacingMillis:    0,
	}
}

type stubStrategy struct {
	name  string
	items []model.RawItem
	err   error
	calls atomic.Int32
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, sourceID string, limit int) ([]model.RawItem, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestFetcherFallsBackToSecondary(t *testing.T) {
	primary := &stubStrategy{name: "primary", err: errors.New("boom")}
	secondary := &stubStrategy{name: "secondary", items: []model.RawItem{
		{Title: "hit", URL: "https://example.com/1", SourceID: "douyin", Rank: 1, HeatScore: 100},
	}}

	f := New(testFetchConfig(), primary, secondary)
	items, err := f.Fetch(context.Background(), "douyin", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 || items[0].Title != "hit" {
		t.Errorf("items = %+v", items)
	}
	// Primary exhausts its retries before the fallback runs.
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("primary attempts = %d, want 2", got)
	}
	if got := secondary.calls.Load(); got != 1 {
		t.Errorf("secondary attempts = %d, want 1", got)
	}
}

func TestFetcherEmptyPrimaryFallsBack(t *testing.T) {
	primary := &stubStrategy{name: "primary"}
	secondary := &stubStrategy{name: "secondary", items: []model.RawItem{
		{Title: "hit", URL: "https://example.com/1", SourceID: "douyin", Rank: 1, HeatScore: 100},
	}}

	f := New(testFetchConfig(), primary, secondary)
	items, err := f.Fetch(context.Background(), "douyin", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 || items[0].Title != "hit" {
		t.Errorf("items = %+v, want 1 from secondary after empty primary", items)
	}
	// An empty answer is final for that strategy: no retry, straight
	// to the fallback.
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("primary attempts = %d, want 1", got)
	}
	if got := secondary.calls.Load(); got != 1 {
		t.Errorf("secondary attempts = %d, want 1", got)
	}
}

func TestFetcherAllStrategiesEmpty(t *testing.T) {
	a := &stubStrategy{name: "a"}
	b := &stubStrategy{name: "b"}

	f := New(testFetchConfig(), a, b)
	items, err := f.Fetch(context.Background(), "douyin", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want none", items)
	}
}

func TestFetcherAllStrategiesExhausted(t *testing.T) {
	a := &stubStrategy{name: "a", err: errors.New("down")}
	b := &stubStrategy{name: "b", err: errors.New("also down")}

	f := New(testFetchConfig(), a, b)
	_, err := f.Fetch(context.Background(), "zhihu", 0)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	ok := &stubStrategy{name: "ok", items: []model.RawItem{
		{Title: "t", URL: "https://example.com/t", Rank: 1},
	}}
	f := New(testFetchConfig(), ok)

	res := f.FetchAll(context.Background(), []string{"douyin", "weibo"}, 0)
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Total() != 2 {
		t.Errorf("total = %d, want 2", res.Total())
	}
}

func TestTrendAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "douyin" {
			t.Errorf("source id = %q", got)
		}
		fmt.Fprint(w, `{"status":"success","items":[
			{"title":"First","url":"https://example.com/a"},
			{"title":"Second","url":"https://example.com/b"},
			{"title":"","url":"https://example.com/skip"}
		]}`)
	}))
	defer srv.Close()

	api := NewTrendAPI(srv.URL, 2*time.Second)
	items, err := api.Fetch(context.Background(), "douyin", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (untitled entry skipped)", len(items))
	}
	if items[0].Rank != 1 || items[0].HeatScore != 100 {
		t.Errorf("first item rank/heat = %d/%d, want 1/100", items[0].Rank, items[0].HeatScore)
	}
	if items[1].Rank != 2 || items[1].HeatScore != 99 {
		t.Errorf("second item rank/heat = %d/%d, want 2/99", items[1].Rank, items[1].HeatScore)
	}
}

func TestTrendAPIFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","items":[]}`)
	}))
	defer srv.Close()

	api := NewTrendAPI(srv.URL, 2*time.Second)
	if _, err := api.Fetch(context.Background(), "douyin", 0); err == nil {
		t.Fatal("expected error for non-success status")
	}
}

func TestRemoteAPIFetchHeatFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key123" {
			t.Errorf("auth header = %q", got)
		}
		fmt.Fprint(w, `{"items":[
			{"title":"Hot","url":"https://example.com/h","hot":5000},
			{"title":"NoHot","url":"https://example.com/n"}
		]}`)
	}))
	defer srv.Close()

	api := NewRemoteAPI(srv.URL, "key123", 2*time.Second)
	items, err := api.Fetch(context.Background(), "weibo", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if items[0].HeatScore != 5000 {
		t.Errorf("explicit heat = %d, want 5000", items[0].HeatScore)
	}
	if items[1].HeatScore != model.HeatFromRank(2) {
		t.Errorf("fallback heat = %d, want %d", items[1].HeatScore, model.HeatFromRank(2))
	}
}

func TestRSSUnconfiguredSource(t *testing.T) {
	r := NewRSS(map[string]string{}, time.Second)
	if _, err := r.Fetch(context.Background(), "douyin", 0); err == nil {
		t.Fatal("expected error for unconfigured feed")
	}
}

func TestHeatFromRank(t *testing.T) {
	tests := []struct {
		rank, want int
	}{
		{1, 100},
		{2, 99},
		{100, 1},
		{101, 0},
		{500, 0},
	}
	for _, tt := range tests {
		if got := model.HeatFromRank(tt.rank); got != tt.want {
			t.Errorf("HeatFromRank(%d) = %d, want %d", tt.rank, got, tt.want)
		}
	}
}
