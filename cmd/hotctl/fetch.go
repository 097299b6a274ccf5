package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hotradar/hotradar/internal/source"
)

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	src := fs.String("source", "", "source ID to fetch (required)")
	limit := fs.Int("limit", 0, "max items (0 = all)")
	timeout := fs.Duration("timeout", 60*time.Second, "overall timeout")
	fs.Parse(os.Args[1:])

	if *src == "" {
		fmt.Fprintln(os.Stderr, "error: -source is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	fetcher := source.New(cfg.Fetch,
		source.NewTrendAPI(cfg.Fetch.TrendAPIBaseURL, cfg.Fetch.Timeout()),
		source.NewRemoteAPI(cfg.Fetch.RemoteEndpoint, cfg.Fetch.RemoteAPIKey, cfg.Fetch.Timeout()),
		source.NewRSS(cfg.Fetch.RSSFeeds, cfg.Fetch.Timeout()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	items, err := fetcher.Fetch(ctx, *src, *limit)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	fmt.Printf("%s: %d items\n", *src, len(items))
	for _, it := range items {
		fmt.Printf("%3d. heat=%-4d %s\n     %s\n", it.Rank, it.HeatScore, it.Title, it.URL)
	}
}
