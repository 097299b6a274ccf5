package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hotradar/hotradar/internal/model"
	"github.com/hotradar/hotradar/internal/relevance"
)

// score exercises the relevance engine without LLM calls: direct
// signals only, so the output shows what keywords and categories
// contribute before semantic judging enters.
func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	target := fs.String("target", "", "target ID (required)")
	title := fs.String("title", "", "title to score (required unless -url)")
	tags := fs.String("tags", "", "comma-separated tags")
	url := fs.String("url", "", "score a stored hotspot by URL instead")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()

	profile, ok := cfg.Target(*target)
	if !ok {
		log.Fatalf("unknown target %q (configured: %d)", *target, len(cfg.Targets))
	}

	var h model.Hotspot
	switch {
	case *url != "":
		st := openDB(cfg)
		defer st.Close()
		stored, found, err := st.Get(*url)
		if err != nil {
			log.Fatalf("failed to load hotspot: %v", err)
		}
		if !found {
			log.Fatalf("no stored hotspot for %s", *url)
		}
		h = stored
	case *title != "":
		h = model.Hotspot{Title: *title}
		if *tags != "" {
			h.Tags = strings.Split(*tags, ",")
		}
	default:
		fmt.Fprintln(os.Stderr, "error: -title or -url is required")
		fs.Usage()
		os.Exit(1)
	}

	engine := relevance.NewEngine(cfg.Scoring, nil)
	res := engine.Score(context.Background(), h, profile)

	fmt.Printf("Target:   %s (%s)\n", profile.Name, profile.Category)
	fmt.Printf("Title:    %s\n", h.Title)
	fmt.Printf("Score:    %.3f\n", res.Score)
	fmt.Printf("Basis:    %s\n", res.Explanation)
	fmt.Printf("Signals:  keyword=%.2f category=%.2f categoryMatch=%.2f commercialFit=%.2f\n",
		res.Components.Keyword, res.Components.Category,
		res.Components.CategoryMatch, res.Components.CommercialFit)
}
