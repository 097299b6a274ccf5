package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

func runHotspots() {
	fs := flag.NewFlagSet("hotspots", flag.ExitOnError)
	target := fs.String("target", "", "target ID to list (empty for all)")
	min := fs.Float64("min", -1, "minimum match score (default: config visibility threshold)")
	limit := fs.Int("limit", 20, "max rows")
	offset := fs.Int("offset", 0, "rows to skip")
	verbose := fs.Bool("v", false, "show summary and tags")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	minScore := cfg.Scoring.VisibilityThreshold
	if *min >= 0 {
		minScore = *min
	}

	hotspots, err := st.Visible(*target, minScore, *limit, *offset)
	if err != nil {
		log.Fatalf("failed to query hotspots: %v", err)
	}
	if len(hotspots) == 0 {
		fmt.Println("no hotspots at or above the threshold")
		return
	}

	for i, h := range hotspots {
		flags := ""
		if h.EnrichmentPartial {
			flags = " [partial]"
		}
		fmt.Printf("%2d. [%.2f] %-8s heat=%-4d %s%s\n",
			*offset+i+1, h.MatchScore, h.SourceID, h.HeatScore, h.Title, flags)
		if *verbose {
			if h.Analysis.Summary != "" && h.Analysis.Summary != h.Title {
				fmt.Printf("      %s\n", h.Analysis.Summary)
			}
			if len(h.Structure.Tags) > 0 {
				fmt.Printf("      tags: %s\n", strings.Join(h.Structure.Tags, " "))
			}
			fmt.Printf("      %s\n", h.URL)
		}
	}
}
