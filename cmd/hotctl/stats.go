package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		log.Fatalf("failed to read stats: %v", err)
	}

	fmt.Printf("Total hotspots:       %d\n", stats.Total)

	fmt.Printf("\nSources (%d):\n", len(stats.BySource))
	for _, name := range sortedKeys(stats.BySource) {
		fmt.Printf("  %-20s %d\n", name, stats.BySource[name])
	}

	fmt.Printf("\nTargets (%d):\n", len(stats.ByTarget))
	for _, name := range sortedKeys(stats.ByTarget) {
		label := name
		if label == "" {
			label = "(unscored)"
		}
		fmt.Printf("  %-20s %d\n", label, stats.ByTarget[name])
	}

	fmt.Printf("\nVisibility threshold: %.2f\n", cfg.Scoring.VisibilityThreshold)
	for _, target := range cfg.Targets {
		visible, err := st.Visible(target.ID, cfg.Scoring.VisibilityThreshold, 0, 0)
		if err != nil {
			log.Fatalf("failed to count visible for %s: %v", target.ID, err)
		}
		fmt.Printf("  %-20s %d visible\n", target.ID, len(visible))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
