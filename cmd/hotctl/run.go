package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hotradar/hotradar/internal/app"
	"github.com/hotradar/hotradar/internal/pipeline"
)

func runPipeline() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	target := fs.String("target", "", "target ID (required)")
	sources := fs.String("sources", "", "comma-separated source IDs (default: all configured)")
	limit := fs.Int("limit", 0, "per-source item cap")
	filter := fs.String("filter", "", "comma-separated filter terms (+required !excluded plain)")
	timeout := fs.Duration("timeout", 30*time.Minute, "overall timeout")
	fs.Parse(os.Args[1:])

	if *target == "" {
		fmt.Fprintln(os.Stderr, "error: -target is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer a.Close()

	params := pipeline.Params{TargetID: *target, Limit: *limit}
	if *sources != "" {
		params.Sources = strings.Split(*sources, ",")
	}
	if *filter != "" {
		params.Filter = strings.Split(*filter, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	j := a.Jobs.Create()
	fmt.Printf("job %s starting\n", j.ID())

	out, err := a.Pipeline.Run(ctx, j, params)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	fmt.Println(out.Message)
	fmt.Printf("created %d new hotspots, %d filtered before enrichment\n", out.Created, out.Filtered)
}
