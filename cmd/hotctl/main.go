// Command hotctl is the CLI for hotradar debugging and maintenance.
//
// Usage:
//
//	hotctl                  Show help
//	hotctl stats            Store statistics
//	hotctl hotspots         List scored hotspots
//	hotctl fetch            Fetch one source and print the raw list
//	hotctl score            Score a title against a target
//	hotctl run              Run the full pipeline once
//	hotctl events           View the JSONL run-event log
package main

import (
	"fmt"
	"os"
)

const usage = `hotctl — hotradar debug & maintenance CLI

Usage:
  hotctl <command> [flags]

Commands:
  stats       Store statistics: totals per source and target
  hotspots    List scored hotspots for a target
  fetch       Fetch one source's trend list and print it
  score       Score a title against a target (no LLM calls)
  run         Run the full pipeline once for a target
  events      JSONL run-event log viewer

Environment:
  HOTRADAR_CONFIG      Config file path (default hotradar.yaml)
  HOTRADAR_DB          Database path override
  HOTRADAR_LLM_API_KEY LLM API key (run command only)

Run 'hotctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "stats":
		runStats()
	case "hotspots":
		runHotspots()
	case "fetch":
		runFetch()
	case "score":
		runScore()
	case "run":
		runPipeline()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "hotctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
