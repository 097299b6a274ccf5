// Command hotradar is the hotspot acquisition and scoring service. It
// exposes the HTTP API for triggering runs and reading results, and
// optionally runs the pipeline on a schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hotradar/hotradar/internal/app"
	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/events"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/pipeline"
	"github.com/hotradar/hotradar/internal/sched"
)

func main() {
	configPath := flag.String("config", "hotradar.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("Load config", "err", err)
	}
	if *addr != "" {
		cfg.API.Addr = *addr
	}

	a, err := app.Build(cfg)
	if err != nil {
		logging.Fatal("Build application", "err", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := sched.New(cfg.Schedule, func(runCtx context.Context) {
		for _, target := range cfg.Targets {
			j := a.Jobs.Create()
			if _, err := a.Pipeline.Run(runCtx, j, pipeline.Params{TargetID: target.ID}); err != nil {
				logging.Error("Scheduled run failed", "target", target.ID, "err", err)
			}
		}
	})
	if err != nil {
		logging.Fatal("Configure scheduler", "err", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logging.Info("hotradar starting",
		"addr", cfg.API.Addr, "sources", len(cfg.Sources), "targets", len(cfg.Targets))
	a.Events.Info(events.KindStartup, events.Event{Msg: cfg.API.Addr})

	err = a.Server.ListenAndServe(ctx, cfg.API.Addr)
	a.Events.Info(events.KindShutdown, events.Event{})
	if err != nil {
		logging.Fatal("API server", "err", err)
	}
}
