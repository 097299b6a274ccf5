package main

import (
	"log"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/store"
)

// loadConfig loads the config or fatals. CLI output goes to stderr at
// warn level so command output stays clean.
func loadConfig() config.Config {
	logging.InitWriter(os.Stderr, charmlog.WarnLevel)

	cfg, err := config.Load("hotradar.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// openDB opens the store or fatals.
func openDB(cfg config.Config) *store.Store {
	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}
