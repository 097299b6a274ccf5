package sched

import (
	"context"
	"testing"

	"github.com/hotradar/hotradar/internal/config"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	s, err := New(config.ScheduleConfig{Enabled: false, Cron: "0 8 * * *"}, func(ctx context.Context) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s != nil {
		t.Error("disabled schedule should yield nil scheduler")
	}

	// Nil scheduler methods are no-ops, not panics.
	s.Start()
	s.Stop()
}

func TestNewRejectsBadExpression(t *testing.T) {
	if _, err := New(config.ScheduleConfig{Enabled: true, Cron: "not a cron"}, func(ctx context.Context) {}); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestNewValidExpression(t *testing.T) {
	s, err := New(config.ScheduleConfig{Enabled: true, Cron: "0 8 * * *"}, func(ctx context.Context) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s == nil {
		t.Fatal("expected scheduler")
	}
	s.Start()
	s.Stop()
}
