package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddJobValidation(t *testing.T) {
	s := New(nil)
	if err := s.AddJob("sweep", "not a schedule", func(context.Context) {}); err == nil {
		t.Error("invalid schedule must be rejected")
	}
	if err := s.AddJob("sweep", "@every 12h", func(context.Context) {}); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if got := s.JobCount(); got != 1 {
		t.Errorf("job count = %d, want 1", got)
	}
}

func TestAddJobReplacesName(t *testing.T) {
	s := New(nil)
	for _, schedule := range []string{"@every 1h", "@every 2h", "@every 3h"} {
		if err := s.AddJob("sweep", schedule, func(context.Context) {}); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.JobCount(); got != 1 {
		t.Errorf("job count = %d, re-adding a name must replace", got)
	}
}

func TestRemoveJob(t *testing.T) {
	s := New(nil)
	if err := s.AddJob("sweep", "@every 1h", func(context.Context) {}); err != nil {
		t.Fatal(err)
	}
	s.RemoveJob("sweep")
	s.RemoveJob("missing") // no-op
	if got := s.JobCount(); got != 0 {
		t.Errorf("job count = %d, want 0", got)
	}
}

func TestJobFires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}

	s := New(nil)
	var fired atomic.Int32
	if err := s.AddJob("tick", "@every 1s", func(context.Context) { fired.Add(1) }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	if fired.Load() == 0 {
		t.Error("job never fired")
	}
}
