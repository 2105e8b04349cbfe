package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeMaintainer struct {
	sweeps    atomic.Int32
	refreshes atomic.Int32
}

func (f *fakeMaintainer) Sweep() int {
	f.sweeps.Add(1)
	return 1
}

func (f *fakeMaintainer) Refresh() int {
	f.refreshes.Add(1)
	return 2
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSchedulerRunsSweepAndRefresh(t *testing.T) {
	m := &fakeMaintainer{}
	s := New(m, 50*time.Millisecond, 50*time.Millisecond)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if got := s.Jobs(); got != 2 {
		t.Fatalf("expected 2 jobs, got %d", got)
	}
	waitFor(t, func() bool { return m.sweeps.Load() > 0 && m.refreshes.Load() > 0 })
}

func TestSchedulerWithoutRefresh(t *testing.T) {
	m := &fakeMaintainer{}
	s := New(m, 50*time.Millisecond, 0)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if got := s.Jobs(); got != 1 {
		t.Fatalf("expected 1 job, got %d", got)
	}
	waitFor(t, func() bool { return m.sweeps.Load() > 0 })
	if n := m.refreshes.Load(); n != 0 {
		t.Fatalf("refresh ran %d times", n)
	}
}
