package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Maintainer is the cache housekeeping the scheduler drives.
type Maintainer interface {
	// Sweep evicts unused cache entries and returns how many were removed.
	Sweep() int
	// Refresh re-fetches active entries and returns how many were started.
	Refresh() int
}

// Scheduler periodically sweeps the dashboard caches and, optionally,
// refreshes the widgets that are mounted.
type Scheduler struct {
	scheduler       *gocron.Scheduler
	target          Maintainer
	sweepInterval   time.Duration
	refreshInterval time.Duration
}

// New creates a new Scheduler. A refreshInterval of zero disables the
// refresh job.
func New(target Maintainer, sweepInterval, refreshInterval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:       s,
		target:          target,
		sweepInterval:   sweepInterval,
		refreshInterval: refreshInterval,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	sweepEvery := s.sweepInterval
	if sweepEvery <= 0 {
		sweepEvery = 30 * time.Second
	}

	_, err := s.scheduler.Every(sweepEvery).WaitForSchedule().Do(func() {
		if n := s.target.Sweep(); n > 0 {
			log.Printf("scheduler: evicted %d unused cache entries", n)
		}
	})
	if err != nil {
		return err
	}

	if s.refreshInterval > 0 {
		_, err = s.scheduler.Every(s.refreshInterval).WaitForSchedule().Do(func() {
			log.Println("scheduler: refreshing mounted widgets")
			n := s.target.Refresh()
			log.Printf("scheduler: started %d refetches", n)
		})
		if err != nil {
			return err
		}
	} else {
		log.Println("scheduler: refresh interval not set; widgets refresh on demand only")
	}

	s.scheduler.StartAsync()
	return nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
