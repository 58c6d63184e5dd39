package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rentstore/internal/config"
	"rentstore/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers every job of runner under the specs in cfg. Specs use the standard
// five-field syntax or descriptors such as "@hourly" and "@every 5m"; an empty spec disables the job.
func NewScheduler(runner *Runner, cfg config.SchedulerConfig) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"RetryFailedNotifications", cfg.RetryNotifications, runner.RetryFailedNotifications},
		{"PurgeExpiredResetCodes", cfg.PurgeResetCodes, runner.PurgeExpiredResetCodes},
	}
	for _, j := range jobs {
		if j.spec == "" {
			logger.Warn("Cron job disabled", "job", j.name)
			continue
		}
		if _, err := c.AddFunc(j.spec, j.run); err != nil {
			return nil, fmt.Errorf("failed to register %s job with spec %q: %w", j.name, j.spec, err)
		}
	}

	return &Scheduler{cron: c}, nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
