package worker

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Runner is what the scheduler drives; *Job satisfies it.
type Runner interface {
	Run(ctx context.Context) RunOutcome
}

// Scheduler runs the job once at start and then every interval. Two runs
// never overlap: a trigger that arrives during a run joins it instead.
type Scheduler struct {
	job      Runner
	interval time.Duration
	group    singleflight.Group
}

func NewScheduler(job Runner, interval time.Duration) *Scheduler {
	return &Scheduler{job: job, interval: interval}
}

// RunNow triggers a run, or waits for the one in progress. shared reports
// whether the outcome came from a run started by another caller.
func (s *Scheduler) RunNow(ctx context.Context) (out RunOutcome, shared bool) {
	v, _, shared := s.group.Do("aggregate", func() (interface{}, error) {
		return s.job.Run(ctx), nil
	})
	return v.(RunOutcome), shared
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.RunNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunNow(ctx)
		}
	}
}
