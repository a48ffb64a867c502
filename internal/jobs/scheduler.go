package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	syncpkg "github.com/rotabull/supportsync/internal/sync"
)

// Runner is the orchestrator surface the scheduler needs.
type Runner interface {
	Run(ctx context.Context) syncpkg.Result
}

// Scheduler runs the full sync on a fixed interval (weekly by default).
// Singleton mode prevents a slow run from overlapping the next one.
type Scheduler struct {
	log      *logger.Logger
	runner   Runner
	interval time.Duration
	sched    *gocron.Scheduler
}

func NewScheduler(baseLog *logger.Logger, runner Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	return &Scheduler{
		log:      baseLog.With("component", "SyncScheduler"),
		runner:   runner,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.sched = gocron.NewScheduler(time.UTC)
	_, err := s.sched.Every(s.interval).SingletonMode().Do(func() {
		s.log.Info("Scheduled sync starting")
		res := s.runner.Run(ctx)
		s.log.Info("Scheduled sync finished", "state", res.State, "run_id", res.RunID)
	})
	if err != nil {
		return err
	}
	s.sched.StartAsync()
	s.log.Info("Scheduled jobs started", "interval", s.interval.String())
	return nil
}

func (s *Scheduler) Stop() {
	if s.sched != nil {
		s.sched.Stop()
	}
}
