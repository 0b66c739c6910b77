// Package scheduler runs pipeline jobs on a cron schedule.
package scheduler

import (
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron  *cron.Cron
	fatal chan error
	log   zerolog.Logger
}

// New creates a new scheduler. Specs carry a seconds field and are
// evaluated in loc. Overlapping runs of the same job are skipped.
func New(loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		fatal: make(chan error, 1),
		log:   log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// Fatal delivers the first storage failure of any job.
// The owner is expected to stop the process when it fires.
func (s *Scheduler) Fatal() <-chan error {
	return s.fatal
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 30 16 * * MON-FRI" - 16:30 on weekdays
//   - "@daily"              - Midnight
//   - "@every 30s"          - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.execute(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// Entries returns the next activation of every registered job
func (s *Scheduler) Entries() []time.Time {
	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Next)
	}
	return next
}

func (s *Scheduler) execute(job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	if err := job.Run(); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")

		if domain.IsStorageError(err) {
			select {
			case s.fatal <- err:
			default:
			}
		}
		return
	}

	s.log.Debug().Str("job", job.Name()).Msg("Job completed")
}
