package producer

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// Job is a named function triggered by a cron spec.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler triggers jobs on standard five-field cron specs evaluated in a
// fixed location. Each run first takes a RunLock keyed by job name and
// scheduled minute, so a slot runs once across instances sharing the lock.
type Scheduler struct {
	location *time.Location
	lock     RunLock
	lockTTL  time.Duration
	logger   *slog.Logger
	jobs     []Job
	now      func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(location *time.Location, lock RunLock, lockTTL time.Duration, logger *slog.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		location: location,
		lock:     lock,
		lockTTL:  lockTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Add validates the job spec and registers the job. Jobs must be added
// before Start.
func (s *Scheduler) Add(job Job) error {
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "job %s has invalid spec %q: %v", job.Name, job.Spec, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name
	}
	return names
}

// Start runs the cron loop until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.location))
	for _, job := range s.jobs {
		if _, err := c.AddFunc(job.Spec, func() { s.run(ctx, job) }); err != nil {
			return apperrors.Wrapf(err, "failed to schedule %s", job.Name)
		}
	}

	s.logger.Info("starting scheduler",
		slog.String("location", s.location.String()),
		slog.Any("jobs", s.Jobs()),
	)
	c.Start()

	<-ctx.Done()
	s.logger.Info("stopping scheduler")
	<-c.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	slot := s.now().In(s.location).Truncate(time.Minute)
	key := "pubflow:producer:" + job.Name + ":" + slot.Format(time.RFC3339)
	logger := s.logger.With(slog.String("producer", job.Name), slog.Time("slot", slot))

	acquired, err := s.lock.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		logger.Error("failed to acquire run lock", slog.Any("error", err))
		return
	}
	if !acquired {
		logger.Debug("slot already taken by another instance")
		return
	}

	if err := job.Run(ctx); err != nil {
		logger.Error("scheduled job failed", slog.Any("error", err))
	}
}
