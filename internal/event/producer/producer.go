// Package producer enqueues the periodic batch events and runs the periodic
// jobs that bypass the queue. Scheduler triggers the producers on cron specs.
package producer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/usecase"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/metrics"
	"github.com/allisson/pubflow/internal/notification"
	platformDomain "github.com/allisson/pubflow/internal/platform/domain"
)

// Producer names.
const (
	NameWeekly     = "weekly"
	NameDaily      = "daily"
	NameFiveMinute = "five-minute"
	NameReminder   = "reminder"
)

// ErrUnknownProducer indicates a producer name that does not exist.
var ErrUnknownProducer = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown producer")

// reminderRefPath is the payload path that makes draft reminders unique.
const reminderRefPath = "deposit.id"

// EventCounter counts stored events.
type EventCounter interface {
	Count(ctx context.Context, filter domain.EventFilter) (int, error)
}

// Platform exposes the platform aggregates the producers read and maintain.
type Platform interface {
	ListStaleDrafts(ctx context.Context, before time.Time) ([]*platformDomain.Deposit, error)
	RecomputeFollowerCounts(ctx context.Context) (int64, error)
}

// DOIRefresher refreshes the pending DOI registrations.
type DOIRefresher interface {
	RefreshPending(ctx context.Context) error
}

// Config holds producer configuration.
type Config struct {
	// AdminEmail receives the daily health-check email.
	AdminEmail string
	// ReminderThreshold is the draft age after which a reminder is enqueued.
	ReminderThreshold time.Duration
}

// Producers runs the periodic producers. Each producer runs its steps
// independently: a failed step does not stop or undo the others, and the
// joined errors are returned once every step ran.
type Producers struct {
	config   Config
	events   usecase.EventUseCase
	counter  EventCounter
	platform Platform
	doi      DOIRefresher
	notifier notification.Notifier
	metrics  metrics.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewProducers creates Producers.
func NewProducers(
	config Config,
	events usecase.EventUseCase,
	counter EventCounter,
	platform Platform,
	doi DOIRefresher,
	notifier notification.Notifier,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *Producers {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &Producers{
		config:   config,
		events:   events,
		counter:  counter,
		platform: platform,
		doi:      doi,
		notifier: notifier,
		metrics:  businessMetrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Names returns the producer names accepted by Run.
func Names() []string {
	return []string{NameWeekly, NameDaily, NameFiveMinute, NameReminder}
}

// Run runs the named producer once.
func (p *Producers) Run(ctx context.Context, name string) error {
	switch name {
	case NameWeekly:
		return p.Weekly(ctx)
	case NameDaily:
		return p.Daily(ctx)
	case NameFiveMinute:
		return p.FiveMinute(ctx)
	case NameReminder:
		return p.Reminder(ctx)
	default:
		return apperrors.Wrapf(ErrUnknownProducer, "%q", name)
	}
}

// Weekly enqueues a harvester run.
func (p *Producers) Weekly(ctx context.Context) error {
	return p.observe(ctx, NameWeekly, func(ctx context.Context) error {
		return p.enqueue(ctx, domain.TypeHarvesterRun)
	})
}

// Daily enqueues the three view imports, recomputes community follower counters
// and emails the operational health check.
func (p *Producers) Daily(ctx context.Context) error {
	return p.observe(ctx, NameDaily, func(ctx context.Context) error {
		return apperrors.Join(
			p.enqueue(ctx, domain.TypeDepositViewsImport),
			p.enqueue(ctx, domain.TypeCommunityViewsImport),
			p.enqueue(ctx, domain.TypeReviewViewsImport),
			p.recomputeFollowers(ctx),
			p.healthCheck(ctx),
		)
	})
}

// FiveMinute refreshes the pending DOI registrations directly, without an event.
func (p *Producers) FiveMinute(ctx context.Context) error {
	return p.observe(ctx, NameFiveMinute, func(ctx context.Context) error {
		return p.doi.RefreshPending(ctx)
	})
}

// Reminder enqueues one reminder per draft older than the threshold. Drafts
// already reminded are skipped.
func (p *Producers) Reminder(ctx context.Context) error {
	return p.observe(ctx, NameReminder, func(ctx context.Context) error {
		drafts, err := p.platform.ListStaleDrafts(ctx, p.now().Add(-p.config.ReminderThreshold))
		if err != nil {
			return err
		}

		var errs []error
		for _, draft := range drafts {
			errs = append(errs, p.remind(ctx, draft))
		}
		return apperrors.Join(errs...)
	})
}

func (p *Producers) remind(ctx context.Context, draft *platformDomain.Deposit) error {
	payload, err := json.Marshal(map[string]any{
		"deposit": map[string]any{
			"id":      draft.ID,
			"creator": draft.CreatorID,
			"title":   draft.Title,
		},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to encode reminder payload")
	}

	event, created, err := p.events.EnqueueUnique(ctx, usecase.EnqueueInput{
		Type:    domain.TypeDepositDraftReminder,
		Payload: payload,
	}, reminderRefPath)
	if err != nil {
		return apperrors.Wrapf(err, "failed to enqueue reminder for deposit %s", draft.ID)
	}

	p.logger.Debug("draft reminder",
		slog.String("deposit_id", draft.ID),
		slog.String("event_id", event.ID.String()),
		slog.Bool("created", created),
	)
	return nil
}

func (p *Producers) enqueue(ctx context.Context, eventType domain.Type) error {
	event, err := p.events.Enqueue(ctx, usecase.EnqueueInput{Type: eventType})
	if err != nil {
		return apperrors.Wrapf(err, "failed to enqueue %s", eventType)
	}
	p.logger.Info("event enqueued",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", eventType.String()),
	)
	return nil
}

func (p *Producers) recomputeFollowers(ctx context.Context) error {
	updated, err := p.platform.RecomputeFollowerCounts(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("community follower counts recomputed", slog.Int64("communities", updated))
	return nil
}

func (p *Producers) healthCheck(ctx context.Context) error {
	pending, err := p.counter.Count(ctx, domain.EventFilter{Statuses: []domain.Status{domain.StatusPending}})
	if err != nil {
		return apperrors.Wrap(err, "failed to count pending events")
	}
	failed, err := p.counter.Count(ctx, domain.EventFilter{Statuses: []domain.Status{domain.StatusFailed}})
	if err != nil {
		return apperrors.Wrap(err, "failed to count failed events")
	}

	return p.notifier.Notify(ctx, notification.Notification{
		Channel:   notification.ChannelEmail,
		Recipient: notification.AddressRecipient(p.config.AdminEmail),
		Template:  "health_check",
		Data: map[string]any{
			"pending":      pending,
			"failed":       failed,
			"generated_at": p.now().Format(time.RFC3339),
		},
	})
}

func (p *Producers) observe(ctx context.Context, name string, run func(ctx context.Context) error) error {
	start := time.Now()
	logger := p.logger.With(slog.String("producer", name))
	logger.Info("producer started")

	err := run(ctx)

	status := "success"
	if err != nil {
		status = "error"
		logger.Error("producer finished with errors", slog.Any("error", err))
	} else {
		logger.Info("producer finished", slog.Duration("elapsed", time.Since(start)))
	}

	operation := "producer_run_" + name
	p.metrics.RecordOperation(ctx, "producers", operation, status)
	p.metrics.RecordDuration(ctx, "producers", operation, time.Since(start), status)
	return err
}

// Specs holds the cron specs of the producers.
type Specs struct {
	Weekly          string
	Daily           string
	FiveMinute      string
	Reminder        string
	ReminderEnabled bool
}

// Jobs returns the scheduler jobs of the producers. The reminder job is only
// included when enabled.
func (p *Producers) Jobs(specs Specs) []Job {
	jobs := []Job{
		{Name: NameWeekly, Spec: specs.Weekly, Run: p.Weekly},
		{Name: NameDaily, Spec: specs.Daily, Run: p.Daily},
		{Name: NameFiveMinute, Spec: specs.FiveMinute, Run: p.FiveMinute},
	}
	if specs.ReminderEnabled {
		jobs = append(jobs, Job{Name: NameReminder, Spec: specs.Reminder, Run: p.Reminder})
	}
	return jobs
}
