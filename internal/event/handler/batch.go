package handler

import (
	"context"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/integration"
	"github.com/allisson/pubflow/internal/notification"
)

// Harvester starts a harvesting run.
type Harvester interface {
	Harvest(ctx context.Context) error
}

// ViewsImporter imports the view counters of one aggregate kind.
type ViewsImporter interface {
	ImportViews(ctx context.Context, kind integration.ViewKind) error
}

// DOIRefresher refreshes the pending DOI registrations.
type DOIRefresher interface {
	RefreshPending(ctx context.Context) error
}

// ReminderRunner scans stale drafts and enqueues their reminders.
type ReminderRunner interface {
	Reminder(ctx context.Context) error
}

// DepositStore updates deposits.
type DepositStore interface {
	SetOpenAIREIdentifier(ctx context.Context, depositID, value string) error
}

// NewHarvesterRunHandler handles HarvesterRun.
func NewHarvesterRunHandler(harvester Harvester) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, event *domain.Event) error {
		return harvester.Harvest(ctx)
	})
}

// NewViewsImportHandler handles the views import event of one aggregate kind.
func NewViewsImportHandler(importer ViewsImporter, kind integration.ViewKind) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, event *domain.Event) error {
		return importer.ImportViews(ctx, kind)
	})
}

// NewDOIStatusRefreshHandler handles DOIStatusRefresh.
func NewDOIStatusRefreshHandler(refresher DOIRefresher) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, event *domain.Event) error {
		return refresher.RefreshPending(ctx)
	})
}

// NewDraftReminderScanHandler handles DraftReminderScan by running the reminder producer.
func NewDraftReminderScanHandler(runner ReminderRunner) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, event *domain.Event) error {
		return runner.Reminder(ctx)
	})
}

// NewDepositHarvestedHandler handles DepositHarvested. The payload carries the
// deposit id and its OpenAIRE identifier.
func NewDepositHarvestedHandler(deposits DepositStore, logger *slog.Logger) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, event *domain.Event) error {
		depositID := gjson.GetBytes(event.Payload, "deposit").String()
		openAIREID := gjson.GetBytes(event.Payload, "openaire_id").String()
		if depositID == "" || openAIREID == "" {
			return apperrors.Wrap(domain.ErrInvalidPayload, "deposit and openaire_id are required")
		}

		if err := deposits.SetOpenAIREIdentifier(ctx, depositID, openAIREID); err != nil {
			return err
		}
		logger.Info("deposit harvested",
			slog.String("event_id", event.ID.String()),
			slog.String("deposit_id", depositID),
			slog.String("openaire_id", openAIREID),
		)
		return nil
	})
}

// Dependencies are the collaborators of the built-in handlers.
type Dependencies struct {
	Notifier  notification.Notifier
	Harvester Harvester
	Views     ViewsImporter
	DOI       DOIRefresher
	Reminder  ReminderRunner
	Deposits  DepositStore
	Logger    *slog.Logger
}

// RegisterAll registers a handler for every built-in event type.
func RegisterAll(registry *Registry, deps Dependencies) error {
	for _, route := range NotificationRoutes {
		if err := registry.Register(route.Type, NewNotificationHandler(route, deps.Notifier)); err != nil {
			return err
		}
	}

	batch := []struct {
		eventType domain.Type
		handler   domain.Handler
	}{
		{domain.TypeHarvesterRun, NewHarvesterRunHandler(deps.Harvester)},
		{domain.TypeDepositViewsImport, NewViewsImportHandler(deps.Views, integration.ViewsDeposits)},
		{domain.TypeCommunityViewsImport, NewViewsImportHandler(deps.Views, integration.ViewsCommunities)},
		{domain.TypeReviewViewsImport, NewViewsImportHandler(deps.Views, integration.ViewsReviews)},
		{domain.TypeDOIStatusRefresh, NewDOIStatusRefreshHandler(deps.DOI)},
		{domain.TypeDraftReminderScan, NewDraftReminderScanHandler(deps.Reminder)},
		{domain.TypeDepositHarvested, NewDepositHarvestedHandler(deps.Deposits, deps.Logger)},
	}
	for _, b := range batch {
		if err := registry.Register(b.eventType, b.handler); err != nil {
			return err
		}
	}
	return nil
}
