package app

import (
	"fmt"

	eventHandler "github.com/allisson/pubflow/internal/event/handler"
	eventHTTP "github.com/allisson/pubflow/internal/event/http"
	eventRepository "github.com/allisson/pubflow/internal/event/repository"
	eventUseCase "github.com/allisson/pubflow/internal/event/usecase"
	"github.com/allisson/pubflow/internal/integration"
)

// EventRepository returns the event store for the configured driver.
func (c *Container) EventRepository() (eventUseCase.EventRepository, error) {
	var err error
	c.eventRepositoryInit.Do(func() {
		c.eventRepository, err = c.initEventRepository()
		if err != nil {
			c.initErrors["eventRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventRepository"]; exists {
		return nil, storedErr
	}
	return c.eventRepository, nil
}

// Schemas returns the payload schemas checked on enqueue.
func (c *Container) Schemas() (*eventHandler.SchemaSet, error) {
	var err error
	c.schemasInit.Do(func() {
		c.schemas, err = eventHandler.DefaultSchemas()
		if err != nil {
			c.initErrors["schemas"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["schemas"]; exists {
		return nil, storedErr
	}
	return c.schemas, nil
}

// EventUseCase returns the event use case wrapped with metrics.
func (c *Container) EventUseCase() (eventUseCase.EventUseCase, error) {
	var err error
	c.eventUseCaseInit.Do(func() {
		c.eventUseCase, err = c.initEventUseCase()
		if err != nil {
			c.initErrors["eventUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventUseCase"]; exists {
		return nil, storedErr
	}
	return c.eventUseCase, nil
}

// Registry returns the dispatch registry with every built-in handler registered.
func (c *Container) Registry() (*eventHandler.Registry, error) {
	var err error
	c.registryInit.Do(func() {
		c.registry, err = c.initRegistry()
		if err != nil {
			c.initErrors["registry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registry"]; exists {
		return nil, storedErr
	}
	return c.registry, nil
}

// Poller returns the event poller.
func (c *Container) Poller() (*eventUseCase.Poller, error) {
	var err error
	c.pollerInit.Do(func() {
		c.poller, err = c.initPoller()
		if err != nil {
			c.initErrors["poller"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["poller"]; exists {
		return nil, storedErr
	}
	return c.poller, nil
}

// EventHandler returns the HTTP handler of the event API.
func (c *Container) EventHandler() (*eventHTTP.EventHandler, error) {
	var err error
	c.eventHandlerInit.Do(func() {
		c.eventHandler, err = c.initEventHandler()
		if err != nil {
			c.initErrors["eventHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventHandler"]; exists {
		return nil, storedErr
	}
	return c.eventHandler, nil
}

func (c *Container) initEventRepository() (eventUseCase.EventRepository, error) {
	if c.InMemory() {
		return eventRepository.NewMemoryEventRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for event repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return eventRepository.NewMySQLEventRepository(db), nil
	case "postgres":
		return eventRepository.NewPostgreSQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initEventUseCase() (eventUseCase.EventUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for event use case: %w", err)
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for event use case: %w", err)
	}

	schemas, err := c.Schemas()
	if err != nil {
		return nil, fmt.Errorf("failed to get schemas for event use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for event use case: %w", err)
	}

	useCase := eventUseCase.NewEventUseCase(txManager, eventRepo, schemas, c.Logger())
	return eventUseCase.NewEventUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initRegistry() (*eventHandler.Registry, error) {
	notifier, err := c.Notifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get notifier for registry: %w", err)
	}

	client, err := c.IntegrationClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get integration client for registry: %w", err)
	}

	producers, err := c.Producers()
	if err != nil {
		return nil, fmt.Errorf("failed to get producers for registry: %w", err)
	}

	platform, err := c.PlatformRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform repository for registry: %w", err)
	}

	registry := eventHandler.NewRegistry()
	err = eventHandler.RegisterAll(registry, eventHandler.Dependencies{
		Notifier:  notifier,
		Harvester: client,
		Views:     client,
		DOI:       client,
		Reminder:  producers,
		Deposits:  platform,
		Logger:    c.Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}
	return registry, nil
}

func (c *Container) initPoller() (*eventUseCase.Poller, error) {
	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for poller: %w", err)
	}

	registry, err := c.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry for poller: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for poller: %w", err)
	}

	poller, err := eventUseCase.NewPoller(
		eventUseCase.PollerConfig{
			Interval:       c.config.EventPollInterval,
			RetryLimit:     c.config.EventRetryLimit,
			HandlerTimeout: c.config.EventHandlerTimeout,
		},
		eventRepo,
		registry,
		businessMetrics,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poller: %w", err)
	}
	return poller, nil
}

func (c *Container) initEventHandler() (*eventHTTP.EventHandler, error) {
	useCase, err := c.EventUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event use case for event handler: %w", err)
	}
	return eventHTTP.NewEventHandler(useCase, c.Logger()), nil
}

// Compile-time checks that the integration client serves the batch handlers.
var (
	_ eventHandler.Harvester     = (*integration.Client)(nil)
	_ eventHandler.ViewsImporter = (*integration.Client)(nil)
	_ eventHandler.DOIRefresher  = (*integration.Client)(nil)
)
