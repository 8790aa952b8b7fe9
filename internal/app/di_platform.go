package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"

	"github.com/allisson/pubflow/internal/integration"
	"github.com/allisson/pubflow/internal/notification"
	platformDomain "github.com/allisson/pubflow/internal/platform/domain"
	platformRepository "github.com/allisson/pubflow/internal/platform/repository"
	userHTTP "github.com/allisson/pubflow/internal/user/http"
	userRepository "github.com/allisson/pubflow/internal/user/repository"
	userUseCase "github.com/allisson/pubflow/internal/user/usecase"
)

// PlatformStore is the platform aggregate access used by producers and handlers.
type PlatformStore interface {
	ListStaleDrafts(ctx context.Context, before time.Time) ([]*platformDomain.Deposit, error)
	RecomputeFollowerCounts(ctx context.Context) (int64, error)
	SetOpenAIREIdentifier(ctx context.Context, depositID, value string) error
}

// UserRepository returns the user repository for the configured driver.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepository"]; exists {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// UserUseCase returns the user use case.
func (c *Container) UserUseCase() (*userUseCase.UserUseCase, error) {
	var err error
	c.userUseCaseInit.Do(func() {
		c.userUseCase, err = c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// UserHandler returns the HTTP handler of the user API.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	var err error
	c.userHandlerInit.Do(func() {
		var useCase *userUseCase.UserUseCase
		useCase, err = c.UserUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get user use case for user handler: %w", err)
			c.initErrors["userHandler"] = err
			return
		}
		c.userHandler = userHTTP.NewUserHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

// PlatformRepository returns the platform aggregate store for the configured driver.
func (c *Container) PlatformRepository() (PlatformStore, error) {
	var err error
	c.platformRepositoryInit.Do(func() {
		c.platformRepository, err = c.initPlatformRepository()
		if err != nil {
			c.initErrors["platformRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["platformRepository"]; exists {
		return nil, storedErr
	}
	return c.platformRepository, nil
}

// Notifier returns the notification router with a sender for every channel.
func (c *Container) Notifier() (*notification.Router, error) {
	var err error
	c.notifierInit.Do(func() {
		c.notifier, err = c.initNotifier()
		if err != nil {
			c.initErrors["notifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["notifier"]; exists {
		return nil, storedErr
	}
	return c.notifier, nil
}

// PushTopic returns the pubsub topic push notifications are published to.
func (c *Container) PushTopic() (*pubsub.Topic, error) {
	var err error
	c.pushTopicInit.Do(func() {
		c.pushTopic, err = pubsub.OpenTopic(context.Background(), c.config.PushTopicURL)
		if err != nil {
			err = fmt.Errorf("failed to open push topic %q: %w", c.config.PushTopicURL, err)
			c.initErrors["pushTopic"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pushTopic"]; exists {
		return nil, storedErr
	}
	return c.pushTopic, nil
}

// IntegrationClient returns the client of the external batch services.
func (c *Container) IntegrationClient() (*integration.Client, error) {
	c.integrationClientInit.Do(func() {
		c.integrationClient = integration.NewClient(integration.Config{
			HarvesterURL:  c.config.HarvesterURL,
			AnalyticsURL:  c.config.AnalyticsURL,
			DOIServiceURL: c.config.DOIServiceURL,
			Timeout:       c.config.IntegrationTimeout,
		}, c.Logger())
	})
	return c.integrationClient, nil
}

func (c *Container) initUserRepository() (userUseCase.UserRepository, error) {
	if c.InMemory() {
		return userRepository.NewMemoryUserRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return userRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return userRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initUserUseCase() (*userUseCase.UserUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	events, err := c.EventUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event use case for user use case: %w", err)
	}

	useCase, err := userUseCase.NewUserUseCase(txManager, userRepo, events)
	if err != nil {
		return nil, fmt.Errorf("failed to create user use case: %w", err)
	}
	return useCase, nil
}

func (c *Container) initPlatformRepository() (PlatformStore, error) {
	if c.InMemory() {
		return platformRepository.NewMemoryPlatformRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for platform repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return platformRepository.NewMySQLPlatformRepository(db), nil
	case "postgres":
		return platformRepository.NewPostgreSQLPlatformRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initNotifier registers the channel senders. Without an SMTP host email is
// logged, and the in-memory driver logs in-app notifications.
func (c *Container) initNotifier() (*notification.Router, error) {
	logger := c.Logger()
	router := notification.NewRouter(logger)
	logSender := notification.NewLogSender(logger)

	router.Register(notification.ChannelLog, logSender)

	if strings.TrimSpace(c.config.SMTPHost) == "" {
		router.Register(notification.ChannelEmail, logSender)
	} else {
		users, err := c.UserUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get user directory for email sender: %w", err)
		}
		router.Register(notification.ChannelEmail, notification.NewEmailSender(notification.SMTPConfig{
			Host:     c.config.SMTPHost,
			Port:     c.config.SMTPPort,
			Username: c.config.SMTPUsername,
			Password: c.config.SMTPPassword,
			From:     c.config.SMTPFrom,
		}, users))
	}

	topic, err := c.PushTopic()
	if err != nil {
		return nil, err
	}
	router.Register(notification.ChannelPush, notification.NewPushSender(topic))

	switch {
	case c.InMemory():
		router.Register(notification.ChannelInApp, logSender)
	default:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for in-app sender: %w", err)
		}
		if c.config.DBDriver == "mysql" {
			router.Register(notification.ChannelInApp, notification.NewMySQLInAppSender(db))
		} else {
			router.Register(notification.ChannelInApp, notification.NewPostgreSQLInAppSender(db))
		}
	}

	return router, nil
}
