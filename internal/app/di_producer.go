package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/pubflow/internal/event/producer"
)

// RedisClient returns the Redis client, or nil when no Redis URL is configured.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// Producers returns the periodic producers.
func (c *Container) Producers() (*producer.Producers, error) {
	var err error
	c.producersInit.Do(func() {
		c.producers, err = c.initProducers()
		if err != nil {
			c.initErrors["producers"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["producers"]; exists {
		return nil, storedErr
	}
	return c.producers, nil
}

// Scheduler returns the cron scheduler with the producer jobs added.
func (c *Container) Scheduler() (*producer.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		c.scheduler, err = c.initScheduler()
		if err != nil {
			c.initErrors["scheduler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

func (c *Container) initRedisClient() (*redis.Client, error) {
	if c.config.RedisURL == "" {
		return nil, nil
	}

	options, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(options), nil
}

func (c *Container) initProducers() (*producer.Producers, error) {
	events, err := c.EventUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event use case for producers: %w", err)
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for producers: %w", err)
	}

	platform, err := c.PlatformRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform repository for producers: %w", err)
	}

	client, err := c.IntegrationClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get integration client for producers: %w", err)
	}

	notifier, err := c.Notifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get notifier for producers: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for producers: %w", err)
	}

	return producer.NewProducers(
		producer.Config{
			AdminEmail:        c.config.AdminEmail,
			ReminderThreshold: c.config.SchedulerReminderThreshold,
		},
		events,
		eventRepo,
		platform,
		client,
		notifier,
		businessMetrics,
		c.Logger(),
	), nil
}

// initScheduler uses the Redis run lock when Redis is configured so only one
// replica runs each slot; otherwise the lock is process local.
func (c *Container) initScheduler() (*producer.Scheduler, error) {
	producers, err := c.Producers()
	if err != nil {
		return nil, fmt.Errorf("failed to get producers for scheduler: %w", err)
	}

	redisClient, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for scheduler: %w", err)
	}

	var lock producer.RunLock = producer.NewLocalRunLock()
	if redisClient != nil {
		lock = producer.NewRedisRunLock(redisClient)
	}

	scheduler := producer.NewScheduler(c.config.Location(), lock, c.config.SchedulerLockTTL, c.Logger())
	jobs := producers.Jobs(producer.Specs{
		Weekly:          c.config.SchedulerWeeklySpec,
		Daily:           c.config.SchedulerDailySpec,
		FiveMinute:      c.config.SchedulerFiveMinuteSpec,
		Reminder:        c.config.SchedulerReminderSpec,
		ReminderEnabled: c.config.SchedulerReminderEnabled,
	})
	for _, job := range jobs {
		if err := scheduler.Add(job); err != nil {
			return nil, fmt.Errorf("failed to schedule producer %s: %w", job.Name, err)
		}
	}
	return scheduler, nil
}
