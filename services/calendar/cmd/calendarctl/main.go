// Command calendarctl reads a user's calendar and retries failed platform
// publishes against the same stores the calendar service uses.
package main

import (
	"os"

	"social-scheduler/pkg/cache"
	"social-scheduler/pkg/config"
	"social-scheduler/pkg/database"
	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/metrics"
	"social-scheduler/pkg/queue"
	calendarApp "social-scheduler/services/calendar/internal/app"
)

func main() {
	if err := newRootCmd(connect).Execute(); err != nil {
		os.Exit(1)
	}
}

// connect opens the stores the way the service does. Redis and the queue are
// optional; without Redis the retry guard only covers this process.
func connect() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	deps := calendarApp.Dependencies{DB: db}
	closers := []func(){}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, func() { sqlDB.Close() })
	}

	if redisClient, err := cache.NewRedisClient(cfg); err != nil {
		log.Warn("Redis unavailable, retry guard is local to this process: %v", err)
	} else {
		deps.RedisClient = redisClient
		closers = append(closers, func() { redisClient.Close() })
	}

	if queueClient, err := queue.NewRabbitMQClient(cfg, log); err != nil {
		log.Warn("RabbitMQ unavailable, no notifications will be sent: %v", err)
	} else {
		deps.QueueClient = queueClient
		closers = append(closers, func() { queueClient.Close() })
	}

	return &session{
		UseCases:      calendarApp.NewUseCases(cfg, log, deps, metrics.NewCollector("calendarctl")),
		Location:      cfg.Location(),
		DefaultUserID: cfg.DefaultUserID,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}
