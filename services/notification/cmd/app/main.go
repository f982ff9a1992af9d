package main

import (
	"social-scheduler/pkg/cache"
	"social-scheduler/pkg/config"
	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/queue"
	notificationApp "social-scheduler/services/notification/internal/app"

	"github.com/gin-gonic/gin"
)

// @title           Notification Service API
// @version         1.0
// @description     Retry and publish outcome notifications, stored per user and streamed live

// @host      localhost:8081
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == "your-secret-key-change-in-production" || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	log := logger.NewWithLevel(cfg.LogLevel)

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	deps := notificationApp.Dependencies{RedisClient: redisClient}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, only stored notifications are served: %v", err)
	} else {
		deps.QueueClient = queueClient
	}

	notificationApp.Run(cfg, log, deps)
}
