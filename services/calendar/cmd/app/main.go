package main

import (
	"social-scheduler/pkg/cache"
	"social-scheduler/pkg/config"
	"social-scheduler/pkg/database"
	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/queue"
	"social-scheduler/pkg/s3"
	calendarApp "social-scheduler/services/calendar/internal/app"

	"github.com/gin-gonic/gin"
)

// @title           Calendar Service API
// @version         1.0
// @description     Content calendar: day views, scheduling and per-platform retry

// @host      localhost:8080
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
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	// Migrations are handled by goose - see cmd/migrate/main.go

	deps := calendarApp.Dependencies{DB: db}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Redis unavailable, retry state stays in process memory: %v", err)
	} else {
		deps.RedisClient = redisClient
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, notifications disabled: %v", err)
	} else {
		deps.QueueClient = queueClient
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Warn("S3 unavailable, media upload disabled: %v", err)
	} else {
		deps.S3Client = s3Client
	}

	calendarApp.Run(cfg, log, deps)
}
