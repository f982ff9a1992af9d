package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-scheduler/pkg/config"
	"social-scheduler/pkg/jwt"
	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/metrics"
	"social-scheduler/pkg/middleware"
	"social-scheduler/pkg/queue"
	"social-scheduler/pkg/s3"
	"social-scheduler/services/calendar/internal/aggregate"
	calendarHTTP "social-scheduler/services/calendar/internal/controller/http"
	"social-scheduler/services/calendar/internal/repo/persistent"
	"social-scheduler/services/calendar/internal/repo/webapi"
	"social-scheduler/services/calendar/internal/retrystate"
	"social-scheduler/services/calendar/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "social-scheduler/services/calendar/docs" // Swagger docs
)

// Dependencies are the connections opened by main. Redis, the queue and S3
// are optional: retry state falls back to process memory, notifications and
// uploads are disabled.
type Dependencies struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	QueueClient *queue.Client
	S3Client    *s3.Client
}

// UseCases are the calendar operations shared by the HTTP service and calendarctl.
type UseCases struct {
	Calendar usecase.CalendarUseCase
	Retry    usecase.RetryUseCase
}

func NewUseCases(cfg *config.Config, log *logger.Logger, deps Dependencies, collector *metrics.Collector) UseCases {
	// Initialize repositories
	scheduledRepo := persistent.NewScheduledPostRepository(deps.DB)
	liveRepo := persistent.NewLivePostRepository(deps.DB)
	publisher := webapi.NewPublishClient(cfg.PublishAPIURL, cfg.PublishTimeout, log)

	var tracker retrystate.Tracker = retrystate.NewMemoryTracker()
	if deps.RedisClient != nil {
		tracker = retrystate.NewRedisTracker(deps.RedisClient, cfg.RetryInFlightTTL(), cfg.RetryStateTTL)
	}

	var tasks usecase.TaskPublisher
	if deps.QueueClient != nil {
		tasks = deps.QueueClient
	}
	var media usecase.MediaStore
	if deps.S3Client != nil {
		media = deps.S3Client
	}

	// Initialize use cases
	useCaseMetrics := usecase.NewMetrics(collector)
	return UseCases{
		Calendar: usecase.NewCalendarUseCase(scheduledRepo, liveRepo, publisher, media, tasks,
			aggregate.New(cfg.Location()), useCaseMetrics, log),
		Retry: usecase.NewRetryUseCase(scheduledRepo, liveRepo, publisher, tracker, tasks, useCaseMetrics, log),
	}
}

func NewRouter(cfg *config.Config, log *logger.Logger, deps Dependencies) *gin.Engine {
	jwtService := jwt.NewService(cfg.JWTSecret)
	collector := metrics.NewCollector("calendar")
	useCases := NewUseCases(cfg, log, deps, collector)

	// Initialize HTTP handlers
	calendarHandler := calendarHTTP.NewCalendarHandler(useCases.Calendar, useCases.Retry, log)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.MetricsEnabled {
		r.Use(collector.Middleware())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.GET("/metrics", collector.Handler())
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddlewareWithFallback(jwtService, cfg.DefaultUserID))
	api.Use(middleware.RateLimitMiddleware(deps.RedisClient, 100, time.Minute))
	calendarHTTP.RegisterRoutes(api, calendarHandler)

	return r
}

func Run(cfg *config.Config, log *logger.Logger, deps Dependencies) {
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(cfg, log, deps),
	}

	go func() {
		log.Info("Calendar service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down calendar service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop accepting requests before the connections they use go away.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := deps.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}
	if deps.RedisClient != nil {
		if err := deps.RedisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}
	if deps.QueueClient != nil {
		deps.QueueClient.Close()
	}

	log.Info("Calendar service exited")
}
