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
	notificationHTTP "social-scheduler/services/notification/internal/controller/http"
	"social-scheduler/services/notification/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "social-scheduler/services/notification/docs" // Swagger docs
)

const taskTimeout = 10 * time.Second

// Dependencies are the connections opened by main. Without a queue client the
// HTTP side still serves stored notifications.
type Dependencies struct {
	RedisClient *redis.Client
	QueueClient *queue.Client
}

type Service struct {
	Router      *gin.Engine
	TaskHandler func(task queue.Task) error
}

func New(cfg *config.Config, log *logger.Logger, deps Dependencies) *Service {
	jwtService := jwt.NewService(cfg.JWTSecret)
	collector := metrics.NewCollector("notification")

	// Initialize UseCase
	notificationUseCase := usecase.NewNotificationUseCase(deps.RedisClient, log)

	// Initialize HTTP handlers
	notificationHandler := notificationHTTP.NewNotificationHandler(notificationUseCase, log, jwtService)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.MetricsEnabled {
		r.Use(collector.Middleware())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if deps.QueueClient != nil {
			if length, err := deps.QueueClient.QueueLength(); err == nil {
				body["queue_length"] = length
			} else {
				log.Warn("Failed to inspect notification queue: %v", err)
			}
		}
		c.JSON(http.StatusOK, body)
	})
	if cfg.MetricsEnabled {
		r.GET("/metrics", collector.Handler())
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	// WebSocket endpoint - handles authentication internally via query parameter
	api.GET("/notifications/ws", notificationHandler.HandleWebSocket)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddlewareWithFallback(jwtService, cfg.DefaultUserID))
	{
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.DELETE("/notifications/:post_id", notificationHandler.DeleteNotificationByPostID)
	}

	tasks := collector.NewCounter("tasks_total", "Queue tasks handled by type and outcome", []string{"type", "outcome"})

	return &Service{
		Router:      r,
		TaskHandler: taskHandler(notificationUseCase, tasks, log),
	}
}

func taskHandler(uc usecase.NotificationUseCase, tasks *prometheus.CounterVec, log *logger.Logger) func(task queue.Task) error {
	return func(task queue.Task) error {
		log.Debug("[NOTIFICATION HANDLER] Received task type=%s user=%s post=%s", task.Type, task.UserID, task.PostID)

		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()

		if err := uc.HandleTask(ctx, task); err != nil {
			tasks.WithLabelValues(task.Type, "error").Inc()
			return err
		}
		tasks.WithLabelValues(task.Type, "ok").Inc()
		return nil
	}
}

func Run(cfg *config.Config, log *logger.Logger, deps Dependencies) {
	service := New(cfg, log, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: service.Router,
	}

	if deps.QueueClient != nil {
		log.Info("Starting notification queue consumer...")
		if err := deps.QueueClient.ConsumeTasks(service.TaskHandler); err != nil {
			log.Error("Error starting notification queue consumer: %v", err)
		}
	}

	go func() {
		log.Info("Notification service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notification service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if deps.QueueClient != nil {
		deps.QueueClient.Close()
	}
	if err := deps.RedisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	log.Info("Notification service exited")
}
