package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/queue"
	"social-scheduler/services/notification/internal/entity"

	"github.com/redis/go-redis/v9"
)

const (
	maxStoredNotifications = 100
	notificationTTL        = 30 * 24 * time.Hour
)

var (
	ErrInvalidTask     = errors.New("invalid task")
	ErrUnknownTaskType = errors.New("unknown notification type")
)

type NotificationUseCase interface {
	SendNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID string, limit, offset int) ([]entity.Notification, int64, error)
	DeleteNotificationByPostID(ctx context.Context, userID, postID string) (int, error)
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
	HandleTask(ctx context.Context, task queue.Task) error
}

type notificationUseCase struct {
	redisClient *redis.Client
	logger      *logger.Logger
	now         func() time.Time
}

func NewNotificationUseCase(redisClient *redis.Client, logger *logger.Logger) NotificationUseCase {
	return &notificationUseCase{
		redisClient: redisClient,
		logger:      logger,
		now:         time.Now,
	}
}

func notificationsKey(userID string) string {
	return fmt.Sprintf("notifications:%s", userID)
}

// SendNotification stores the notification at the head of the user's list,
// keeping the newest 100 for 30 days, and publishes it to live subscribers.
func (uc *notificationUseCase) SendNotification(ctx context.Context, notification *entity.Notification) error {
	if notification.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidTask)
	}
	if notification.CreatedAt == "" {
		notification.CreatedAt = uc.now().UTC().Format(time.RFC3339)
	}

	notificationJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := notificationsKey(notification.UserID)
	_, err = uc.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, notificationJSON)
		pipe.LTrim(ctx, key, 0, maxStoredNotifications-1)
		pipe.Expire(ctx, key, notificationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	subscribers, err := uc.redisClient.Publish(ctx, key, notificationJSON).Result()
	if err != nil {
		return fmt.Errorf("failed to publish notification to channel %s: %w", key, err)
	}
	uc.logger.Debug("[NOTIFICATION HANDLER] Stored %s notification for user %s, live subscribers=%d", notification.Type, notification.UserID, subscribers)

	return nil
}

func (uc *notificationUseCase) GetNotifications(ctx context.Context, userID string, limit, offset int) ([]entity.Notification, int64, error) {
	key := notificationsKey(userID)

	raw, err := uc.redisClient.LRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get notifications: %w", err)
	}

	notifications := make([]entity.Notification, 0, len(raw))
	for _, item := range raw {
		var notification entity.Notification
		if err := json.Unmarshal([]byte(item), &notification); err != nil {
			uc.logger.Warn("Skipping undecodable notification for user %s: %v", userID, err)
			continue
		}
		notifications = append(notifications, notification)
	}

	total, err := uc.redisClient.LLen(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return notifications, total, nil
}

// DeleteNotificationByPostID removes every stored notification about postID.
func (uc *notificationUseCase) DeleteNotificationByPostID(ctx context.Context, userID, postID string) (int, error) {
	key := notificationsKey(userID)

	raw, err := uc.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get notifications: %w", err)
	}

	deleted := 0
	for _, item := range raw {
		var notification entity.Notification
		if err := json.Unmarshal([]byte(item), &notification); err != nil || notification.PostID() != postID {
			continue
		}
		removed, err := uc.redisClient.LRem(ctx, key, 1, item).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to delete notification: %w", err)
		}
		deleted += int(removed)
	}

	return deleted, nil
}

// Subscription is a live feed of a user's notifications as raw JSON payloads.
type Subscription struct {
	Messages <-chan string

	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}

// Subscribe returns once Redis has confirmed the subscription, so no
// notification sent afterwards is missed.
func (uc *notificationUseCase) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	pubsub := uc.redisClient.Subscribe(ctx, notificationsKey(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to notifications: %w", err)
	}

	messages := make(chan string)
	sub := &Subscription{Messages: messages, pubsub: pubsub, done: make(chan struct{})}
	go func() {
		defer close(messages)
		for msg := range pubsub.Channel() {
			select {
			case messages <- msg.Payload:
			case <-sub.done:
				return
			}
		}
	}()

	return sub, nil
}

// HandleTask turns an outcome task from the calendar service into a user
// notification.
func (uc *notificationUseCase) HandleTask(ctx context.Context, task queue.Task) error {
	if task.UserID == "" {
		uc.logger.Error("[NOTIFICATION HANDLER] Invalid %s task: missing user_id, task=%+v", task.Type, task)
		return fmt.Errorf("%w: missing user_id", ErrInvalidTask)
	}

	notification, err := buildNotification(task)
	if err != nil {
		uc.logger.Error("[NOTIFICATION HANDLER] %v, task=%+v", err, task)
		return err
	}
	if !task.CreatedAt.IsZero() {
		notification.CreatedAt = task.CreatedAt.UTC().Format(time.RFC3339)
	}

	if err := uc.SendNotification(ctx, notification); err != nil {
		uc.logger.Error("[NOTIFICATION HANDLER] Failed to send %s notification to user %s: %v", task.Type, task.UserID, err)
		return err
	}

	uc.logger.Info("[NOTIFICATION HANDLER] Sent %s notification to user %s about post %s", task.Type, task.UserID, task.PostID)
	return nil
}

func buildNotification(task queue.Task) (*entity.Notification, error) {
	notification := &entity.Notification{
		UserID: task.UserID,
		Type:   task.Type,
		Data:   map[string]string{},
	}
	if task.PostID != "" {
		notification.Data["post_id"] = task.PostID
	}
	if task.Platform != "" {
		notification.Data["platform"] = task.Platform
	}

	platform := displayName(task.Platform)
	switch task.Type {
	case queue.TaskRetrySucceeded:
		notification.Title = "Retry succeeded"
		notification.Message = fmt.Sprintf("Your post is now live on %s.", platform)
		notification.Data["url"] = task.URL
	case queue.TaskRetryFailed:
		notification.Title = "Retry failed"
		notification.Message = withReason(fmt.Sprintf("Posting to %s failed again", platform), task.Error)
	case queue.TaskPostPublished:
		names := make([]string, 0, len(task.URLs))
		for p, url := range task.URLs {
			names = append(names, displayName(p))
			notification.Data[p+"_url"] = url
		}
		sort.Strings(names)
		notification.Title = "Post published"
		notification.Message = fmt.Sprintf("Your post was published to %s.", strings.Join(names, ", "))
	case queue.TaskPublishFailed:
		notification.Title = "Publishing failed"
		notification.Message = withReason("Your post could not be published", task.Error)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, task.Type)
	}

	return notification, nil
}

func withReason(message, reason string) string {
	if reason == "" {
		return message + "."
	}
	return fmt.Sprintf("%s: %s", message, reason)
}

func displayName(platform string) string {
	switch strings.ToLower(platform) {
	case "linkedin":
		return "LinkedIn"
	case "x", "twitter":
		return "X"
	case "facebook":
		return "Facebook"
	case "instagram":
		return "Instagram"
	case "":
		return "the platform"
	}
	return platform
}
