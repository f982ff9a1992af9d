package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"social-scheduler/pkg/config"
	"social-scheduler/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationQueueName  = "notification_tasks"
	PostEventsExchange     = "post_events"
	NotificationRoutingKey = "notification"
	maxPriority            = 10
)

// Task types understood by the notification service.
const (
	TaskRetrySucceeded = "retry_succeeded"
	TaskRetryFailed    = "retry_failed"
	TaskPostPublished  = "post_published"
	TaskPublishFailed  = "publish_failed"
)

type Task struct {
	Type      string            `json:"type"`
	UserID    string            `json:"user_id"`
	PostID    string            `json:"post_id,omitempty"`
	Platform  string            `json:"platform,omitempty"`
	URL       string            `json:"url,omitempty"`
	Error     string            `json:"error,omitempty"`
	URLs      map[string]string `json:"urls,omitempty"`
	Priority  int               `json:"priority,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		PostEventsExchange, // name
		"direct",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		NotificationQueueName, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		amqp.Table{
			"x-max-priority": maxPriority,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		NotificationQueueName,
		NotificationRoutingKey,
		PostEventsExchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishTask publishes a notification task, persistent and prioritised.
func (c *Client) PublishTask(ctx context.Context, task Task) error {
	body, priority, err := encodeTask(task)
	if err != nil {
		return err
	}

	err = c.channel.PublishWithContext(ctx,
		PostEventsExchange,
		NotificationRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     priority,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish task type=%s to exchange=%s: %v", task.Type, PostEventsExchange, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("[RABBITMQ] Published task type=%s user=%s post=%s", task.Type, task.UserID, task.PostID)
	return nil
}

// ConsumeTasks delivers tasks to handler until the channel closes. Undecodable
// messages are dropped; handler errors requeue the message.
func (c *Client) ConsumeTasks(handler func(task Task) error) error {
	msgs, err := c.channel.Consume(
		NotificationQueueName, // queue
		"",                    // consumer
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", NotificationQueueName)

	go func() {
		for msg := range msgs {
			var task Task
			if err := json.Unmarshal(msg.Body, &task); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal task: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false)
				continue
			}

			if err := handler(task); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for task type=%s: %v", task.Type, err)
				msg.Nack(false, !msg.Redelivered)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

func (c *Client) QueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(NotificationQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}

func encodeTask(task Task) ([]byte, uint8, error) {
	priority := task.Priority
	if priority < 0 {
		priority = 0
	}
	if priority > maxPriority {
		priority = maxPriority
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(task)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal task: %w", err)
	}
	return body, uint8(priority), nil
}
