package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"

	"rentstore/internal/logger"
)

// NotificationQueue carries notification task IDs from the API to the dispatch consumer.
const NotificationQueue = "notification_queue"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

type taskMessage struct {
	TaskID string `json:"task_id"`
}

// NewClient connects to RabbitMQ, opens a channel and declares the notification queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", "queue", NotificationQueue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		NotificationQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", NotificationQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Enqueue publishes a notification task ID as a persistent message.
func (c *Client) Enqueue(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := encodeTask(taskID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",                // exchange: default exchange
		NotificationQueue, // routing key: the queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish task %s: %w", taskID, err)
	}

	logger.Debug("notification task published", "task_id", taskID)
	return nil
}

// Start registers a consumer and processes deliveries until ctx is cancelled or the channel
// closes. Messages are acked after the handler returns; a handler error is logged and the
// message dropped, since the outbox row keeps the task for the retry job.
func (c *Client) Start(ctx context.Context, handle func(ctx context.Context, taskID string) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		NotificationQueue, // queue
		"",                // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log := logger.WithService("rabbitmq-consumer")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}
				processDelivery(ctx, msg.Body, msg.DeliveryTag, msg, handle, log)
			}
		}
	}()

	return nil
}

type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type logSink interface {
	Error(msg string, args ...any)
}

func processDelivery(ctx context.Context, body []byte, tag uint64, ack acker, handle func(context.Context, string) error, log logSink) {
	taskID, err := decodeTask(body)
	if err != nil {
		log.Error("malformed notification message", "delivery_tag", tag, "error", err)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", "delivery_tag", tag, "error", nackErr)
		}
		return
	}

	if err := handle(ctx, taskID); err != nil {
		log.Error("error processing notification task", "task_id", taskID, "error", err)
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", "delivery_tag", tag, "error", ackErr)
	}
}

func encodeTask(taskID string) ([]byte, error) {
	body, err := json.Marshal(taskMessage{TaskID: taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task message: %w", err)
	}
	return body, nil
}

func decodeTask(body []byte) (string, error) {
	var m taskMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return "", fmt.Errorf("failed to unmarshal task message: %w", err)
	}
	if m.TaskID == "" {
		return "", fmt.Errorf("task message has no task_id")
	}
	return m.TaskID, nil
}
