package services

import (
	"context"
	"fmt"
	"log/slog"

	"rentstore/internal/logger"
	"rentstore/internal/models"
	"rentstore/internal/notify"
	"rentstore/internal/repositories"
)

// TaskQueue hands notification task IDs to a consumer. Implemented by notify.LocalQueue and
// rabbitmq.Client.
type TaskQueue interface {
	Enqueue(ctx context.Context, taskID string) error
}

// NotificationService owns the notification outbox: it records tasks, queues them and
// processes them on the consumer side.
type NotificationService struct {
	tasks       repositories.NotificationRepository
	orders      repositories.OrderRepository
	sender      notify.Sender
	queue       TaskQueue
	maxAttempts int
	log         *slog.Logger
}

func NewNotificationService(
	tasks repositories.NotificationRepository,
	orders repositories.OrderRepository,
	sender notify.Sender,
	queue TaskQueue,
	maxAttempts int,
) *NotificationService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotificationService{
		tasks:       tasks,
		orders:      orders,
		sender:      sender,
		queue:       queue,
		maxAttempts: maxAttempts,
		log:         logger.WithService("notifications"),
	}
}

// EnqueueOrderConfirmation records an order confirmation task and queues it. A queue failure
// marks the task failed so the retry job picks it up; only the outbox write is reported.
func (s *NotificationService) EnqueueOrderConfirmation(ctx context.Context, order *models.Order, channel models.Channel, destination string) error {
	task := &models.NotificationTask{
		Kind:        models.TaskKindOrderConfirmation,
		OrderID:     order.ID,
		Channel:     channel,
		Destination: destination,
		Status:      models.TaskQueued,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to record notification for order %s: %w", order.OrderNumber, err)
	}

	if err := s.queue.Enqueue(ctx, task.ID); err != nil {
		s.log.Warn("failed to queue notification, left for retry", "task_id", task.ID, "error", err)
		task.Status = models.TaskFailed
		task.LastError = "enqueue: " + err.Error()
		if uerr := s.tasks.Update(ctx, task); uerr != nil {
			s.log.Error("failed to mark notification task failed", "task_id", task.ID, "error", uerr)
		}
	}
	return nil
}

// Process sends one task and records the outcome. Delivery failures are stored on the task
// and not returned; errors mean the task itself could not be loaded or saved.
func (s *NotificationService) Process(ctx context.Context, taskID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status == models.TaskSent || task.Status == models.TaskDemo {
		return nil
	}

	task.Attempts++
	result, sendErr := s.deliver(ctx, task)
	switch {
	case sendErr != nil:
		task.Status = models.TaskFailed
		task.LastError = sendErr.Error()
		s.log.Warn("notification delivery failed",
			"task_id", task.ID, "order_id", task.OrderID, "channel", task.Channel,
			"attempt", task.Attempts, "error", sendErr)
	case result.Demo:
		task.Status = models.TaskDemo
		task.LastError = ""
	default:
		task.Status = models.TaskSent
		task.LastError = ""
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to record notification outcome: %w", err)
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, task *models.NotificationTask) (notify.Result, error) {
	switch task.Kind {
	case models.TaskKindOrderConfirmation:
		order, err := s.orders.GetByID(ctx, task.OrderID)
		if err != nil {
			return notify.Result{}, err
		}
		msg, err := notify.OrderConfirmation(order)
		if err != nil {
			return notify.Result{}, err
		}
		msg.Channel = task.Channel
		msg.Destination = task.Destination
		return s.sender.Send(ctx, msg)
	default:
		return notify.Result{}, fmt.Errorf("unknown notification kind %q", task.Kind)
	}
}

// RetryFailed re-queues failed tasks that still have attempts left and returns how many were queued.
func (s *NotificationService) RetryFailed(ctx context.Context) (int, error) {
	tasks, err := s.tasks.ListRetryable(ctx, s.maxAttempts)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, task := range tasks {
		if err := s.queue.Enqueue(ctx, task.ID); err != nil {
			s.log.Warn("retry enqueue failed", "task_id", task.ID, "error", err)
			continue
		}
		queued++
	}
	return queued, nil
}
