package notify

import (
	"context"
	"errors"
	"sync"

	"rentstore/internal/logger"
)

var ErrQueueFull = errors.New("notification queue is full")

// TaskHandler processes one queued notification task.
type TaskHandler func(ctx context.Context, taskID string) error

// LocalQueue is the in-process task queue used when no broker is configured.
type LocalQueue struct {
	jobs    chan string
	workers int
	wg      sync.WaitGroup
	once    sync.Once
}

func NewLocalQueue(workers, size int) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &LocalQueue{jobs: make(chan string, size), workers: workers}
}

// Enqueue never blocks; a full buffer returns ErrQueueFull and the task stays queued in the
// outbox for the retry job.
func (q *LocalQueue) Enqueue(ctx context.Context, taskID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- taskID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They exit when ctx is cancelled.
func (q *LocalQueue) Start(ctx context.Context, handle TaskHandler) {
	q.once.Do(func() {
		log := logger.WithService("local-queue")
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(worker int) {
				defer q.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case id := <-q.jobs:
						if err := handle(ctx, id); err != nil {
							log.Error("notification task failed", "worker", worker, "task_id", id, "error", err)
						}
					}
				}
			}(i)
		}
	})
}

// Wait blocks until all workers have returned.
func (q *LocalQueue) Wait() {
	q.wg.Wait()
}
