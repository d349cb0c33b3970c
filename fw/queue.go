package fw

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of queued work. Tasks run one at a time, in the order
// they were enqueued, on the queue's drain goroutine.
type Task func(ctx context.Context)

// taskQueue is a FIFO of tasks drained by at most one goroutine.
//
// Enqueue never blocks on a running task: the mutex guards only the slice
// and the processing flag, and is released before a task runs.
type taskQueue struct {
	mu         sync.Mutex
	tasks      []Task
	processing bool

	ctx     context.Context
	logger  *zap.Logger
	metrics *PrometheusMetrics
}

func newTaskQueue(ctx context.Context, logger *zap.Logger, metrics *PrometheusMetrics) *taskQueue {
	return &taskQueue{ctx: ctx, logger: logger, metrics: metrics}
}

// enqueue appends task and starts a drain if none is running.
func (q *taskQueue) enqueue(task Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	depth := len(q.tasks)
	start := !q.processing
	if start {
		q.processing = true
	}
	q.mu.Unlock()

	q.metrics.UpdateQueueDepth(depth)
	q.logger.Debug("task enqueued", zap.Int("depth", depth), zap.Bool("drain_started", start))
	if start {
		go q.drain()
	}
}

// drain runs queued tasks until the queue is empty. The length is re-checked
// on every iteration so tasks enqueued by running tasks are picked up by the
// same drain.
func (q *taskQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		depth := len(q.tasks)
		q.mu.Unlock()

		q.metrics.UpdateQueueDepth(depth)
		q.run(task)
	}
}

// run executes task, keeping the drain alive if it panics.
func (q *taskQueue) run(task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			q.logger.Warn("task panicked", zap.Any("panic", rec))
		}
	}()
	task(q.ctx)
}

// pending reports the number of tasks waiting to run.
func (q *taskQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// busy reports whether a drain is in progress.
func (q *taskQueue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}
