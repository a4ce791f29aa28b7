package queue

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/metrics"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Priority orders tasks across tiers; arrival order is preserved within a tier.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// rank maps priorities to sortable weights; lower runs first.
var rank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Status is the task lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task is one unit of queued work. Execute carries the actual work; the queue
// owns Status, RetryCount and ScheduledFor after enqueue.
type Task struct {
	ID           uuid.UUID
	AgentName    string
	Priority     Priority
	ScheduledFor time.Time
	RetryCount   int
	MaxRetries   int
	Status       Status
	LastError    error

	Execute func(ctx context.Context) error
}

const (
	defaultConcurrency = 3
	defaultMaxRetries  = 3
)

// Queue is a bounded-concurrency priority task runner. Tasks are picked
// strictly by priority tier, FIFO within a tier; future-scheduled tasks stay
// queued without blocking the dispatch of later runnable ones. Failed tasks
// are re-inserted with exponential backoff until retries are exhausted.
type Queue struct {
	mu          sync.Mutex
	tasks       []*Task
	processing  int
	concurrency int
	maxRetries  int
	closed      bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

// New creates a queue with the given concurrency cap and retry limit.
// Non-positive values fall back to the defaults (3 and 3).
func New(concurrency, maxRetries int) *Queue {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Queue{
		concurrency: concurrency,
		maxRetries:  maxRetries,
		wake:        make(chan struct{}, 1),
		log:         logger.Get().With("component", "queue"),
	}
}

// Start launches the dispatch loop. Must be called exactly once.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)

	q.wg.Add(1)
	go q.dispatchLoop()

	q.log.Info("Queue started", "concurrency", q.concurrency)
}

// Stop drains in-flight tasks and shuts the queue down. Pending tasks that
// never started are abandoned.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	q.log.Info("Queue stopped")
}

// Enqueue adds a task, positioned before the first queued task of strictly
// lower priority. Returns the assigned task ID.
func (q *Queue) Enqueue(t *Task) (uuid.UUID, error) {
	if t == nil || t.Execute == nil {
		return uuid.Nil, errors.Wrap(errors.ErrInvalidInput, "task without work")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return uuid.Nil, errors.ErrQueueClosed
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if _, ok := rank[t.Priority]; !ok {
		t.Priority = PriorityMedium
	}
	if t.MaxRetries <= 0 {
		t.MaxRetries = q.maxRetries
	}
	t.Status = StatusPending

	q.insert(t)
	metrics.QueueDepth.Set(float64(len(q.tasks)))
	q.notify()

	return t.ID, nil
}

// Len reports the number of queued (not yet processing) tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// insert keeps the slice ordered by tier while preserving arrival order
// within a tier. Caller holds the lock.
func (q *Queue) insert(t *Task) {
	pos := len(q.tasks)
	for i, queued := range q.tasks {
		if rank[queued.Priority] > rank[t.Priority] {
			pos = i
			break
		}
	}
	q.tasks = append(q.tasks, nil)
	copy(q.tasks[pos+1:], q.tasks[pos:])
	q.tasks[pos] = t
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop fills free slots with runnable tasks, sleeping until either a
// new task arrives or the earliest scheduled task comes due.
func (q *Queue) dispatchLoop() {
	defer q.wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		next := q.dispatch()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		wait := time.Hour
		if !next.IsZero() {
			if d := time.Until(next); d < wait {
				wait = d
			}
		}
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)

		select {
		case <-q.ctx.Done():
			return
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// dispatch starts as many runnable tasks as free slots allow and returns the
// earliest future schedule time among tasks it had to skip (zero if none).
func (q *Queue) dispatch() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var nextDue time.Time

	for q.processing < q.concurrency {
		idx := -1
		for i, t := range q.tasks {
			if !t.ScheduledFor.IsZero() && t.ScheduledFor.After(now) {
				if nextDue.IsZero() || t.ScheduledFor.Before(nextDue) {
					nextDue = t.ScheduledFor
				}
				continue
			}
			idx = i
			break
		}
		if idx < 0 {
			break
		}

		t := q.tasks[idx]
		q.tasks = append(q.tasks[:idx], q.tasks[idx+1:]...)
		t.Status = StatusProcessing
		q.processing++

		metrics.QueueDepth.Set(float64(len(q.tasks)))
		metrics.QueueProcessing.Set(float64(q.processing))

		q.wg.Add(1)
		go q.run(t)
	}

	return nextDue
}

// run executes one task, handling retry scheduling and terminal states.
func (q *Queue) run(t *Task) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Task panicked", "task", t.ID, "agent", t.AgentName, "panic", r)
			q.finish(t, errors.Newf("panic: %v", r))
		}
	}()

	err := t.Execute(q.ctx)
	q.finish(t, err)
}

func (q *Queue) finish(t *Task, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.processing--
	metrics.QueueProcessing.Set(float64(q.processing))

	switch {
	case err == nil:
		t.Status = StatusCompleted
		metrics.TasksCompleted.WithLabelValues("completed").Inc()

	case t.RetryCount < t.MaxRetries && !q.closed:
		t.RetryCount++
		backoff := time.Duration(math.Pow(2, float64(t.RetryCount))) * time.Second
		t.ScheduledFor = time.Now().Add(backoff)
		t.Status = StatusPending
		t.LastError = err
		q.insert(t)

		metrics.TaskRetries.Inc()
		metrics.QueueDepth.Set(float64(len(q.tasks)))
		q.log.Warn("Task failed, retrying",
			"task", t.ID,
			"agent", t.AgentName,
			"attempt", t.RetryCount,
			"backoff", backoff,
			"error", err,
		)

	case q.closed && t.RetryCount < t.MaxRetries:
		t.Status = StatusFailed
		t.LastError = errors.Wrapf(errors.ErrQueueClosed, "abandoned with %d retries left: %v", t.MaxRetries-t.RetryCount, err)
		metrics.TasksCompleted.WithLabelValues("failed").Inc()
		q.log.Warn("Task failed during shutdown, not retrying",
			"task", t.ID,
			"agent", t.AgentName,
			"error", err,
		)

	default:
		t.Status = StatusFailed
		t.LastError = errors.Wrapf(errors.ErrRetriesExhausted, "after %d attempts: %v", t.RetryCount, err)
		metrics.TasksCompleted.WithLabelValues("failed").Inc()
		q.log.Error("Task failed permanently",
			"task", t.ID,
			"agent", t.AgentName,
			"retries", t.RetryCount,
			"error", err,
		)
	}

	q.notify()
}
