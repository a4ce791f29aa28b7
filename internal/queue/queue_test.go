package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

// collect drains n values from ch, failing the test on timeout.
func collect(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		select {
		case v := <-ch:
			out = append(out, v)
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for task %d of %d", i+1, n)
		}
	}
	return out
}

func namedTask(name string, p Priority, done chan<- string) *Task {
	return &Task{
		AgentName: name,
		Priority:  p,
		Execute: func(ctx context.Context) error {
			done <- name
			return nil
		},
	}
}

func TestQueue_PriorityOrdering(t *testing.T) {
	q := New(1, 1)
	done := make(chan string, 3)

	// Enqueue before starting so the dispatcher sees all three at once
	_, err := q.Enqueue(namedTask("low", PriorityLow, done))
	require.NoError(t, err)
	_, err = q.Enqueue(namedTask("critical", PriorityCritical, done))
	require.NoError(t, err)
	_, err = q.Enqueue(namedTask("medium", PriorityMedium, done))
	require.NoError(t, err)
	require.Equal(t, 3, q.Len())

	q.Start(context.Background())
	defer q.Stop()

	assert.Equal(t, []string{"critical", "medium", "low"}, collect(t, done, 3))
}

func TestQueue_FIFOWithinTier(t *testing.T) {
	q := New(1, 1)
	done := make(chan string, 3)

	for _, name := range []string{"first", "second", "third"} {
		_, err := q.Enqueue(namedTask(name, PriorityMedium, done))
		require.NoError(t, err)
	}

	q.Start(context.Background())
	defer q.Stop()

	assert.Equal(t, []string{"first", "second", "third"}, collect(t, done, 3))
}

func TestQueue_ConcurrencyCap(t *testing.T) {
	const maxConcurrent = 2

	q := New(maxConcurrent, 1)
	q.Start(context.Background())
	defer q.Stop()

	var current, peak int32
	done := make(chan string, 6)

	for i := 0; i < 6; i++ {
		_, err := q.Enqueue(&Task{
			AgentName: "worker",
			Priority:  PriorityMedium,
			Execute: func(ctx context.Context) error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				done <- "done"
				return nil
			},
		})
		require.NoError(t, err)
	}

	collect(t, done, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(maxConcurrent))
}

func TestQueue_RetryWithBackoff(t *testing.T) {
	q := New(1, 3)
	q.Start(context.Background())
	defer q.Stop()

	var attempts int32
	done := make(chan string, 1)
	start := time.Now()

	_, err := q.Enqueue(&Task{
		AgentName: "flaky",
		Priority:  PriorityHigh,
		Execute: func(ctx context.Context) error {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return errors.ErrExternal
			}
			done <- "ok"
			return nil
		},
	})
	require.NoError(t, err)

	collect(t, done, 1)

	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
	// First retry is delayed 2^1 seconds
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)
}

func TestQueue_RetriesExhausted(t *testing.T) {
	q := New(1, 3)
	q.Start(context.Background())

	var attempts int32

	task := &Task{
		AgentName:  "doomed",
		Priority:   PriorityCritical,
		MaxRetries: 1,
		Execute: func(ctx context.Context) error {
			atomic.AddInt32(&attempts, 1)
			return errors.ErrExternal
		},
	}
	_, err := q.Enqueue(task)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) >= 2
	}, 15*time.Second, 100*time.Millisecond)

	// Stop waits for the in-flight attempt to finish, so the task's terminal
	// state is safe to read afterwards.
	time.Sleep(200 * time.Millisecond)
	q.Stop()

	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts), "initial attempt plus one retry")
	assert.Equal(t, StatusFailed, task.Status)
	assert.ErrorIs(t, task.LastError, errors.ErrRetriesExhausted)
}

func TestQueue_ShutdownFailureIsNotRetriesExhausted(t *testing.T) {
	q := New(1, 3)
	q.Start(context.Background())

	started := make(chan struct{})
	task := &Task{
		AgentName: "interrupted",
		Priority:  PriorityHigh,
		Execute: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return errors.ErrExternal
		},
	}
	_, err := q.Enqueue(task)
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("task never started")
	}

	// Stop cancels the task's context and waits for it to finish; the
	// failure happens with retries remaining but the queue already closed.
	q.Stop()

	assert.Equal(t, StatusFailed, task.Status)
	assert.ErrorIs(t, task.LastError, errors.ErrQueueClosed)
	assert.NotErrorIs(t, task.LastError, errors.ErrRetriesExhausted)
}

func TestQueue_ScheduledTasksWait(t *testing.T) {
	q := New(1, 1)
	done := make(chan string, 2)

	future := namedTask("future", PriorityCritical, done)
	future.ScheduledFor = time.Now().Add(500 * time.Millisecond)
	_, err := q.Enqueue(future)
	require.NoError(t, err)

	_, err = q.Enqueue(namedTask("now", PriorityLow, done))
	require.NoError(t, err)

	q.Start(context.Background())
	defer q.Stop()

	// The lower-priority runnable task must not be blocked by the scheduled one
	assert.Equal(t, []string{"now", "future"}, collect(t, done, 2))
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := New(1, 1)
	q.Start(context.Background())
	q.Stop()

	_, err := q.Enqueue(namedTask("late", PriorityLow, make(chan string, 1)))
	assert.ErrorIs(t, err, errors.ErrQueueClosed)
}

func TestQueue_RejectsEmptyTask(t *testing.T) {
	q := New(1, 1)

	_, err := q.Enqueue(&Task{AgentName: "noop"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = q.Enqueue(nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
