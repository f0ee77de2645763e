package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 1)

	queue := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "job-1", Type: "NOTIFY"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"job-1"}, seen)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{}, 1)

	queue := NewQueue("test", func(_ context.Context, _ Job) error {
		mu.Lock()
		attempts++
		current := attempts
		mu.Unlock()
		if current < 2 {
			return errors.New("transient failure")
		}
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "job-1", Type: "NOTIFY"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to success")
	}
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("test", func(_ context.Context, _ Job) error { return nil }, QueueConfig{})
	assert.Error(t, queue.Enqueue(Job{ID: "job-1"}))
}
