package importer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var count atomic.Int32
	q := NewQueue(func(ctx context.Context, path string) error {
		count.Add(1)
		return nil
	}, testLogger(), WithWorkers(2), WithQueueSize(4))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: "pmix-senso-2025-06-14.pdf", SubmittedAt: time.Now()}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, int32(5), count.Load())
}

func TestQueueKeepsWorkingAfterFailure(t *testing.T) {
	var count atomic.Int32
	q := NewQueue(func(ctx context.Context, path string) error {
		if count.Add(1) == 1 {
			return errors.New("boom")
		}
		return nil
	}, testLogger(), WithWorkers(1))

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: "pmix-senso-2025-06-15.pdf"}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, int32(3), count.Load())
}

func TestQueueProcessTimeout(t *testing.T) {
	done := make(chan struct{})
	q := NewQueue(func(ctx context.Context, path string) error {
		defer close(done)
		<-ctx.Done()
		return ctx.Err()
	}, testLogger(), WithWorkers(1), WithProcessTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process context never timed out")
	}
	q.Shutdown(context.Background())
}

func TestQueueShutdownStopsEnqueue(t *testing.T) {
	var count atomic.Int32
	q := NewQueue(func(ctx context.Context, path string) error {
		count.Add(1)
		return nil
	}, testLogger())

	q.Shutdown(context.Background())
	q.Shutdown(context.Background()) // second call is a no-op

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "late.pdf"}))
	assert.Zero(t, count.Load())
}
