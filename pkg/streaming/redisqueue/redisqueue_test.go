package redisqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/termermc/asyncstream/internal/testutil"
	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// newTestQueue connects to a local Redis server, skipping the test when
// none is reachable.
func newTestQueue(t *testing.T, capacity int) *Queue {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available: %v", err)
	}

	q, err := New(Config{
		Redis:        client,
		Key:          "asyncstream:test:" + t.Name(),
		Capacity:     capacity,
		PollInterval: 5 * time.Millisecond,
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, q.Reset(context.Background()))

	t.Cleanup(func() {
		_ = q.Reset(context.Background())
		_ = client.Close()
	})
	return q
}

func TestWriteReadRoundtrip(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 10)

	testutil.AssertEqual(t, q.WriteBatch(ctx, []string{"a", "b", "c"}).IsWritten(), true)
	testutil.AssertEqual(t, q.QueueLen(), 3)

	res := q.ReadN(ctx, 2)
	testutil.AssertEqual(t, res.IsData(), true)
	testutil.AssertSliceEqual(t, res.Value, []string{"a", "b"})
	testutil.AssertEqual(t, q.QueueLen(), 1)

	single := q.Read(ctx)
	testutil.AssertEqual(t, single.Value, "c")
}

func TestBatchAtomicity(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 3)

	testutil.AssertEqual(t, q.WriteBatch(ctx, []string{"a", "b"}).IsWritten(), true)

	// Two more items do not fit; nothing may be pushed.
	res := q.WriteBatch(ctx, []string{"c", "d"})
	testutil.AssertEqual(t, res.IsFull(), true)
	testutil.AssertEqual(t, q.QueueLen(), 2)

	// One more does fit.
	testutil.AssertEqual(t, q.Write(ctx, "c").IsWritten(), true)
	testutil.AssertEqual(t, q.QueueFull(), true)
}

func TestCompleteVisibleAcrossEndpoints(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	producer := newTestQueue(t, 10)

	// A second endpoint on the same key, as another process would hold.
	consumer, err := New(Config{
		Redis:        producer.config.Redis,
		Key:          producer.listKey,
		Capacity:     10,
		PollInterval: 5 * time.Millisecond,
	})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, producer.CompleteWithBatch(ctx, []string{"x", "y"}).IsWritten(), true)

	// The consumer drains the remainder, then observes Finished.
	res := consumer.ReadAll(ctx)
	testutil.AssertEqual(t, res.IsData(), true)
	testutil.AssertSliceEqual(t, res.Value, []string{"x", "y"})
	testutil.AssertEqual(t, consumer.ReadN(ctx, 1).IsFinished(), true)
	testutil.AssertEqual(t, consumer.IsFinished(), true)
}

func TestWriteAfterComplete(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 10)

	testutil.AssertEqual(t, q.Complete(ctx).IsCompleted(), true)

	res := q.Write(ctx, "late")
	testutil.AssertEqual(t, res.IsError(), true)
	testutil.AssertEqual(t, errors.Is(res.Err, aserrors.ErrFinished), true)

	// The violation does not fail the endpoint.
	testutil.AssertEqual(t, q.IsFailed(), false)
}

func TestCompleteRecordsLocalState(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 10)

	testutil.AssertEqual(t, q.Complete(ctx).IsCompleted(), true)

	// The completing endpoint observes its own completion without a
	// round trip: the queue was empty, so it is finished, unfailed, and
	// locked for writes.
	testutil.AssertEqual(t, q.IsFinished(), true)
	testutil.AssertEqual(t, q.IsFailed(), false)
	testutil.AssertEqual(t, q.CanWrite(), false)

	// Complete is idempotent.
	testutil.AssertEqual(t, q.Complete(ctx).IsCompleted(), true)
}

func TestCompleteWithPendingItemsStaysReadable(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 10)

	testutil.AssertEqual(t, q.WriteBatch(ctx, []string{"a", "b"}).IsWritten(), true)
	testutil.AssertEqual(t, q.Complete(ctx).IsCompleted(), true)

	// Writes are locked immediately, but the queue is not finished
	// until the pending items drain.
	testutil.AssertEqual(t, q.CanWrite(), false)
	testutil.AssertEqual(t, q.IsFinished(), false)

	res := q.ReadN(ctx, 10)
	testutil.AssertEqual(t, res.IsData(), true)
	testutil.AssertSliceEqual(t, res.Value, []string{"a", "b"})

	testutil.AssertEqual(t, q.IsFinished(), true)
	testutil.AssertEqual(t, q.ReadN(ctx, 1).IsFinished(), true)
}

func TestReadBlocksUntilWrite(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 10)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Write(ctx, "delayed")
	}()

	res := q.Read(ctx)
	testutil.AssertEqual(t, res.IsData(), true)
	testutil.AssertEqual(t, res.Value, "delayed")
}

func TestReadCanceledWhilePolling(t *testing.T) {
	q := newTestQueue(t, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res := q.Read(ctx)
	testutil.AssertEqual(t, res.IsError(), true)
	testutil.AssertEqual(t, errors.Is(res.Err, context.DeadlineExceeded), true)

	// Cancellation does not fail the endpoint.
	testutil.AssertEqual(t, q.IsFailed(), false)
}

func TestSetMaxQueueLenIsLocal(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	q := newTestQueue(t, 2)

	testutil.AssertEqual(t, q.WriteBatch(ctx, []string{"a", "b"}).IsWritten(), true)
	testutil.AssertEqual(t, q.Write(ctx, "c").IsFull(), true)

	testutil.AssertNoError(t, q.SetMaxQueueLen(3))
	testutil.AssertEqual(t, q.Write(ctx, "c").IsWritten(), true)

	testutil.AssertError(t, q.SetMaxQueueLen(0))
}

func TestCapabilityProbing(t *testing.T) {
	q := newTestQueue(t, 5)

	mq, ok := stream.AsMutableQueued(q)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, mq.MaxQueueLen(), 5)
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{Key: "k"})
	testutil.AssertError(t, err)

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	_, err = New(Config{Redis: client})
	testutil.AssertError(t, err)

	_, err = New(Config{Redis: client, Key: "k", Capacity: -1})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, aserrors.ErrInvalidConfiguration), true)
}
