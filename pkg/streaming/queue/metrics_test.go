package queue

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/termermc/asyncstream/internal/testutil"
	"github.com/termermc/asyncstream/pkg/metrics"
)

func newTestMetricsQueue(t *testing.T, capacity int) *MetricsQueue[int] {
	t.Helper()
	mq, err := NewWithConfigAndMetrics[int](Config{Capacity: capacity}, "test", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
	testutil.AssertNoError(t, err)
	return mq
}

func TestMetricsQueueCounters(t *testing.T) {
	mq := newTestMetricsQueue(t, 2)
	ctx := context.Background()

	mq.WriteBatch(ctx, []int{1, 2})
	mq.Write(ctx, 3) // Full
	mq.Read(ctx)

	written := promtestutil.ToFloat64(mq.registry.StreamItems.WithLabelValues("write", "test"))
	testutil.AssertEqual(t, written, 2.0)

	read := promtestutil.ToFloat64(mq.registry.StreamItems.WithLabelValues("read", "test"))
	testutil.AssertEqual(t, read, 1.0)

	rejected := promtestutil.ToFloat64(mq.registry.BackpressureEvents.WithLabelValues("write", "test"))
	testutil.AssertEqual(t, rejected, 1.0)

	depth := promtestutil.ToFloat64(mq.registry.QueueDepth.WithLabelValues("test"))
	testutil.AssertEqual(t, depth, 1.0)

	capacity := promtestutil.ToFloat64(mq.registry.QueueCapacity.WithLabelValues("test"))
	testutil.AssertEqual(t, capacity, 2.0)
}

func TestMetricsQueueContractUnchanged(t *testing.T) {
	mq := newTestMetricsQueue(t, 3)
	ctx := context.Background()

	testutil.AssertEqual(t, mq.CompleteWithBatch(ctx, []int{1, 2}).IsWritten(), true)
	testutil.AssertEqual(t, mq.CanWrite(), false)
	testutil.AssertSliceEqual(t, mq.ReadAll(ctx).Value, []int{1, 2})
	testutil.AssertEqual(t, mq.IsFinished(), true)
	testutil.AssertEqual(t, mq.IsFailed(), false)
}

func TestMetricsQueueSetMaxQueueLen(t *testing.T) {
	mq := newTestMetricsQueue(t, 2)

	testutil.AssertNoError(t, mq.SetMaxQueueLen(5))
	testutil.AssertEqual(t, mq.MaxQueueLen(), 5)

	capacity := promtestutil.ToFloat64(mq.registry.QueueCapacity.WithLabelValues("test"))
	testutil.AssertEqual(t, capacity, 5.0)

	testutil.AssertError(t, mq.SetMaxQueueLen(-1))
}
