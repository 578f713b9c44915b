package queue

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/termermc/asyncstream/pkg/metrics"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

// MetricsQueue wraps a Queue with Prometheus metrics collection. It
// implements the same capability set as Queue, so it can be dropped in
// anywhere a queue endpoint is used.
type MetricsQueue[T any] struct {
	queue    *Queue[T]
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a queue endpoint with metrics enabled on an
// isolated Prometheus registry.
func NewWithMetrics[T any](capacity int, name string) *MetricsQueue[T] {
	// Use a separate registry per metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := DefaultConfig()
	config.Capacity = capacity

	mq, _ := NewWithConfigAndMetrics[T](config, name, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})
	return mq
}

// NewWithConfigAndMetrics creates a queue endpoint with custom queue and
// metrics configuration.
func NewWithConfigAndMetrics[T any](config Config, name string, metricsConfig metrics.Config) (*MetricsQueue[T], error) {
	q, err := NewWithConfig[T](config)
	if err != nil {
		return nil, err
	}

	registry := metrics.DefaultRegistry
	switch {
	case !metricsConfig.Enabled:
		// Keep the wrapper wiring but publish nowhere.
		registry = metrics.NewRegistry(prometheus.NewRegistry())
	case metricsConfig.Registry != nil:
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mq := &MetricsQueue[T]{
		queue:    q,
		name:     name,
		registry: registry,
	}
	mq.registry.QueueCapacity.WithLabelValues(name).Set(float64(config.Capacity))
	return mq, nil
}

func (mq *MetricsQueue[T]) observe(operation string) {
	mq.registry.StreamOperations.WithLabelValues(operation, mq.name).Inc()
	mq.registry.QueueDepth.WithLabelValues(mq.name).Set(float64(mq.queue.QueueLen()))
}

// Write implements stream.WriteStream.Write.
func (mq *MetricsQueue[T]) Write(ctx context.Context, item T) stream.WriteResult {
	return mq.WriteBatch(ctx, []T{item})
}

// WriteBatch implements stream.WriteStream.WriteBatch.
func (mq *MetricsQueue[T]) WriteBatch(ctx context.Context, items []T) stream.WriteResult {
	res := mq.queue.WriteBatch(ctx, items)
	mq.observe("write")

	switch {
	case res.IsWritten():
		mq.registry.StreamItems.WithLabelValues("write", mq.name).Add(float64(len(items)))
	case res.IsFull():
		mq.registry.BackpressureEvents.WithLabelValues("write", mq.name).Inc()
	default:
		mq.registry.StreamErrors.WithLabelValues("write", mq.name).Inc()
	}
	return res
}

// Read implements stream.ReadStream.Read.
func (mq *MetricsQueue[T]) Read(ctx context.Context) stream.ReadResult[T] {
	res := mq.queue.Read(ctx)
	mq.observe("read")

	switch {
	case res.IsData():
		mq.registry.StreamItems.WithLabelValues("read", mq.name).Inc()
	case res.IsError():
		mq.registry.StreamErrors.WithLabelValues("read", mq.name).Inc()
	}
	return res
}

// ReadN implements stream.ReadStream.ReadN.
func (mq *MetricsQueue[T]) ReadN(ctx context.Context, n int) stream.ReadResult[[]T] {
	res := mq.queue.ReadN(ctx, n)
	mq.observe("read")

	switch {
	case res.IsData():
		mq.registry.StreamItems.WithLabelValues("read", mq.name).Add(float64(len(res.Value)))
	case res.IsError():
		mq.registry.StreamErrors.WithLabelValues("read", mq.name).Inc()
	}
	return res
}

// ReadAll implements stream.ReadStream.ReadAll.
func (mq *MetricsQueue[T]) ReadAll(ctx context.Context) stream.ReadResult[[]T] {
	res := mq.queue.ReadAll(ctx)
	mq.observe("read")

	switch {
	case res.IsData():
		mq.registry.StreamItems.WithLabelValues("read", mq.name).Add(float64(len(res.Value)))
	case res.IsError():
		mq.registry.StreamErrors.WithLabelValues("read", mq.name).Inc()
	}
	return res
}

// Complete implements stream.WriteStream.Complete.
func (mq *MetricsQueue[T]) Complete(ctx context.Context) stream.CompleteResult {
	res := mq.queue.Complete(ctx)
	mq.observe("complete")
	if res.IsError() {
		mq.registry.StreamErrors.WithLabelValues("complete", mq.name).Inc()
	}
	return res
}

// CompleteWith implements stream.WriteStream.CompleteWith.
func (mq *MetricsQueue[T]) CompleteWith(ctx context.Context, item T) stream.WriteResult {
	return mq.CompleteWithBatch(ctx, []T{item})
}

// CompleteWithBatch implements stream.WriteStream.CompleteWithBatch.
func (mq *MetricsQueue[T]) CompleteWithBatch(ctx context.Context, items []T) stream.WriteResult {
	res := mq.WriteBatch(ctx, items)
	if !res.IsWritten() {
		return res
	}
	if cres := mq.Complete(ctx); cres.IsError() {
		return stream.WriteFailed(cres.Err)
	}
	return stream.WriteOK()
}

// Fail transitions the underlying queue to the failed terminal state.
func (mq *MetricsQueue[T]) Fail(err error) {
	mq.queue.Fail(err)
	mq.observe("fail")
}

// IsFinished implements stream.Status.IsFinished.
func (mq *MetricsQueue[T]) IsFinished() bool { return mq.queue.IsFinished() }

// IsFailed implements stream.Status.IsFailed.
func (mq *MetricsQueue[T]) IsFailed() bool { return mq.queue.IsFailed() }

// Err implements stream.Status.Err.
func (mq *MetricsQueue[T]) Err() error { return mq.queue.Err() }

// CanRead implements stream.ReadStream.CanRead.
func (mq *MetricsQueue[T]) CanRead() bool { return mq.queue.CanRead() }

// CanWrite implements stream.WriteStream.CanWrite.
func (mq *MetricsQueue[T]) CanWrite() bool { return mq.queue.CanWrite() }

// QueueLen implements stream.QueuedStream.QueueLen.
func (mq *MetricsQueue[T]) QueueLen() int { return mq.queue.QueueLen() }

// MaxQueueLen implements stream.QueuedStream.MaxQueueLen.
func (mq *MetricsQueue[T]) MaxQueueLen() int { return mq.queue.MaxQueueLen() }

// QueueEmpty implements stream.QueuedStream.QueueEmpty.
func (mq *MetricsQueue[T]) QueueEmpty() bool { return mq.queue.QueueEmpty() }

// QueueFull implements stream.QueuedStream.QueueFull.
func (mq *MetricsQueue[T]) QueueFull() bool { return mq.queue.QueueFull() }

// SetMaxQueueLen implements stream.MutableQueuedStream.SetMaxQueueLen.
func (mq *MetricsQueue[T]) SetMaxQueueLen(n int) error {
	if err := mq.queue.SetMaxQueueLen(n); err != nil {
		return err
	}
	mq.registry.QueueCapacity.WithLabelValues(mq.name).Set(float64(n))
	return nil
}

// Stats returns a snapshot of the underlying queue's activity counters.
func (mq *MetricsQueue[T]) Stats() Stats { return mq.queue.Stats() }

// Interface checks.
var (
	_ stream.ReadStream[int]     = (*MetricsQueue[int])(nil)
	_ stream.WriteStream[int]    = (*MetricsQueue[int])(nil)
	_ stream.MutableQueuedStream = (*MetricsQueue[int])(nil)
)
