package pipe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/termermc/asyncstream/internal/testutil"
	aserrors "github.com/termermc/asyncstream/pkg/common/errors"
	"github.com/termermc/asyncstream/pkg/metrics"
	"github.com/termermc/asyncstream/pkg/streaming/queue"
	"github.com/termermc/asyncstream/pkg/streaming/stream"
)

func TestPipeComplete(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	src := stream.FromSlice([]int{1, 2, 3, 4, 5})
	sink := stream.NewCollector[int]()

	res := Run(ctx, src, sink, Config{BatchSize: 2})

	testutil.AssertEqual(t, res.Outcome, Complete)
	testutil.AssertNoError(t, res.Cause)
	testutil.AssertEqual(t, res.ItemsTransferred, int64(5))
	testutil.AssertEqual(t, res.Batches, int64(3))
	testutil.AssertSliceEqual(t, sink.Items(), []int{1, 2, 3, 4, 5})

	// The pipe completed the sink.
	testutil.AssertEqual(t, sink.IsFinished(), true)
	testutil.AssertEqual(t, sink.IsFailed(), false)
}

func TestPipeEmptySource(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	src := stream.FromSlice([]int{})
	sink := stream.NewCollector[int]()

	res := Pipe[int](ctx, src, sink)

	testutil.AssertEqual(t, res.Outcome, Complete)
	testutil.AssertEqual(t, res.ItemsTransferred, int64(0))
	testutil.AssertEqual(t, sink.IsFinished(), true)
}

func TestPipeOrderingUnderBackpressure(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	src := stream.FromSlice([]int{1, 2, 3, 4, 5})
	inner := stream.NewCollector[int]()
	flaky := &testutil.FlakySink[int]{Inner: inner, FullEvery: 2}

	res := Run(ctx, src, flaky, Config{BatchSize: 2})

	testutil.AssertEqual(t, res.Outcome, Complete)
	if res.FullRetries == 0 {
		t.Fatal("expected at least one Full retry")
	}

	// Exactly once, in order, despite the rejections.
	testutil.AssertSliceEqual(t, inner.Items(), []int{1, 2, 3, 4, 5})
	testutil.AssertEqual(t, res.ItemsTransferred, int64(5))
}

func TestPipeIntoBoundedQueueWithConcurrentReader(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	src := stream.FromSlice(items)
	q := queue.New[int](3) // much smaller than the source

	var wg sync.WaitGroup
	wg.Add(1)
	var got []int
	go func() {
		defer wg.Done()
		for {
			res := q.ReadN(ctx, 8)
			if !res.IsData() {
				return
			}
			got = append(got, res.Value...)
		}
	}()

	res := Run(ctx, src, q, Config{BatchSize: 2})
	wg.Wait()

	testutil.AssertEqual(t, res.Outcome, Complete)
	testutil.AssertSliceEqual(t, got, items)
}

// A BatchSize above the sink's capacity must not stall the transfer: the
// all-or-nothing sink would reject the oversized batch forever, so Run
// clamps the read size to what the sink can hold.
func TestPipeBatchClampedToSinkCapacity(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	src := stream.FromSlice(items)
	q := queue.New[int](8)

	var wg sync.WaitGroup
	wg.Add(1)
	var got []int
	go func() {
		defer wg.Done()
		for {
			res := q.ReadN(ctx, 8)
			if !res.IsData() {
				return
			}
			got = append(got, res.Value...)
		}
	}()

	res := Run(ctx, src, q, Config{BatchSize: 64})
	wg.Wait()

	testutil.AssertEqual(t, res.Outcome, Complete)
	testutil.AssertSliceEqual(t, got, items)
}

// shrinkingSink reports a capacity of 4 on the first probe, then 1, as if
// another owner shrank the queue after the transfer started.
type shrinkingSink struct {
	*stream.Collector[int]
	probes atomic.Int32
}

func (s *shrinkingSink) MaxQueueLen() int {
	if s.probes.Add(1) == 1 {
		return 4
	}
	return 1
}

func TestPipeBatchUnsatisfiableAfterShrink(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	src := stream.FromSlice([]int{1, 2, 3, 4})
	sink := &shrinkingSink{Collector: stream.NewCollectorWithCapacity[int](2)}

	res := Run(ctx, src, sink, Config{BatchSize: 4})

	testutil.AssertEqual(t, res.Outcome, SinkError)
	testutil.AssertEqual(t, errors.Is(res.Cause, aserrors.ErrCapacityExceeded), true)
	testutil.AssertEqual(t, len(sink.Items()), 0)
}

func TestPipeSourceError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cause := errors.New("source transport fault")
	src := testutil.NewFailingReader([]int{1, 2, 3}, cause)
	sink := stream.NewCollector[int]()

	res := Run(ctx, src, sink, Config{BatchSize: 2})

	testutil.AssertEqual(t, res.Outcome, SourceError)
	testutil.AssertEqual(t, res.Cause, cause)

	// Items delivered before the failure stay delivered.
	testutil.AssertSliceEqual(t, sink.Items(), []int{1, 2, 3})
	testutil.AssertEqual(t, sink.IsFinished(), false)
}

func TestPipeSinkError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cause := errors.New("sink transport fault")
	src := stream.FromSlice([]int{1, 2, 3})
	sink := testutil.NewFailingSink[int](cause)

	res := Run(ctx, src, sink, Config{BatchSize: 2})

	testutil.AssertEqual(t, res.Outcome, SinkError)
	testutil.AssertEqual(t, res.Cause, cause)

	// The source keeps its unread items; no rollback, no retry on error.
	testutil.AssertEqual(t, src.Remaining(), 1)
}

func TestPipeSinkCompleteError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cause := errors.New("flush failed")
	src := stream.FromSlice([]int{})
	sink := testutil.NewFailingSink[int](cause)

	res := Pipe[int](ctx, src, sink)

	testutil.AssertEqual(t, res.Outcome, SinkError)
	testutil.AssertEqual(t, res.Cause, cause)
}

// signalingSink reports Full on every write and closes rejected once.
type signalingSink struct {
	*stream.Collector[int]
	rejected chan struct{}
	once     sync.Once
}

func (s *signalingSink) WriteBatch(ctx context.Context, items []int) stream.WriteResult {
	s.once.Do(func() { close(s.rejected) })
	return stream.WriteFull()
}

func TestPipeCanceledWhileRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := stream.FromSlice([]int{1, 2})
	sink := &signalingSink{
		Collector: stream.NewCollector[int](),
		rejected:  make(chan struct{}),
	}

	done := make(chan Result, 1)
	go func() {
		done <- Run(ctx, src, sink, Config{BatchSize: 2})
	}()

	<-sink.rejected
	cancel()
	res := <-done

	testutil.AssertEqual(t, res.Outcome, SinkError)
	testutil.AssertEqual(t, res.Cause, context.Canceled)
	testutil.AssertEqual(t, len(sink.Items()), 0)
}

func TestPipeDefaultsAppliedToInvalidConfig(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	src := stream.FromSlice([]int{1, 2, 3})
	sink := stream.NewCollector[int]()

	res := Run(ctx, src, sink, Config{BatchSize: -1})

	testutil.AssertEqual(t, res.Outcome, Complete)
	testutil.AssertSliceEqual(t, sink.Items(), []int{1, 2, 3})
}

func TestPipeMetrics(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	src := stream.FromSlice([]int{1, 2, 3, 4})
	inner := stream.NewCollector[int]()
	flaky := &testutil.FlakySink[int]{Inner: inner, FullEvery: 2}

	reg := prometheus.NewRegistry()
	res := Run(ctx, src, flaky, Config{
		BatchSize: 2,
		Name:      "test",
		Metrics:   metrics.Config{Enabled: true, Registry: reg},
	})

	testutil.AssertEqual(t, res.Outcome, Complete)

	families, err := reg.Gather()
	testutil.AssertNoError(t, err)
	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			found[mf.GetName()] += m.GetCounter().GetValue()
		}
	}

	testutil.AssertEqual(t, found["asyncstream_pipe_items_total"], 4.0)
	testutil.AssertEqual(t, found["asyncstream_pipe_batches_total"], 2.0)
	if found["asyncstream_pipe_retries_total"] == 0 {
		t.Error("expected retry counter to be incremented")
	}
}
