/*
Package queue provides the in-memory bounded-queue reference endpoint for
the asyncstream contract.

A Queue[T] is both a ReadStream[T] and a WriteStream[T] over a single ring
buffer, with the QueuedStream capability exposing depth and capacity. It is
the canonical producer/consumer meeting point: a producer goroutine writes
and completes, a consumer goroutine reads until Finished.

Backpressure Semantics:

Writes never suspend. A write or batch that does not fit in the remaining
capacity returns Full immediately with nothing enqueued; the producer
decides whether to retry, poll the QueuedStream state, or give up. The
batch form is all-or-nothing, so a partially fitting batch is rejected in
full and ordering is never compromised.

Reads suspend while the queue is empty and the write side is still open,
waking as soon as an item arrives or the stream reaches a terminal state.
Cancellation of the read context aborts the call without failing the
stream.

	q := queue.New[int](100)

	// Producer
	go func() {
		for i := 0; i < 1000; i++ {
			for q.Write(ctx, i).IsFull() {
				time.Sleep(time.Millisecond) // downstream is slower
			}
		}
		q.Complete(ctx)
	}()

	// Consumer
	for {
		res := q.ReadN(ctx, 32)
		if !res.IsData() {
			break
		}
		process(res.Value)
	}

Completion Policy:

Complete locks the write side immediately; items already queued remain
readable. The stream reports finished once the queue drains, so no data
handed to Write is ever silently dropped by a clean shutdown. Failure
(Fail) is the opposite: it is terminal at once and discards queued items.

Capacity Changes:

Queue implements MutableQueuedStream. SetMaxQueueLen applies to subsequent
writes only; shrinking below the current length keeps the queue full until
readers drain it below the new bound, never rejecting items retroactively.

Metrics:

NewWithMetrics wraps a queue with Prometheus instrumentation (operation,
item, and backpressure counters plus depth and capacity gauges) without
changing any contract semantics.
*/
package queue
