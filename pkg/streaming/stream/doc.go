/*
Package stream defines the asyncstream endpoint contract: a pull-based
ReadStream, a push-based WriteStream, and the result algebra their
operations return.

Any transport (file, socket, in-memory buffer, pipe) can implement these
interfaces so that producers and consumers compose uniformly regardless of
relative speed or underlying medium.

Result Algebra:

Every operation reports its outcome as a value instead of panicking across
the boundary. Three small tagged unions cover all cases:

  - ReadResult[T]: Data (one item or batch), Finished (no more data will
    ever be produced), or Error (failure; the stream is now failed).
  - WriteResult: Written (accepted in full), Full (queue capacity
    insufficient, nothing accepted), or Error (lower-level failure).
  - CompleteResult: Completed (clean shutdown) or Error (outcome
    indeterminate; poll IsFinished for ground truth).

Full is not a fault. It is the backpressure signal: a recoverable, expected
outcome that callers respond to by retrying after the queue drains.

Status Invariants:

Both directions expose IsFinished, IsFailed, and Err, plus CanRead or
CanWrite. At every observation point:

	IsFailed()   => IsFinished() and Err() != nil
	IsFinished() => !CanRead() / !CanWrite()

CanRead/CanWrite may be false while the stream is healthy (empty or full
queue); only IsFinished marks the terminal state. Once finished, every
operation returns the same terminal variant immediately, with no suspension
and no side effects.

Reading:

	src := stream.FromSlice([]int{1, 2, 3, 4, 5})

	res := src.ReadN(ctx, 2)
	if res.IsData() {
		fmt.Println(res.Value) // [1 2]
	}

	rest := src.ReadAll(ctx)   // [3 4 5]
	end := src.Read(ctx)       // end.IsFinished() == true

Writing:

	sink := stream.NewCollectorWithCapacity[int](3)

	res := sink.WriteBatch(ctx, []int{1, 2, 3})  // Written
	res = sink.Write(ctx, 4)                     // Full: capacity exhausted
	sink.Drain(1)                                // downstream makes room
	res = sink.Write(ctx, 4)                     // Written

	cres := sink.Complete(ctx)
	if cres.IsCompleted() {
		// sink.IsFinished() == true, sink.IsFailed() == false
	}

Capability Probing:

Endpoints backed by a bounded buffer additionally implement QueuedStream
(queue length, emptiness, fullness, capacity) and, optionally,
MutableQueuedStream (runtime capacity changes). Generic algorithms query
these at composition time rather than assuming them:

	if q, ok := stream.AsQueued(sink); ok && q.QueueFull() {
		// back off before writing
	}

Cancellation:

Blocking operations take a context.Context. A canceled context aborts the
call with an Error result carrying ctx.Err(), but does not fail the stream;
only genuine endpoint or transport faults are terminal. Cancellation is an
extension point, not part of the base state machine.

Concrete endpoints live in sibling packages: queue (in-memory bounded
queue), writer and reader (io.Writer/io.Reader adapters), and redisqueue
(Redis-list-backed queue). The pipe package composes a ReadStream and a
WriteStream into a transfer loop that honors both sides' backpressure.
*/
package stream
