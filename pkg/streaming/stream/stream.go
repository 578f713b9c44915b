package stream

import "context"

// Status exposes the observable lifecycle state shared by both stream
// directions. Implementations must uphold three invariants at all times:
//
//  1. IsFailed() implies IsFinished() - failure is always terminal.
//  2. IsFailed() implies Err() != nil.
//  3. IsFinished() implies CanRead()/CanWrite() is false.
//
// CanRead/CanWrite may independently be false while the stream is not
// finished (empty or full queue, paused); that is the backpressure signal,
// not a terminal condition.
type Status interface {
	// IsFinished returns true once the stream has reached its terminal
	// state. The transition is monotonic; a finished stream never becomes
	// unfinished.
	IsFinished() bool

	// IsFailed returns true if the stream finished due to a failure.
	IsFailed() bool

	// Err returns the failure cause, or nil if the stream has not failed.
	Err() error
}

// ReadStream is a pull-based source of items of type T.
//
// Operations never panic across the boundary; all failure is reported via
// ReadResult. Read calls may suspend the caller while waiting for data,
// unless the stream is already finished, in which case they respond
// immediately with the terminal variant and no side effects.
//
// Concurrent calls from multiple goroutines to the same endpoint are not
// required to be safe unless an implementation documents it; the contract
// assumes a single reader per endpoint instance.
type ReadStream[T any] interface {
	Status

	// CanRead returns true if a read could currently make progress without
	// suspending. It is always false once the stream is finished.
	CanRead() bool

	// Read produces exactly one item, suspending while the stream is empty
	// but not finished.
	Read(ctx context.Context) ReadResult[T]

	// ReadN produces at most n items, and at least 1 unless n < 1 (then it
	// returns empty Data immediately) or the stream is already finished.
	// A short batch means the stream ended or failed during the call; the
	// next call reports the terminal variant.
	ReadN(ctx context.Context, n int) ReadResult[[]T]

	// ReadAll drains the stream to completion, concatenating all data.
	// The caller accepts unbounded memory use. Implementations backed by an
	// unbounded or unknown-size source may refuse with an error result.
	ReadAll(ctx context.Context) ReadResult[[]T]
}

// WriteStream is a push-based sink for items of type T.
//
// The batch form is all-or-nothing: a batch that exceeds remaining queue
// capacity is rejected in full with Full and nothing is enqueued.
// The contract assumes a single writer per endpoint instance.
type WriteStream[T any] interface {
	Status

	// CanWrite returns true if a write could currently be accepted. It is
	// always false once the stream is finished or completion has begun.
	CanWrite() bool

	// Write attempts to enqueue one item.
	Write(ctx context.Context, item T) WriteResult

	// WriteBatch attempts to enqueue all items, or none of them.
	WriteBatch(ctx context.Context, items []T) WriteResult

	// Complete performs any flush or teardown needed by the underlying
	// transport and marks the stream finished. On an error result the
	// completion outcome is indeterminate: poll IsFinished for ground truth.
	Complete(ctx context.Context) CompleteResult

	// CompleteWith writes one item and then completes. Returns Written only
	// once both the write and the finish transition have succeeded.
	CompleteWith(ctx context.Context, item T) WriteResult

	// CompleteWithBatch writes a batch and then completes.
	CompleteWithBatch(ctx context.Context, items []T) WriteResult
}

// QueuedStream is an optional capability implemented by endpoints backed by
// a bounded internal buffer. It is purely observational; callers can poll
// queue depth to implement their own flow-control policy.
type QueuedStream interface {
	// QueueLen returns the current number of queued items.
	QueueLen() int

	// MaxQueueLen returns the queue capacity. Always positive.
	MaxQueueLen() int

	// QueueEmpty returns true iff QueueLen() == 0.
	QueueEmpty() bool

	// QueueFull returns true iff QueueLen() >= MaxQueueLen().
	QueueFull() bool
}

// MutableQueuedStream is an optional refinement of QueuedStream whose
// capacity can be changed at runtime. Mutation takes effect for subsequent
// writes only; already-queued items are never retroactively rejected.
type MutableQueuedStream interface {
	QueuedStream

	// SetMaxQueueLen changes the queue capacity. n must be positive.
	SetMaxQueueLen(n int) error
}

// AsQueued probes a stream for the QueuedStream capability.
func AsQueued(s interface{}) (QueuedStream, bool) {
	q, ok := s.(QueuedStream)
	return q, ok
}

// AsMutableQueued probes a stream for the MutableQueuedStream capability.
func AsMutableQueued(s interface{}) (MutableQueuedStream, bool) {
	q, ok := s.(MutableQueuedStream)
	return q, ok
}
